package tui

import "github.com/charmbracelet/bubbles/viewport"

// viewportAnchor lets the scroll controller drive a bubbles viewport. A
// terminal cannot animate, so smooth and instant jumps look the same.
type viewportAnchor struct {
	vp *viewport.Model
}

func (a viewportAnchor) AtBottom() bool {
	return a.vp.AtBottom()
}

func (a viewportAnchor) GotoBottom(smooth bool) {
	a.vp.GotoBottom()
}

func (a viewportAnchor) GotoTop() {
	a.vp.GotoTop()
}
