// Package scroll decides when a message list jumps to its newest entry.
package scroll

import "sync"

// Viewport is the scrollable message container with its top and bottom
// anchors.
type Viewport interface {
	AtBottom() bool
	GotoBottom(smooth bool)
	GotoTop()
}

// Controller keeps the newest message in view without stealing the
// position of a viewer who scrolled up.
type Controller struct {
	viewport Viewport

	mu                 sync.Mutex
	roomID             string
	didInitialScroll   bool
	needsInitialScroll bool
	prevMessageCount   int
	atBottom           bool
}

// New creates a controller for vp.
func New(vp Viewport) *Controller {
	return &Controller{
		viewport:           vp,
		needsInitialScroll: true,
		atBottom:           true,
	}
}

// SetRoom resets the controller for a newly opened room.
func (c *Controller) SetRoom(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.roomID = roomID
	c.didInitialScroll = false
	c.needsInitialScroll = true
	c.prevMessageCount = 0
	c.atBottom = true
}

// Observe runs once per layout pass with the current message count.
func (c *Controller) Observe(count int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.needsInitialScroll && count > 0:
		c.viewport.GotoBottom(false)
		c.needsInitialScroll = false
		c.didInitialScroll = true
		c.atBottom = true
	case count > c.prevMessageCount && c.atBottom:
		c.viewport.GotoBottom(true)
	}
	c.prevMessageCount = count
}

// SetAtBottom records the viewer position after a scroll event.
func (c *Controller) SetAtBottom(atBottom bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.atBottom = atBottom
}

// Sync reads the viewer position from the viewport.
func (c *Controller) Sync() {
	c.SetAtBottom(c.viewport.AtBottom())
}

// ScrollToBottom jumps to the newest message, e.g. after sending.
func (c *Controller) ScrollToBottom(immediate bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport.GotoBottom(!immediate)
	c.atBottom = true
}

// ScrollToTop jumps to the oldest loaded message.
func (c *Controller) ScrollToTop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewport.GotoTop()
	c.atBottom = c.viewport.AtBottom()
}

// State is a snapshot of the controller flags.
type State struct {
	RoomID             string
	DidInitialScroll   bool
	NeedsInitialScroll bool
	PrevMessageCount   int
	AtBottom           bool
}

// State returns the current flags.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		RoomID:             c.roomID,
		DidInitialScroll:   c.didInitialScroll,
		NeedsInitialScroll: c.needsInitialScroll,
		PrevMessageCount:   c.prevMessageCount,
		AtBottom:           c.atBottom,
	}
}
