package room

import (
	"sync"

	"github.com/rs/zerolog"
)

// Binder keeps at most one room bound. A new Bind releases the previous
// binding first.
type Binder struct {
	logger zerolog.Logger

	mu      sync.Mutex
	current *Binding
}

// NewBinder creates a Binder with nothing bound.
func NewBinder(logger zerolog.Logger) *Binder {
	return &Binder{logger: logger}
}

// Bind releases the current binding and binds opts on ch. After an
// identity change the caller binds again with the new channel and self id.
func (b *Binder) Bind(ch Channel, opts Options) (*Binding, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		b.current.Release()
		b.current = nil
	}

	binding, err := Bind(ch, opts, b.logger)
	if err != nil {
		return nil, err
	}
	b.current = binding
	return binding, nil
}

// Release unbinds the current room, if any.
func (b *Binder) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		b.current.Release()
		b.current = nil
	}
}

// Current returns the bound room, or nil.
func (b *Binder) Current() *Binding {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
