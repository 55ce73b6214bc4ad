package cache

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

// Fetcher loads a conversation from the backend.
type Fetcher interface {
	GetConversation(ctx context.Context, chatID string) (*domain.Conversation, error)
}

// Conversations is a read-through cache in front of a Fetcher.
type Conversations struct {
	store   Store
	fetcher Fetcher
	logger  zerolog.Logger
}

// NewConversations creates a read-through cache.
func NewConversations(store Store, fetcher Fetcher, logger zerolog.Logger) *Conversations {
	return &Conversations{store: store, fetcher: fetcher, logger: logger}
}

// Get returns the cached conversation or fetches and caches it. Store
// failures fall through to the fetcher.
func (c *Conversations) Get(ctx context.Context, chatID string) (*domain.Conversation, error) {
	l := c.logger.With().Str(pkglog.FieldChat, chatID).Logger()

	conv, err := c.store.Get(ctx, chatID)
	if err != nil {
		l.Warn().Err(err).Msg("conversation cache read failed")
	} else if conv != nil {
		l.Debug().Msg("conversation cache hit")
		return conv, nil
	}

	conv, err = c.fetcher.GetConversation(ctx, chatID)
	if err != nil {
		return nil, err
	}

	if err := c.store.Save(ctx, conv); err != nil {
		l.Warn().Err(err).Msg("conversation cache write failed")
	}
	return conv, nil
}

// Invalidate drops the cached copy of chatID.
func (c *Conversations) Invalidate(ctx context.Context, chatID string) error {
	return c.store.Delete(ctx, chatID)
}
