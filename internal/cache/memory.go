package cache

import (
	"context"
	"sync"
	"time"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
)

type entry struct {
	conv      domain.Conversation
	expiresAt time.Time
}

// MemoryStore is an in-process Store with per-entry expiry.
type MemoryStore struct {
	entries map[string]entry // chatID -> entry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

// NewMemoryStore creates a store whose entries live for ttl. A zero ttl
// never expires.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Get returns a copy of the cached conversation.
func (s *MemoryStore) Get(ctx context.Context, chatID string) (*domain.Conversation, error) {
	s.mu.RLock()
	e, ok := s.entries[chatID]
	s.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, chatID)
		s.mu.Unlock()
		return nil, nil
	}

	conv := e.conv
	conv.Members = append([]domain.UserRef(nil), e.conv.Members...)
	return &conv, nil
}

// Save stores a copy of conv.
func (s *MemoryStore) Save(ctx context.Context, conv *domain.Conversation) error {
	e := entry{conv: *conv}
	e.conv.Members = append([]domain.UserRef(nil), conv.Members...)
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[conv.ID] = e
	return nil
}

// Delete removes a conversation.
func (s *MemoryStore) Delete(ctx context.Context, chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, chatID)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
