// Package reconcile keeps list keys stable while a message moves from its
// client-assigned temporary id to its permanent id.
package reconcile

import (
	"strconv"
	"sync"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
)

const (
	contentPrefixRunes = 20
	fallbackKey        = "fallback"
)

// KeyStore maps temporary and permanent ids to a stable key. Entries are
// never evicted; scope one store to one conversation view.
type KeyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

// NewKeyStore creates an empty store.
func NewKeyStore() *KeyStore {
	return &KeyStore{keys: make(map[string]string)}
}

// Key returns the stable key for msg, recording any id it has not seen.
func (s *KeyStore) Key(msg domain.Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key, ok := s.lookup(msg.TempID); ok {
		s.bind(msg.ID, key)
		return key
	}
	if key, ok := s.lookup(msg.ID); ok {
		s.bind(msg.TempID, key)
		return key
	}

	key := compositeKey(msg)
	s.bind(msg.TempID, key)
	s.bind(msg.ID, key)
	return key
}

// Lookup returns the key recorded for id without recording anything.
func (s *KeyStore) Lookup(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookup(id)
}

func (s *KeyStore) lookup(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	key, ok := s.keys[id]
	return key, ok
}

// bind records id without overwriting an earlier key.
func (s *KeyStore) bind(id, key string) {
	if id == "" {
		return
	}
	if _, ok := s.keys[id]; !ok {
		s.keys[id] = key
	}
}

func compositeKey(msg domain.Message) string {
	content := truncate(msg.Content, contentPrefixRunes)
	switch {
	case !msg.CreatedAt.IsZero():
		return strconv.FormatInt(msg.CreatedAt.UnixMilli(), 10) + "-" + content
	case content != "":
		return content
	default:
		return fallbackKey
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
