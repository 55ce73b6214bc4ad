package cache

import (
	"context"
	"fmt"

	"github.com/aannaassalam/coachiatry-sub001/internal/config"
	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
)

// Store holds conversations by room id. Get returns nil, nil on a miss.
type Store interface {
	Get(ctx context.Context, chatID string) (*domain.Conversation, error)
	Save(ctx context.Context, conv *domain.Conversation) error
	Delete(ctx context.Context, chatID string) error
	Close() error
}

// NewStore builds the store selected by cfg.Backend.
func NewStore(cfg config.CacheConfig, redisCfg config.RedisConfig) (Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(cfg.TTL), nil
	case "redis":
		s, err := NewRedisStore(redisCfg, cfg.TTL)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
