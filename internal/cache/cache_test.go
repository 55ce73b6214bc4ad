package cache_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aannaassalam/coachiatry-sub001/internal/cache"
	"github.com/aannaassalam/coachiatry-sub001/internal/config"
	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) GetConversation(ctx context.Context, chatID string) (*domain.Conversation, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Conversation), args.Error(1)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) (*domain.Conversation, error) {
	return nil, errors.New("down")
}
func (brokenStore) Save(context.Context, *domain.Conversation) error { return errors.New("down") }
func (brokenStore) Delete(context.Context, string) error { return errors.New("down") }
func (brokenStore) Close() error { return nil }

func room(id string) *domain.Conversation {
	return &domain.Conversation{
		ID:      id,
		Type:    domain.ConversationDirect,
		Members: []domain.UserRef{{ID: "u1"}, {ID: "u2"}},
	}
}

func TestConversations_FetchesOncePerTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := cache.NewMemoryStore(time.Minute).WithClock(func() time.Time { return now })

	f := new(mockFetcher)
	f.On("GetConversation", mock.Anything, "r1").Return(room("r1"), nil)

	c := cache.NewConversations(store, f, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		conv, err := c.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "r1", conv.ID)
	}
	f.AssertNumberOfCalls(t, "GetConversation", 1)

	now = now.Add(time.Minute)
	_, err := c.Get(ctx, "r1")
	require.NoError(t, err)
	f.AssertNumberOfCalls(t, "GetConversation", 2)

	require.NoError(t, c.Invalidate(ctx, "r1"))
	_, err = c.Get(ctx, "r1")
	require.NoError(t, err)
	f.AssertNumberOfCalls(t, "GetConversation", 3)
}

func TestConversations_FetchErrorNotCached(t *testing.T) {
	f := new(mockFetcher)
	f.On("GetConversation", mock.Anything, "gone").Return(nil, errors.New("not found")).Twice()

	c := cache.NewConversations(cache.NewMemoryStore(time.Minute), f, zerolog.Nop())
	_, err := c.Get(context.Background(), "gone")
	assert.Error(t, err)
	_, err = c.Get(context.Background(), "gone")
	assert.Error(t, err)
	f.AssertExpectations(t)
}

func TestConversations_StoreFailureFallsThrough(t *testing.T) {
	f := new(mockFetcher)
	f.On("GetConversation", mock.Anything, "r1").Return(room("r1"), nil)

	c := cache.NewConversations(brokenStore{}, f, zerolog.Nop())
	conv, err := c.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", conv.ID)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := cache.NewMemoryStore(0)
	ctx := context.Background()

	orig := room("r1")
	require.NoError(t, s.Save(ctx, orig))
	orig.Members[0].ID = "mutated"

	got, err := s.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.Members[0].ID)

	got.Members[1].ID = "mutated"
	again, _ := s.Get(ctx, "r1")
	assert.Equal(t, "u2", again.Members[1].ID)

	missing, err := s.Get(ctx, "nope")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNewStore(t *testing.T) {
	s, err := cache.NewStore(config.CacheConfig{Backend: "memory", TTL: time.Minute}, config.RedisConfig{})
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryStore{}, s)

	_, err = cache.NewStore(config.CacheConfig{Backend: "etcd"}, config.RedisConfig{})
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		t.Skip("REDIS_ADDRESS not set")
	}

	s, err := cache.NewRedisStore(config.RedisConfig{Address: addr, KeyPrefix: "test:chat:conversation:"}, time.Minute)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Save(ctx, room("r-redis")))

	got, err := s.Get(ctx, "r-redis")
	require.NoError(t, err)
	assert.Equal(t, room("r-redis"), got)

	require.NoError(t, s.Delete(ctx, "r-redis"))
	got, err = s.Get(ctx, "r-redis")
	require.NoError(t, err)
	assert.Nil(t, got)
}
