package realtime

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/aannaassalam/coachiatry-sub001/internal/identity"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

// Manager owns the channel of the current identity. At most one channel is
// open at any time.
type Manager struct {
	cfg    Config
	opts   []Option
	logger zerolog.Logger

	mu      sync.Mutex
	channel *Channel
}

// NewManager creates a manager with no identity and no channel. cfg.Token
// is ignored; every channel dials with the token of its own identity.
func NewManager(cfg Config, logger zerolog.Logger, opts ...Option) *Manager {
	return &Manager{
		cfg:    cfg,
		opts:   append([]Option{WithLogger(logger)}, opts...),
		logger: logger,
	}
}

// SetIdentity opens the channel for id. The same user and token keep the
// current channel, anything else replaces it, and the anonymous identity
// only tears down. It returns the channel now in use, or nil.
func (m *Manager) SetIdentity(id identity.Identity) *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.channel != nil && m.channel.UserID() == id.UserID && m.channel.cfg.Token == id.Token {
		return m.channel
	}

	if m.channel != nil {
		m.logger.Info().Str(pkglog.FieldUserID, m.channel.UserID()).Msg("closing realtime channel")
		m.channel.Close()
		m.channel = nil
	}

	if id.Anonymous() {
		return nil
	}

	cfg := m.cfg
	cfg.Token = id.Token
	m.logger.Info().Str(pkglog.FieldUserID, id.UserID).Msg("opening realtime channel")
	m.channel = Open(cfg, id.UserID, m.opts...)
	return m.channel
}

// Channel returns the current channel, or nil without an identity.
func (m *Manager) Channel() *Channel {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.channel
}

// State reports the current channel state; disconnected without one.
func (m *Manager) State() (State, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.channel == nil {
		return StateDisconnected, ""
	}
	return m.channel.State(), m.channel.UserID()
}

// Close closes the channel and forgets it.
func (m *Manager) Close() {
	m.SetIdentity(identity.Identity{})
}
