package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

// Errors
var (
	ErrClosed         = errors.New("realtime channel closed")
	ErrSendBufferFull = errors.New("realtime send buffer full")
)

// State is the lifecycle state of a Channel.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
)

// Handler receives the data of one inbound event.
type Handler func(data json.RawMessage)

// Dialer opens websocket connections. *websocket.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, urlStr string, requestHeader http.Header) (*websocket.Conn, *http.Response, error)
}

// Config holds channel settings.
type Config struct {
	URL               string
	Token             string
	PingInterval      time.Duration
	PongWait          time.Duration
	WriteWait         time.Duration
	MaxMessageSize    int64
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	SendBuffer        int
}

func (c *Config) setDefaults() {
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 1 << 20
	}
	if c.ReconnectAttempts < 0 {
		c.ReconnectAttempts = 0
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
}

// Option configures a Channel.
type Option func(*options)

type options struct {
	dialer Dialer
	logger zerolog.Logger
}

// WithDialer replaces websocket.DefaultDialer.
func WithDialer(d Dialer) Option {
	return func(o *options) { o.dialer = d }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Channel is the single realtime connection of one identity. It reconnects
// on its own; handlers and queued frames survive reconnects.
type Channel struct {
	cfg    Config
	userID string
	dialer Dialer
	logger zerolog.Logger

	mu             sync.RWMutex
	state          State
	handlers       map[string]map[uint64]Handler
	stateListeners map[uint64]func(State)
	nextID         uint64

	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Open creates a channel for userID and starts connecting in the
// background.
func Open(cfg Config, userID string, opts ...Option) *Channel {
	cfg.setDefaults()
	o := options{dialer: websocket.DefaultDialer, logger: pkglog.L()}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		cfg:            cfg,
		userID:         userID,
		dialer:         o.dialer,
		logger:         o.logger.With().Str(pkglog.FieldUserID, userID).Logger(),
		state:          StateConnecting,
		handlers:       make(map[string]map[uint64]Handler),
		stateListeners: make(map[uint64]func(State)),
		send:           make(chan []byte, cfg.SendBuffer),
		ctx:            ctx,
		cancel:         cancel,
		done:           make(chan struct{}),
	}
	go c.run()
	return c
}

// UserID returns the identity this channel announces.
func (c *Channel) UserID() string {
	return c.userID
}

// State returns the current lifecycle state.
func (c *Channel) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Emit queues event for delivery. Frames queued while the channel is not
// connected are written after the next presence announcement.
func (c *Channel) Emit(event string, payload interface{}) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	frame, err := domain.NewEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", event, err)
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// On registers handler for event and returns a func that removes it.
// The release func may be called more than once.
func (c *Channel) On(event string, handler Handler) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	if c.handlers[event] == nil {
		c.handlers[event] = make(map[uint64]Handler)
	}
	c.handlers[event][id] = handler
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.handlers[event], id)
			if len(c.handlers[event]) == 0 {
				delete(c.handlers, event)
			}
		})
	}
}

// OnStateChange registers fn for state transitions and returns a func that
// removes it.
func (c *Channel) OnStateChange(fn func(State)) func() {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.stateListeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			delete(c.stateListeners, id)
		})
	}
}

// Close tears the connection down and stops reconnecting. It blocks until
// the background loop has exited.
func (c *Channel) Close() {
	c.cancel()
	<-c.done
}

// Done is closed once the channel has stopped for good.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	listeners := make([]func(State), 0, len(c.stateListeners))
	for _, fn := range c.stateListeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	c.logger.Info().Str(pkglog.FieldState, string(s)).Msg("realtime channel state changed")
	for _, fn := range listeners {
		fn(s)
	}
}

func (c *Channel) run() {
	defer close(c.done)
	defer c.setState(StateDisconnected)

	failures := 0
	for {
		conn, err := c.dial()
		if err != nil {
			if c.ctx.Err() != nil {
				return
			}
			failures++
			if failures > c.cfg.ReconnectAttempts {
				c.logger.Warn().Err(err).Int("attempts", failures).Msg("realtime reconnect attempts exhausted")
				return
			}
			c.logger.Warn().Err(err).Int("attempt", failures).Msg("realtime dial failed")
			c.setState(StateReconnecting)
			if !c.sleep(c.cfg.ReconnectDelay) {
				return
			}
			continue
		}

		failures = 0
		c.serve(conn)
		if c.ctx.Err() != nil {
			return
		}

		c.setState(StateReconnecting)
		if !c.sleep(c.cfg.ReconnectDelay) {
			return
		}
	}
}

func (c *Channel) dial() (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket url: %w", err)
	}
	q := u.Query()
	q.Set("userId", c.userID)
	u.RawQuery = q.Encode()

	header := http.Header{}
	if c.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	conn, _, err := c.dialer.DialContext(c.ctx, u.String(), header)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (c *Channel) sleep(d time.Duration) bool {
	if d <= 0 {
		return c.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// serve runs one connection until it drops or the channel is closed.
func (c *Channel) serve(conn *websocket.Conn) {
	defer conn.Close()

	if err := c.announce(conn); err != nil {
		c.logger.Warn().Err(err).Msg("failed to announce presence")
		return
	}
	c.setState(StateConnected)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump(conn, stop)
	}()

	c.readPump(conn)
	close(stop)
	conn.Close()
	wg.Wait()
}

// announce writes user_online ahead of anything queued.
func (c *Channel) announce(conn *websocket.Conn) error {
	frame, err := domain.NewEnvelope(domain.EventUserOnline, domain.UserOnlinePayload{UserID: c.userID})
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Channel) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(c.cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) && c.ctx.Err() == nil {
				c.logger.Warn().Err(err).Msg("realtime connection lost")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		c.dispatch(message)
	}
}

func (c *Channel) writePump(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return

		case <-c.ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			conn.Close()
			return

		case frame := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Warn().Err(err).Msg("failed to write frame")
				conn.Close()
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}
}

func (c *Channel) dispatch(message []byte) {
	var env domain.Envelope
	if err := json.Unmarshal(message, &env); err != nil {
		c.logger.Debug().Err(err).Msg("dropping malformed frame")
		return
	}

	c.mu.RLock()
	handlers := make([]Handler, 0, len(c.handlers[env.Event]))
	for _, h := range c.handlers[env.Event] {
		handlers = append(handlers, h)
	}
	c.mu.RUnlock()

	if len(handlers) == 0 {
		c.logger.Debug().Str(pkglog.FieldEvent, env.Event).Msg("no handler for event")
		return
	}
	for _, h := range handlers {
		h(env.Data)
	}
}
