package room

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
	"github.com/aannaassalam/coachiatry-sub001/internal/realtime"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

// Channel is the part of the realtime channel a binding uses. Bindings
// never open or close it.
type Channel interface {
	Emit(event string, payload interface{}) error
	On(event string, handler realtime.Handler) func()
}

// Callbacks receive room events. Any of them may be nil. They run on the
// channel's read goroutine.
type Callbacks struct {
	OnNewMessage        func(msg domain.Message)
	OnReactionUpdated   func(update domain.ReactionUpdatedPayload)
	OnTyping            func(userIDs []string)
	OnSeenBulk          func(seen domain.SeenBulkPayload)
	OnCounterpartStatus func(online bool)
}

// Options describe the room to bind.
type Options struct {
	ChatID string
	SelfID string
	// Conversation is optional; it decides group vs direct and supplies
	// the counterpart when FriendID is empty.
	Conversation *domain.Conversation
	FriendID     string
	Callbacks
}

// Binding is one joined room. Release it before binding another.
type Binding struct {
	chatID   string
	selfID   string
	friendID string
	isGroup  bool
	cb       Callbacks
	channel  Channel
	logger   zerolog.Logger

	mu                sync.RWMutex
	typing            map[string]struct{}
	counterpartOnline bool
	released          bool
	releases          []func()
}

// Bind subscribes to room events on ch and joins the room.
func Bind(ch Channel, opts Options, logger zerolog.Logger) (*Binding, error) {
	if opts.ChatID == "" {
		return nil, fmt.Errorf("chat id is required")
	}

	friendID := opts.FriendID
	if friendID == "" {
		friendID = opts.Conversation.Counterpart(opts.SelfID)
	}

	b := &Binding{
		chatID:   opts.ChatID,
		selfID:   opts.SelfID,
		friendID: friendID,
		isGroup:  opts.Conversation.IsGroup(),
		cb:       opts.Callbacks,
		channel:  ch,
		logger:   logger.With().Str(pkglog.FieldChat, opts.ChatID).Logger(),
		typing:   make(map[string]struct{}),
	}

	b.releases = append(b.releases,
		ch.On(domain.EventNewMessage, b.handleNewMessage),
		ch.On(domain.EventReactionUpdated, b.handleReactionUpdated),
		ch.On(domain.EventUserTyping, b.handleTyping),
		ch.On(domain.EventUserStopTyping, b.handleStopTyping),
		ch.On(domain.EventSeenBulk, b.handleSeenBulk),
	)
	if !b.isGroup {
		b.releases = append(b.releases, ch.On(domain.EventUserStatus, b.handleUserStatus))
	}

	join := domain.JoinRoomPayload{
		ChatID:   b.chatID,
		UserID:   b.selfID,
		FriendID: b.friendID,
		IsGroup:  b.isGroup,
	}
	if err := ch.Emit(domain.EventJoinRoom, join); err != nil {
		b.unsubscribe()
		return nil, fmt.Errorf("failed to join room: %w", err)
	}
	if err := ch.Emit(domain.EventMarkSeen, domain.MarkSeenPayload{ChatID: b.chatID, UserID: b.selfID}); err != nil {
		b.logger.Warn().Err(err).Msg("failed to mark room seen")
	}

	b.logger.Info().Bool("group", b.isGroup).Msg("room bound")
	return b, nil
}

// ChatID returns the bound room id.
func (b *Binding) ChatID() string {
	return b.chatID
}

// IsGroup reports whether the bound room is a group room.
func (b *Binding) IsGroup() bool {
	return b.isGroup
}

// TypingUsers returns the users currently typing, sorted.
func (b *Binding) TypingUsers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.typingSnapshot()
}

// CounterpartOnline reports the counterpart's presence. ok is false for
// group rooms.
func (b *Binding) CounterpartOnline() (online bool, ok bool) {
	if b.isGroup {
		return false, false
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.counterpartOnline, true
}

// Release leaves the room and removes every listener. Later calls are
// no-ops.
func (b *Binding) Release() {
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	b.released = true
	b.mu.Unlock()

	if err := b.channel.Emit(domain.EventLeaveRoom, domain.LeaveRoomPayload{ChatID: b.chatID, UserID: b.selfID}); err != nil {
		b.logger.Debug().Err(err).Msg("failed to leave room")
	}
	b.unsubscribe()
	b.logger.Info().Msg("room released")
}

func (b *Binding) unsubscribe() {
	b.mu.Lock()
	b.released = true
	releases := b.releases
	b.releases = nil
	b.mu.Unlock()

	for _, release := range releases {
		release()
	}
}

func (b *Binding) active() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return !b.released
}

func (b *Binding) handleNewMessage(data json.RawMessage) {
	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		b.logger.Debug().Err(err).Msg("dropping malformed message")
		return
	}
	if msg.Chat != b.chatID || !b.active() {
		b.logger.Debug().Str("event_chat", msg.Chat).Msg("dropping message for another room")
		return
	}
	if b.cb.OnNewMessage != nil {
		b.cb.OnNewMessage(msg)
	}
}

func (b *Binding) handleReactionUpdated(data json.RawMessage) {
	var p domain.ReactionUpdatedPayload
	if err := json.Unmarshal(data, &p); err != nil || !b.active() {
		return
	}
	if b.cb.OnReactionUpdated != nil {
		b.cb.OnReactionUpdated(p)
	}
}

func (b *Binding) handleTyping(data json.RawMessage) {
	var p domain.TypingPayload
	if err := json.Unmarshal(data, &p); err != nil || p.UserID == "" || p.UserID == b.selfID {
		return
	}

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	if _, ok := b.typing[p.UserID]; ok {
		b.mu.Unlock()
		return
	}
	b.typing[p.UserID] = struct{}{}
	snapshot := b.typingSnapshot()
	b.mu.Unlock()

	if b.cb.OnTyping != nil {
		b.cb.OnTyping(snapshot)
	}
}

func (b *Binding) handleStopTyping(data json.RawMessage) {
	var p domain.TypingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}

	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	if _, ok := b.typing[p.UserID]; !ok {
		b.mu.Unlock()
		return
	}
	delete(b.typing, p.UserID)
	snapshot := b.typingSnapshot()
	b.mu.Unlock()

	if b.cb.OnTyping != nil {
		b.cb.OnTyping(snapshot)
	}
}

func (b *Binding) handleSeenBulk(data json.RawMessage) {
	var p domain.SeenBulkPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if p.ChatID != b.chatID || !b.active() {
		b.logger.Debug().Str("event_chat", p.ChatID).Msg("dropping seen update for another room")
		return
	}
	if b.cb.OnSeenBulk != nil {
		b.cb.OnSeenBulk(p)
	}
}

func (b *Binding) handleUserStatus(data json.RawMessage) {
	var p domain.UserStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return
	}
	if p.UserID == "" || p.UserID != b.friendID {
		return
	}

	online := p.Status == domain.PresenceOnline
	b.mu.Lock()
	if b.released {
		b.mu.Unlock()
		return
	}
	b.counterpartOnline = online
	b.mu.Unlock()

	if b.cb.OnCounterpartStatus != nil {
		b.cb.OnCounterpartStatus(online)
	}
}

// typingSnapshot must be called with mu held.
func (b *Binding) typingSnapshot() []string {
	ids := make([]string, 0, len(b.typing))
	for id := range b.typing {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
