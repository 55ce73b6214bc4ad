package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
	"github.com/aannaassalam/coachiatry-sub001/internal/identity"
	"github.com/aannaassalam/coachiatry-sub001/internal/realtime"
	"github.com/aannaassalam/coachiatry-sub001/internal/reconcile"
	"github.com/aannaassalam/coachiatry-sub001/internal/room"
	"github.com/aannaassalam/coachiatry-sub001/internal/scroll"
	"github.com/aannaassalam/coachiatry-sub001/internal/upload"
	pkglog "github.com/aannaassalam/coachiatry-sub001/pkg/log"
)

// ConversationSource resolves a room id to its conversation.
type ConversationSource interface {
	Get(ctx context.Context, chatID string) (*domain.Conversation, error)
}

// MessageSender persists an outgoing message.
type MessageSender interface {
	SendMessage(ctx context.Context, req domain.SendMessageRequest) (*domain.Message, error)
}

// ChannelSource hands out the realtime channel of the current identity.
type ChannelSource interface {
	Channel() *realtime.Channel
}

// Options configure the terminal front end.
type Options struct {
	Identity      identity.Identity
	ChatID        string
	Channels      ChannelSource
	Binder        *room.Binder
	Conversations ConversationSource
	Sender        MessageSender
	Orchestrator  *upload.Orchestrator
	Logger        zerolog.Logger
}

// Run starts the UI and blocks until the user quits.
func Run(opts Options) error {
	m := NewModel(opts)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

type activeUpload struct {
	tempID  string
	overall float64
	closers []io.Closer
}

// Model is the bubbletea model of one open conversation.
type Model struct {
	opts   Options
	selfID string
	logger zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	events chan tea.Msg

	viewport viewport.Model
	input    textinput.Model
	scroller *scroll.Controller
	keys     *reconcile.KeyStore

	conv              *domain.Conversation
	binding           *room.Binding
	releaseState      func()
	messages          []domain.Message
	positions         map[string]int // stable key -> index in messages
	typing            []string
	counterpartOnline bool
	channelState      realtime.State
	upload            *activeUpload
	status            string

	width  int
	height int
}

// NewModel creates the model. The room opens on Init.
func NewModel(opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	input := textinput.New()
	input.Placeholder = "Type a message, /upload <path>... or /cancel"
	input.CharLimit = 4000
	input.Focus()

	m := &Model{
		opts:         opts,
		selfID:       opts.Identity.UserID,
		logger:       opts.Logger,
		ctx:          ctx,
		cancel:       cancel,
		events:       make(chan tea.Msg, 64),
		viewport:     viewport.New(80, 20),
		input:        input,
		keys:         reconcile.NewKeyStore(),
		positions:    make(map[string]int),
		channelState: realtime.StateDisconnected,
	}
	m.scroller = scroll.New(viewportAnchor{vp: &m.viewport})
	m.scroller.SetRoom(opts.ChatID)
	return m
}

// Close releases the room binding and aborts pending work. Pending pushes
// are dropped first so no channel callback stays blocked on the UI.
func (m *Model) Close() {
	m.cancel()
	if m.releaseState != nil {
		m.releaseState()
	}
	if m.opts.Binder != nil {
		m.opts.Binder.Release()
	}
	if m.upload != nil && m.opts.Orchestrator != nil {
		m.opts.Orchestrator.Registry().Cancel(m.upload.tempID)
	}
}

// push hands an event from a background goroutine to the UI loop.
func (m *Model) push(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.ctx.Done():
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		openRoom(m.ctx, m.opts.Conversations, m.opts.ChatID),
		waitForEvent(m.events),
	)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			value := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if value == "" {
				return m, nil
			}
			return m, m.handleInput(value)
		case tea.KeyPgUp, tea.KeyPgDown, tea.KeyHome, tea.KeyEnd, tea.KeyUp, tea.KeyDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			m.scroller.Sync()
			return m, cmd
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		m.scroller.Sync()
		return m, cmd

	case roomReadyMsg:
		if msg.err != nil {
			m.status = "failed to open room: " + msg.err.Error()
			return m, nil
		}
		m.bindRoom(msg.conv)
		return m, nil

	case newMessageMsg:
		m.upsert(msg.msg)
		return m, waitForEvent(m.events)

	case reactionMsg:
		m.applyReactions(msg.update)
		return m, waitForEvent(m.events)

	case typingMsg:
		m.typing = msg.userIDs
		return m, waitForEvent(m.events)

	case seenMsg:
		if msg.seen.UserID != m.selfID {
			m.markSeen()
		}
		return m, waitForEvent(m.events)

	case presenceMsg:
		m.counterpartOnline = msg.online
		return m, waitForEvent(m.events)

	case channelStateMsg:
		m.channelState = msg.state
		return m, waitForEvent(m.events)

	case uploadProgressMsg:
		if m.upload != nil && m.upload.tempID == msg.tempID {
			m.upload.overall = msg.overall
		}
		return m, waitForEvent(m.events)

	case uploadDoneMsg:
		return m, m.finishUpload(msg)

	case sentMsg:
		m.confirm(msg)
		return m, nil

	case errMsg:
		m.status = msg.err.Error()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) bindRoom(conv *domain.Conversation) {
	m.conv = conv

	if m.opts.Channels == nil || m.opts.Binder == nil {
		m.status = "realtime unavailable"
		return
	}
	ch := m.opts.Channels.Channel()
	if ch == nil {
		m.status = "signed out: realtime disabled"
		return
	}

	m.channelState = ch.State()
	if m.releaseState != nil {
		m.releaseState()
	}
	m.releaseState = ch.OnStateChange(func(s realtime.State) { m.push(channelStateMsg{state: s}) })

	binding, err := m.opts.Binder.Bind(ch, room.Options{
		ChatID:       m.opts.ChatID,
		SelfID:       m.selfID,
		Conversation: conv,
		Callbacks: room.Callbacks{
			OnNewMessage:        func(msg domain.Message) { m.push(newMessageMsg{msg: msg}) },
			OnReactionUpdated:   func(u domain.ReactionUpdatedPayload) { m.push(reactionMsg{update: u}) },
			OnTyping:            func(ids []string) { m.push(typingMsg{userIDs: ids}) },
			OnSeenBulk:          func(s domain.SeenBulkPayload) { m.push(seenMsg{seen: s}) },
			OnCounterpartStatus: func(online bool) { m.push(presenceMsg{online: online}) },
		},
	})
	if err != nil {
		m.status = "failed to join room: " + err.Error()
		return
	}
	m.binding = binding
}

func (m *Model) handleInput(value string) tea.Cmd {
	switch {
	case value == "/quit":
		return tea.Quit
	case value == "/cancel":
		m.cancelUpload()
		return nil
	case strings.HasPrefix(value, "/upload"):
		return m.startUpload(strings.Fields(strings.TrimPrefix(value, "/upload")))
	}

	pending := domain.NewPendingMessage(m.opts.ChatID, m.selfID, value)
	m.upsert(pending)
	m.scroller.ScrollToBottom(true)
	return sendMessage(m.ctx, m.opts.Sender, pending)
}

func (m *Model) startUpload(paths []string) tea.Cmd {
	if len(paths) == 0 {
		m.status = "usage: /upload <path>..."
		return nil
	}
	if m.upload != nil {
		m.status = "an upload is already running; /cancel it first"
		return nil
	}

	files := make([]upload.File, 0, len(paths))
	closers := make([]io.Closer, 0, len(paths))
	for _, p := range paths {
		f, closer, err := upload.OpenFile(p)
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			m.status = err.Error()
			return nil
		}
		files = append(files, f)
		closers = append(closers, closer)
	}

	pending := domain.NewPendingMessage(m.opts.ChatID, m.selfID, "")
	pending.Type = domain.MessageType(domain.AttachmentType(files[0].Type))
	m.upload = &activeUpload{tempID: pending.TempID, closers: closers}
	m.upsert(pending)
	m.scroller.ScrollToBottom(true)

	return runUpload(m.ctx, m.opts.Orchestrator, pending.TempID, m.opts.ChatID, files, m.push)
}

func (m *Model) cancelUpload() {
	if m.upload == nil {
		m.status = "no upload to cancel"
		return
	}
	m.opts.Orchestrator.Registry().Cancel(m.upload.tempID)
	m.status = "upload canceled"
}

func (m *Model) finishUpload(done uploadDoneMsg) tea.Cmd {
	if m.upload == nil || m.upload.tempID != done.tempID {
		return nil
	}
	for _, c := range m.upload.closers {
		c.Close()
	}
	m.upload = nil

	idx, ok := m.position(done.tempID)
	if !ok {
		return nil
	}
	if len(done.attachments) == 0 {
		m.messages[idx].Advance(domain.StatusFailed)
		m.render()
		return nil
	}

	m.messages[idx].Files = done.attachments
	m.render()
	return sendMessage(m.ctx, m.opts.Sender, m.messages[idx])
}

func (m *Model) confirm(sent sentMsg) {
	if sent.err != nil {
		m.logger.Warn().Err(sent.err).Str(pkglog.FieldTempID, sent.tempID).Msg("failed to send message")
		if idx, ok := m.position(sent.tempID); ok {
			m.messages[idx].Advance(domain.StatusFailed)
			m.render()
		}
		return
	}
	if sent.msg.TempID == "" {
		sent.msg.TempID = sent.tempID
	}
	m.upsert(*sent.msg)
}

// upsert inserts msg or replaces the entry sharing its stable key. Status
// only moves forward.
func (m *Model) upsert(msg domain.Message) {
	key := m.keys.Key(msg)
	if idx, ok := m.positions[key]; ok {
		cur := m.messages[idx]
		status := cur.Status
		if msg.Status != "" {
			cur.Advance(msg.Status)
			status = cur.Status
		}
		msg.Status = status
		m.messages[idx] = msg
	} else {
		if msg.Status == "" {
			msg.Status = domain.StatusSent
		}
		m.positions[key] = len(m.messages)
		m.messages = append(m.messages, msg)
	}
	m.render()
}

// position finds the entry for a temp or permanent id.
func (m *Model) position(id string) (int, bool) {
	key, ok := m.keys.Lookup(id)
	if !ok {
		return 0, false
	}
	idx, ok := m.positions[key]
	return idx, ok
}

func (m *Model) applyReactions(u domain.ReactionUpdatedPayload) {
	idx, ok := m.position(u.MessageID)
	if !ok {
		return
	}
	m.messages[idx].Reactions = u.Reactions
	m.render()
}

// markSeen advances this user's messages once the counterpart read them.
func (m *Model) markSeen() {
	for i := range m.messages {
		if m.messages[i].Sender.ID == m.selfID && m.messages[i].ID != "" {
			m.messages[i].Advance(domain.StatusSeen)
		}
	}
	m.render()
}

func (m *Model) render() {
	m.viewport.SetContent(m.renderMessages())
	m.scroller.Observe(len(m.messages))
}

func (m *Model) resize() {
	header := lipgloss.Height(m.headerView())
	footer := lipgloss.Height(m.footerView())
	h := m.height - header - footer
	if h < 3 {
		h = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = h
	m.input.Width = m.width - 4
	m.viewport.SetContent(m.renderMessages())
}

func (m *Model) View() string {
	return fmt.Sprintf("%s\n%s\n%s", m.headerView(), m.viewport.View(), m.footerView())
}
