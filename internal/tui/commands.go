package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aannaassalam/coachiatry-sub001/internal/domain"
	"github.com/aannaassalam/coachiatry-sub001/internal/realtime"
	"github.com/aannaassalam/coachiatry-sub001/internal/upload"
)

// --- Messages ---

type roomReadyMsg struct {
	conv *domain.Conversation
	err  error
}

type newMessageMsg struct {
	msg domain.Message
}

type reactionMsg struct {
	update domain.ReactionUpdatedPayload
}

type typingMsg struct {
	userIDs []string
}

type seenMsg struct {
	seen domain.SeenBulkPayload
}

type presenceMsg struct {
	online bool
}

type channelStateMsg struct {
	state realtime.State
}

type sentMsg struct {
	tempID string
	msg    *domain.Message
	err    error
}

type uploadProgressMsg struct {
	tempID  string
	overall float64
}

type uploadDoneMsg struct {
	tempID      string
	attachments []domain.Attachment
}

type errMsg struct {
	err error
}

// --- Commands ---

// waitForEvent delivers the next event pushed by a channel callback.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func openRoom(ctx context.Context, convs ConversationSource, chatID string) tea.Cmd {
	return func() tea.Msg {
		conv, err := convs.Get(ctx, chatID)
		return roomReadyMsg{conv: conv, err: err}
	}
}

func sendMessage(ctx context.Context, sender MessageSender, pending domain.Message) tea.Cmd {
	return func() tea.Msg {
		msg, err := sender.SendMessage(ctx, domain.NewSendMessageRequest(pending))
		return sentMsg{tempID: pending.TempID, msg: msg, err: err}
	}
}

func runUpload(ctx context.Context, o *upload.Orchestrator, tempID, chatID string, files []upload.File, push func(tea.Msg)) tea.Cmd {
	return func() tea.Msg {
		attachments := o.Run(ctx, tempID, chatID, files, upload.Callbacks{
			OnProgress: func(overall float64, _ []float64) {
				push(uploadProgressMsg{tempID: tempID, overall: overall})
			},
		})
		return uploadDoneMsg{tempID: tempID, attachments: attachments}
	}
}
