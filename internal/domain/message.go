package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MessageType is the content kind of a chat entry.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageImage  MessageType = "image"
	MessageVideo  MessageType = "video"
	MessageFile   MessageType = "file"
	MessageSystem MessageType = "system"
)

// Status is the delivery status of a message.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusSeen      Status = "seen"
	StatusFailed    Status = "failed"
)

var statusRank = map[Status]int{
	StatusPending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusSeen:      3,
}

// UserRef references a user. The backend sends either a bare id or a
// populated user document, so both shapes decode into UserRef.
type UserRef struct {
	ID       string `json:"_id"`
	FullName string `json:"fullName,omitempty"`
	Photo    string `json:"photo,omitempty"`
}

// UnmarshalJSON accepts "id" or {"_id": "id", ...}.
func (u *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &u.ID)
	}
	type plain UserRef
	return json.Unmarshal(data, (*plain)(u))
}

// Attachment is one stored file attached to a message.
type Attachment struct {
	URL          string   `json:"url"`
	Type         string   `json:"type"`
	Size         int64    `json:"size"`
	ThumbnailURL *string  `json:"thumbnailUrl"`
	Duration     *float64 `json:"duration"`
}

// Reaction is one emoji reaction on a message.
type Reaction struct {
	Emoji     string    `json:"emoji"`
	User      UserRef   `json:"user"`
	ReactedAt time.Time `json:"reactedAt"`
}

// Message is one chat entry. A message created on this client starts with
// only TempID; the backend later assigns ID and echoes TempID back.
type Message struct {
	ID          string       `json:"_id,omitempty"`
	TempID      string       `json:"tempId,omitempty"`
	Chat        string       `json:"chat"`
	Sender      UserRef      `json:"sender"`
	Type        MessageType  `json:"type"`
	Content     string       `json:"content"`
	Files       []Attachment `json:"files"`
	Reactions   []Reaction   `json:"reactions"`
	ReplyTo     *Message     `json:"replyTo,omitempty"`
	ScheduledAt *time.Time   `json:"scheduledAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Status      Status       `json:"status"`
	DeletedAt   *time.Time   `json:"deletedAt,omitempty"`
}

// NewPendingMessage builds an optimistic text message owned by senderID.
func NewPendingMessage(chatID, senderID, content string) Message {
	now := time.Now()
	return Message{
		TempID:    uuid.New().String(),
		Chat:      chatID,
		Sender:    UserRef{ID: senderID},
		Type:      MessageText,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    StatusPending,
	}
}

// Advance moves the message to next if that is a forward transition.
// Failed is reachable from any state except seen; nothing leaves failed or
// moves backwards. It reports whether the status changed.
func (m *Message) Advance(next Status) bool {
	if m.Status == StatusFailed || m.Status == next {
		return false
	}
	if next == StatusFailed {
		if m.Status == StatusSeen {
			return false
		}
		m.Status = StatusFailed
		return true
	}

	cur, ok := statusRank[m.Status]
	if !ok {
		cur = -1
	}
	nr, ok := statusRank[next]
	if !ok || nr <= cur {
		return false
	}
	m.Status = next
	return true
}

// IsDeleted reports whether the message was soft-deleted.
func (m *Message) IsDeleted() bool {
	return m.DeletedAt != nil
}

// AttachmentType maps a MIME type to the attachment kind the backend stores.
func AttachmentType(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return string(MessageVideo)
	case strings.HasPrefix(mimeType, "image/"):
		return string(MessageImage)
	default:
		return string(MessageFile)
	}
}
