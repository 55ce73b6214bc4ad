package domain

import "encoding/json"

// Realtime events sent by the client.
const (
	EventJoinRoom   = "join_room"
	EventLeaveRoom  = "leave_room"
	EventMarkSeen   = "mark_seen"
	EventUserOnline = "user_online"
)

// Realtime events sent by the backend.
const (
	EventNewMessage      = "new_message"
	EventReactionUpdated = "reaction_updated"
	EventUserTyping      = "user_typing"
	EventUserStopTyping  = "user_stop_typing"
	EventSeenBulk        = "message_seen_update_bulk"
	EventUserStatus      = "user_status_update"
)

// Presence values carried by user_status_update.
const (
	PresenceOnline  = "online"
	PresenceOffline = "offline"
)

// Envelope is the frame carried over the realtime channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into a frame for event.
func NewEnvelope(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}

// Client -> Server payloads

type JoinRoomPayload struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	FriendID string `json:"friendId"`
	IsGroup  bool   `json:"isGroup"`
}

type LeaveRoomPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type MarkSeenPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type UserOnlinePayload struct {
	UserID string `json:"userId"`
}

// Server -> Client payloads

type ReactionUpdatedPayload struct {
	MessageID string     `json:"messageId"`
	Reactions []Reaction `json:"reactions"`
}

type TypingPayload struct {
	UserID string `json:"userId"`
}

type SeenBulkPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type UserStatusPayload struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}
