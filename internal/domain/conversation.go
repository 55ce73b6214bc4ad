package domain

// ConversationType distinguishes two-party rooms from named groups.
type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

// Conversation is a chat room as the backend describes it. Membership and
// metadata are server-owned; the client only caches them.
type Conversation struct {
	ID         string           `json:"_id"`
	Type       ConversationType `json:"type"`
	Name       string           `json:"name,omitempty"`
	GroupPhoto string           `json:"groupPhoto,omitempty"`
	Members    []UserRef        `json:"members"`
}

// IsGroup reports whether the room is a group room.
func (c *Conversation) IsGroup() bool {
	return c != nil && c.Type == ConversationGroup
}

// Counterpart returns the other member of a direct room, or "" for groups
// and rooms whose membership does not include selfID.
func (c *Conversation) Counterpart(selfID string) string {
	if c == nil || c.IsGroup() {
		return ""
	}
	for _, m := range c.Members {
		if m.ID != selfID {
			return m.ID
		}
	}
	return ""
}
