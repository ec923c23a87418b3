package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Reaction is one (user, type) pair. Posts and messages share it.
type Reaction struct {
	UserID uuid.UUID `json:"user_id"`
	Type   string    `json:"type"`
}

// ToggleReaction removes the user's reaction of the given type if present, otherwise appends it.
// Reactions of other types from the same user are left alone.
func ToggleReaction(reactions []Reaction, userID uuid.UUID, reactionType string) []Reaction {
	idx := slices.IndexFunc(reactions, func(r Reaction) bool {
		return r.UserID == userID && r.Type == reactionType
	})
	if idx >= 0 {
		return slices.Delete(slices.Clone(reactions), idx, idx+1)
	}
	return append(slices.Clone(reactions), Reaction{UserID: userID, Type: reactionType})
}

type Message struct {
	ID             uuid.UUID   `json:"id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	SenderID       uuid.UUID   `json:"sender_id"`
	Text           string      `json:"text"`
	Attachments    []string    `json:"attachments"`
	ReplyTo        *uuid.UUID  `json:"reply_to,omitempty"`
	Reactions      []Reaction  `json:"reactions"`
	SeenBy         []uuid.UUID `json:"seen_by"`
	IsDeleted      bool        `json:"is_deleted"`
	EditedAt       *time.Time  `json:"edited_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	// Joined fields
	SenderUsername string `json:"sender_username,omitempty"`
}

// MarkDeleted clears the content but keeps the record so replies and pins still resolve.
func (m *Message) MarkDeleted() {
	m.IsDeleted = true
	m.Text = ""
	m.Attachments = []string{}
}

// MarkSeen reports whether the user was newly added.
func (m *Message) MarkSeen(userID uuid.UUID) bool {
	if slices.Contains(m.SeenBy, userID) {
		return false
	}
	m.SeenBy = append(m.SeenBy, userID)
	return true
}
