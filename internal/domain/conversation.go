package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	StateAccepted = "accepted"
	StatePending  = "pending"
	StateRejected = "rejected"
)

type Conversation struct {
	ID              uuid.UUID               `json:"id"`
	IsGroup         bool                    `json:"is_group"`
	Name            *string                 `json:"name,omitempty"`
	Members         []uuid.UUID             `json:"members"`
	Admins          []uuid.UUID             `json:"admins"`
	State           string                  `json:"state"`
	RequestedBy     *uuid.UUID              `json:"requested_by,omitempty"`
	PendingFor      *uuid.UUID              `json:"pending_for,omitempty"`
	CreatedBy       *uuid.UUID              `json:"created_by,omitempty"`
	InviteCode      *string                 `json:"invite_code,omitempty"`
	PinnedMessageID *uuid.UUID              `json:"pinned_message_id,omitempty"`
	LastMessageAt   *time.Time              `json:"last_message_at,omitempty"`
	Muted           map[uuid.UUID]bool      `json:"muted"`
	Nicknames       map[uuid.UUID]string    `json:"nicknames"`
	Typing          map[uuid.UUID]time.Time `json:"typing"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func (c *Conversation) IsMember(userID uuid.UUID) bool {
	return slices.Contains(c.Members, userID)
}

// IsOwner is only ever true for groups.
func (c *Conversation) IsOwner(userID uuid.UUID) bool {
	return c.IsGroup && c.CreatedBy != nil && *c.CreatedBy == userID
}

// IsAdmin includes the owner.
func (c *Conversation) IsAdmin(userID uuid.UUID) bool {
	return c.IsOwner(userID) || slices.Contains(c.Admins, userID)
}

// AddMember is a no-op for existing members.
func (c *Conversation) AddMember(userID uuid.UUID) {
	if !c.IsMember(userID) {
		c.Members = append(c.Members, userID)
	}
}

// RemoveMember drops the user from members, admins and the per-member maps.
func (c *Conversation) RemoveMember(userID uuid.UUID) {
	c.Members = slices.DeleteFunc(c.Members, func(id uuid.UUID) bool { return id == userID })
	c.Admins = slices.DeleteFunc(c.Admins, func(id uuid.UUID) bool { return id == userID })
	delete(c.Muted, userID)
	delete(c.Nicknames, userID)
	delete(c.Typing, userID)
}

func (c *Conversation) AddAdmin(userID uuid.UUID) {
	if !slices.Contains(c.Admins, userID) {
		c.Admins = append(c.Admins, userID)
	}
}

func (c *Conversation) RemoveAdmin(userID uuid.UUID) {
	c.Admins = slices.DeleteFunc(c.Admins, func(id uuid.UUID) bool { return id == userID })
}

// OtherMember returns the counterpart in a direct conversation.
func (c *Conversation) OtherMember(userID uuid.UUID) (uuid.UUID, bool) {
	for _, id := range c.Members {
		if id != userID {
			return id, true
		}
	}
	return uuid.Nil, false
}

// EnsureMaps lets callers write into the per-member maps after a scan.
func (c *Conversation) EnsureMaps() {
	if c.Muted == nil {
		c.Muted = map[uuid.UUID]bool{}
	}
	if c.Nicknames == nil {
		c.Nicknames = map[uuid.UUID]string{}
	}
	if c.Typing == nil {
		c.Typing = map[uuid.UUID]time.Time{}
	}
}
