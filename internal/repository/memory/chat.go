package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

// CloneConversation deep-copies the member lists and per-member maps.
func CloneConversation(c domain.Conversation) *domain.Conversation {
	c.Members = slices.Clone(c.Members)
	c.Admins = slices.Clone(c.Admins)
	c.Muted = maps.Clone(c.Muted)
	c.Nicknames = maps.Clone(c.Nicknames)
	c.Typing = maps.Clone(c.Typing)
	c.EnsureMaps()
	return &c
}

func CloneMessage(m domain.Message) *domain.Message {
	m.Attachments = slices.Clone(m.Attachments)
	m.Reactions = slices.Clone(m.Reactions)
	m.SeenBy = slices.Clone(m.SeenBy)
	return &m
}

type ConversationRepo struct{ db *DB }

func NewConversationRepo(db *DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func (r *ConversationRepo) Create(_ context.Context, conv *domain.Conversation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Conversations[conv.ID] = *CloneConversation(*conv)
	return nil
}

func (r *ConversationRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.Conversations[id]
	if !ok {
		return nil, nil
	}
	return CloneConversation(c), nil
}

func (r *ConversationRepo) find(match func(domain.Conversation) bool) *domain.Conversation {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.Conversations {
		if match(c) {
			return CloneConversation(c)
		}
	}
	return nil
}

func (r *ConversationRepo) GetByInviteCode(_ context.Context, code string) (*domain.Conversation, error) {
	return r.find(func(c domain.Conversation) bool {
		return c.InviteCode != nil && *c.InviteCode == code
	}), nil
}

func (r *ConversationRepo) FindDirect(_ context.Context, a, b uuid.UUID) (*domain.Conversation, error) {
	return r.find(func(c domain.Conversation) bool {
		return !c.IsGroup && c.State != domain.StateRejected && len(c.Members) == 2 && c.IsMember(a) && c.IsMember(b)
	}), nil
}

// sorted orders by last message (conversations without one last), then by update time.
func (r *ConversationRepo) sorted(match func(domain.Conversation) bool) []domain.Conversation {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []domain.Conversation
	for _, c := range r.db.Conversations {
		if match(c) {
			out = append(out, *CloneConversation(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].LastMessageAt, out[j].LastMessageAt
		switch {
		case li != nil && lj != nil && !li.Equal(*lj):
			return li.After(*lj)
		case li != nil && lj == nil:
			return true
		case li == nil && lj != nil:
			return false
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (r *ConversationRepo) ListByMember(_ context.Context, userID uuid.UUID, states []string, page repository.Page) ([]domain.Conversation, error) {
	return pageOf(r.sorted(func(c domain.Conversation) bool {
		return c.IsMember(userID) && slices.Contains(states, c.State)
	}), page), nil
}

func (r *ConversationRepo) ListRequests(_ context.Context, userID uuid.UUID, page repository.Page) ([]domain.Conversation, error) {
	return pageOf(r.sorted(func(c domain.Conversation) bool {
		return c.State == domain.StatePending && c.PendingFor != nil && *c.PendingFor == userID && c.IsMember(userID)
	}), page), nil
}

func (r *ConversationRepo) Update(_ context.Context, conv *domain.Conversation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Conversations[conv.ID] = *CloneConversation(*conv)
	return nil
}

func (r *ConversationRepo) TouchLastMessage(_ context.Context, id uuid.UUID, at time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.Conversations[id]
	if !ok {
		return nil
	}
	c.LastMessageAt = &at
	r.db.Conversations[id] = c
	return nil
}

func (r *ConversationRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.Conversations, id)
	r.db.Messages = slices.DeleteFunc(r.db.Messages, func(m domain.Message) bool { return m.ConversationID == id })
	return nil
}

type MessageRepo struct{ db *DB }

func NewMessageRepo(db *DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(_ context.Context, msg *domain.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.Messages = append(r.db.Messages, *CloneMessage(*msg))
	return nil
}

func (r *MessageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range r.db.Messages {
		if m.ID == id {
			out := CloneMessage(m)
			out.SenderUsername = r.db.Users[m.SenderID].Username
			return out, nil
		}
	}
	return nil, nil
}

func (r *MessageRepo) GetLatest(_ context.Context, convID uuid.UUID) (*domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, m := range newestFirst(r.db.Messages) {
		if m.ConversationID == convID {
			return CloneMessage(m), nil
		}
	}
	return nil, nil
}

func (r *MessageRepo) ListByConversation(_ context.Context, convID uuid.UUID, page repository.Page) ([]domain.Message, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var desc []domain.Message
	for _, m := range newestFirst(r.db.Messages) {
		if m.ConversationID == convID {
			msg := CloneMessage(m)
			msg.SenderUsername = r.db.Users[m.SenderID].Username
			desc = append(desc, *msg)
		}
	}
	out := pageOf(desc, page)
	slices.Reverse(out)
	return out, nil
}

func (r *MessageRepo) Update(_ context.Context, msg *domain.Message) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for i := range r.db.Messages {
		if r.db.Messages[i].ID == msg.ID {
			r.db.Messages[i] = *CloneMessage(*msg)
		}
	}
	return nil
}
