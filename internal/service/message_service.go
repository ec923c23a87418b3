package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

var (
	ErrMessageNotFound   = errors.New("message not found")
	ErrNotMessageOwner   = errors.New("only the message sender can perform this action")
	ErrEmptyMessage      = errors.New("message needs text or attachments")
	ErrMessageDeleted    = errors.New("message has been deleted")
	ErrReplyTargetAbsent = errors.New("reply target not found in this conversation")
)

type MessageService struct {
	messageRepo   repository.MessageRepository
	convRepo      repository.ConversationRepository
	notifications *NotificationService
	notifier      Notifier
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	notifications *NotificationService,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		convRepo:      convRepo,
		notifications: notifications,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *MessageService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SendMessageInput struct {
	Text        string   `json:"text" validate:"max=5000"`
	Attachments []string `json:"attachments" validate:"max=10,dive,required"`
}

type ReplyMessageInput struct {
	SendMessageInput
	ReplyTo uuid.UUID `json:"reply_to" validate:"required"`
}

type EditMessageInput struct {
	Text string `json:"text" validate:"required,max=5000"`
}

func (s *MessageService) Send(ctx context.Context, userID, convID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	return s.create(ctx, userID, convID, input, nil)
}

// Reply is Send with a reference to an existing message of the same conversation.
func (s *MessageService) Reply(ctx context.Context, userID, convID uuid.UUID, input ReplyMessageInput) (*domain.Message, error) {
	return s.create(ctx, userID, convID, input.SendMessageInput, &input.ReplyTo)
}

func (s *MessageService) List(ctx context.Context, userID, convID uuid.UUID, page repository.Page) (*PageResponse[domain.Message], error) {
	if _, err := s.loadMember(ctx, userID, convID); err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListByConversation(ctx, convID, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(messages, page), nil
}

func (s *MessageService) Edit(ctx context.Context, userID, messageID uuid.UUID, input EditMessageInput) (*domain.Message, error) {
	msg, conv, err := s.loadMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, ErrNotMessageOwner
	}
	if msg.IsDeleted {
		return nil, ErrMessageDeleted
	}

	now := time.Now()
	msg.Text = strings.TrimSpace(input.Text)
	msg.EditedAt = &now
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyEditedMessage(conv, msg)
	}
	return msg, nil
}

// Delete soft-deletes the message. Allowed to the sender and to group admins.
func (s *MessageService) Delete(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	msg, conv, err := s.loadMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID && !conv.IsAdmin(userID) {
		return nil, ErrNotMessageOwner
	}
	if msg.IsDeleted {
		return msg, nil
	}

	msg.MarkDeleted()
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("deleting message: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyDeletedMessage(conv, msg.ID)
	}
	return msg, nil
}

// React toggles the caller's reaction of the given type on the message.
func (s *MessageService) React(ctx context.Context, userID, messageID uuid.UUID, input ReactInput) (*domain.Message, error) {
	msg, conv, err := s.loadMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.IsDeleted {
		return nil, ErrMessageDeleted
	}

	msg.Reactions = domain.ToggleReaction(msg.Reactions, userID, input.Type)
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("updating reactions: %w", err)
	}

	if s.notifier != nil {
		s.notifier.NotifyReaction(conv, msg)
	}
	return msg, nil
}

func (s *MessageService) create(ctx context.Context, userID, convID uuid.UUID, input SendMessageInput, replyTo *uuid.UUID) (*domain.Message, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" && len(input.Attachments) == 0 {
		return nil, ErrEmptyMessage
	}

	conv, err := s.loadMember(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if conv.State != domain.StateAccepted {
		return nil, ErrConversationNotAccepted
	}

	if replyTo != nil {
		target, err := s.messageRepo.GetByID(ctx, *replyTo)
		if err != nil {
			return nil, err
		}
		if target == nil || target.ConversationID != convID {
			return nil, ErrReplyTargetAbsent
		}
	}

	attachments := input.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	msg := &domain.Message{
		ID:             uuid.New(),
		ConversationID: convID,
		SenderID:       userID,
		Text:           text,
		Attachments:    attachments,
		ReplyTo:        replyTo,
		Reactions:      []domain.Reaction{},
		SeenBy:         []uuid.UUID{userID},
		CreatedAt:      time.Now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	// Not transactional with the insert: a failure here only leaves the ordering stale.
	if err := s.convRepo.TouchLastMessage(ctx, convID, msg.CreatedAt); err != nil {
		return nil, fmt.Errorf("updating last message time: %w", err)
	}
	conv.LastMessageAt = &msg.CreatedAt

	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}
	if full != nil {
		msg = full
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(conv, msg)
	}
	for _, memberID := range conv.Members {
		if memberID == userID || conv.Muted[memberID] {
			continue
		}
		s.notifications.Notify(ctx, memberID, userID, domain.NotificationMessage, &conv.ID)
	}

	return msg, nil
}

func (s *MessageService) loadMember(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.convRepo.GetByID(ctx, convID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	if !conv.IsMember(userID) {
		return nil, ErrNotConversationMember
	}
	return conv, nil
}

// loadMessage fetches a message and its conversation, requiring the caller to be a member.
func (s *MessageService) loadMessage(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, *domain.Conversation, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, nil, err
	}
	if msg == nil {
		return nil, nil, ErrMessageNotFound
	}
	conv, err := s.loadMember(ctx, userID, msg.ConversationID)
	if err != nil {
		return nil, nil, err
	}
	return msg, conv, nil
}
