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
	ErrConversationNotFound    = errors.New("conversation not found")
	ErrNotConversationMember   = errors.New("you are not a member of this conversation")
	ErrCannotMessageSelf       = errors.New("cannot start a conversation with yourself")
	ErrNotPendingTarget        = errors.New("only the requested user can respond to this request")
	ErrRequestNotPending       = errors.New("this request is no longer pending")
	ErrInvalidResponse         = errors.New("response must be accept or reject")
	ErrNotGroup                = errors.New("this action is only available in group conversations")
	ErrNotGroupAdmin           = errors.New("only group admins can perform this action")
	ErrNotGroupOwner           = errors.New("only the group owner can perform this action")
	ErrOwnerMustTransfer       = errors.New("transfer ownership before leaving the group")
	ErrTargetNotMember         = errors.New("user is not a member of this conversation")
	ErrInvalidRole             = errors.New("role must be admin or member")
	ErrInvalidInviteCode       = errors.New("invalid invite code")
	ErrConversationNotAccepted = errors.New("conversation has not been accepted")
)

const (
	ResponseAccept = "accept"
	ResponseReject = "reject"

	GroupRoleAdmin  = "admin"
	GroupRoleMember = "member"

	inviteCodeBytes = 12
)

// Notifier broadcasts real-time chat events to connected conversation members.
type Notifier interface {
	NotifyNewMessage(conv *domain.Conversation, msg *domain.Message)
	NotifyEditedMessage(conv *domain.Conversation, msg *domain.Message)
	NotifyDeletedMessage(conv *domain.Conversation, messageID uuid.UUID)
	NotifyReaction(conv *domain.Conversation, msg *domain.Message)
	NotifyConversationUpdated(conv *domain.Conversation)
	NotifyTyping(conv *domain.Conversation, userID uuid.UUID, typing bool)
}

type ConversationService struct {
	convRepo    repository.ConversationRepository
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	followRepo  repository.FollowRepository
	notifier    Notifier
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
) *ConversationService {
	return &ConversationService{
		convRepo:    convRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		followRepo:  followRepo,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ConversationService) SetNotifier(n Notifier) {
	s.notifier = n
}

type StartDirectInput struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	// Accepted is what older clients send to skip the request flow. It is ignored; mutual follow is
	// checked instead.
	Accepted bool `json:"accepted"`
}

type RespondInput struct {
	Response string `json:"response" validate:"required,oneof=accept reject"`
}

type CreateGroupInput struct {
	Name    string      `json:"name" validate:"required,max=100"`
	Members []uuid.UUID `json:"members" validate:"max=256"`
}

type JoinInput struct {
	Code string `json:"code" validate:"required"`
}

type RenameInput struct {
	Name string `json:"name" validate:"required,max=100"`
}

type SetRoleInput struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
	Role   string    `json:"role" validate:"required"`
}

type TransferInput struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

type NicknameInput struct {
	UserID   uuid.UUID `json:"user_id" validate:"required"`
	Nickname string    `json:"nickname" validate:"max=50"`
}

type PinInput struct {
	MessageID *uuid.UUID `json:"message_id"`
}

type MuteInput struct {
	Muted bool `json:"muted"`
}

type TypingInput struct {
	Typing bool `json:"typing"`
}

// StartDirect returns the existing non-rejected conversation between the two users or creates one.
// The boolean reports whether a new conversation was created.
func (s *ConversationService) StartDirect(ctx context.Context, userID uuid.UUID, input StartDirectInput) (*domain.Conversation, bool, error) {
	if input.UserID == userID {
		return nil, false, ErrCannotMessageSelf
	}

	other, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		return nil, false, err
	}
	if other == nil {
		return nil, false, ErrUserNotFound
	}

	existing, err := s.convRepo.FindDirect(ctx, userID, input.UserID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	mutual, err := s.mutualFollow(ctx, userID, input.UserID)
	if err != nil {
		return nil, false, err
	}

	now := time.Now()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		Members:   []uuid.UUID{userID, input.UserID},
		Admins:    []uuid.UUID{},
		State:     domain.StateAccepted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !mutual {
		conv.State = domain.StatePending
		conv.RequestedBy = &userID
		conv.PendingFor = &input.UserID
	}
	conv.EnsureMaps()

	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, false, fmt.Errorf("creating conversation: %w", err)
	}

	s.notifyUpdated(conv)
	return conv, true, nil
}

// Respond moves a pending direct request to accepted or rejected. Only the requested user may do it.
func (s *ConversationService) Respond(ctx context.Context, userID, convID uuid.UUID, input RespondInput) (*domain.Conversation, error) {
	conv, err := s.loadMember(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if conv.PendingFor == nil || *conv.PendingFor != userID {
		return nil, ErrNotPendingTarget
	}
	if conv.State != domain.StatePending {
		return nil, ErrRequestNotPending
	}

	switch input.Response {
	case ResponseAccept:
		conv.State = domain.StateAccepted
	case ResponseReject:
		conv.State = domain.StateRejected
	default:
		return nil, ErrInvalidResponse
	}
	conv.PendingFor = nil

	return s.save(ctx, conv)
}

func (s *ConversationService) CreateGroup(ctx context.Context, userID uuid.UUID, input CreateGroupInput) (*domain.Conversation, error) {
	name := strings.TrimSpace(input.Name)
	now := time.Now()
	conv := &domain.Conversation{
		ID:        uuid.New(),
		IsGroup:   true,
		Name:      &name,
		Members:   []uuid.UUID{userID},
		Admins:    []uuid.UUID{userID},
		State:     domain.StateAccepted,
		CreatedBy: &userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	conv.EnsureMaps()

	for _, id := range input.Members {
		if conv.IsMember(id) {
			continue
		}
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, ErrUserNotFound
		}
		conv.AddMember(id)
	}

	if err := s.convRepo.Create(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}

	s.notifyUpdated(conv)
	return conv, nil
}

func (s *ConversationService) Get(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
	return s.loadMember(ctx, userID, convID)
}

// List returns accepted conversations, plus pending ones when includePending is set.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID, includePending bool, page repository.Page) (*PageResponse[domain.Conversation], error) {
	states := []string{domain.StateAccepted}
	if includePending {
		states = append(states, domain.StatePending)
	}
	convs, err := s.convRepo.ListByMember(ctx, userID, states, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(convs, page), nil
}

// ListRequests returns pending direct requests waiting on the caller.
func (s *ConversationService) ListRequests(ctx context.Context, userID uuid.UUID, page repository.Page) (*PageResponse[domain.Conversation], error) {
	convs, err := s.convRepo.ListRequests(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(convs, page), nil
}

// Leave removes the caller. The last member leaving deletes the conversation; it returns nil in that case.
// Leaving a pending direct request rejects it.
func (s *ConversationService) Leave(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.loadMember(ctx, userID, convID)
	if err != nil {
		return nil, err
	}

	if len(conv.Members) == 1 {
		if err := s.convRepo.Delete(ctx, conv.ID); err != nil {
			return nil, fmt.Errorf("deleting conversation: %w", err)
		}
		return nil, nil
	}
	if conv.IsOwner(userID) {
		return nil, ErrOwnerMustTransfer
	}

	conv.RemoveMember(userID)
	// A direct request dies with either party.
	if !conv.IsGroup && conv.State == domain.StatePending {
		conv.State = domain.StateRejected
		conv.PendingFor = nil
	}
	return s.save(ctx, conv)
}

func (s *ConversationService) TransferOwnership(ctx context.Context, userID, convID uuid.UUID, input TransferInput) (*domain.Conversation, error) {
	conv, err := s.loadGroup(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if !conv.IsOwner(userID) {
		return nil, ErrNotGroupOwner
	}
	if !conv.IsMember(input.UserID) {
		return nil, ErrTargetNotMember
	}

	conv.CreatedBy = &input.UserID
	conv.AddAdmin(input.UserID)
	conv.AddAdmin(userID)
	return s.save(ctx, conv)
}

// ResetInvite mints a new invite code. The previous code stops working.
func (s *ConversationService) ResetInvite(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.loadAdmin(ctx, userID, convID)
	if err != nil {
		return nil, err
	}

	code, err := randomToken(inviteCodeBytes)
	if err != nil {
		return nil, fmt.Errorf("generating invite code: %w", err)
	}
	conv.InviteCode = &code
	return s.save(ctx, conv)
}

// Join adds the caller to the group owning the invite code. Existing members get the group back unchanged.
func (s *ConversationService) Join(ctx context.Context, userID uuid.UUID, input JoinInput) (*domain.Conversation, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, ErrInvalidInviteCode
	}
	conv, err := s.convRepo.GetByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if conv == nil || !conv.IsGroup {
		return nil, ErrInvalidInviteCode
	}
	if conv.IsMember(userID) {
		return conv, nil
	}

	conv.AddMember(userID)
	return s.save(ctx, conv)
}

func (s *ConversationService) Rename(ctx context.Context, userID, convID uuid.UUID, input RenameInput) (*domain.Conversation, error) {
	conv, err := s.loadAdmin(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	conv.Name = &name
	return s.save(ctx, conv)
}

// SetRole promotes or demotes a member. Owner only.
func (s *ConversationService) SetRole(ctx context.Context, userID, convID uuid.UUID, input SetRoleInput) (*domain.Conversation, error) {
	conv, err := s.loadGroup(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if !conv.IsOwner(userID) {
		return nil, ErrNotGroupOwner
	}
	if !conv.IsMember(input.UserID) {
		return nil, ErrTargetNotMember
	}

	switch input.Role {
	case GroupRoleAdmin:
		conv.AddAdmin(input.UserID)
	case GroupRoleMember:
		if conv.IsOwner(input.UserID) {
			return nil, ErrInvalidRole
		}
		conv.RemoveAdmin(input.UserID)
	default:
		return nil, ErrInvalidRole
	}
	return s.save(ctx, conv)
}

// SetNickname lets any member name themselves; naming someone else needs admin rights.
// An empty nickname clears it.
func (s *ConversationService) SetNickname(ctx context.Context, userID, convID uuid.UUID, input NicknameInput) (*domain.Conversation, error) {
	conv, err := s.loadMember(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if input.UserID != userID && !conv.IsAdmin(userID) {
		return nil, ErrNotGroupAdmin
	}
	if !conv.IsMember(input.UserID) {
		return nil, ErrTargetNotMember
	}

	nickname := strings.TrimSpace(input.Nickname)
	if nickname == "" {
		delete(conv.Nicknames, input.UserID)
	} else {
		conv.Nicknames[input.UserID] = nickname
	}
	return s.save(ctx, conv)
}

// Pin sets the pinned message; a nil message id unpins.
func (s *ConversationService) Pin(ctx context.Context, userID, convID uuid.UUID, input PinInput) (*domain.Conversation, error) {
	conv, err := s.loadAdmin(ctx, userID, convID)
	if err != nil {
		return nil, err
	}

	if input.MessageID != nil {
		msg, err := s.messageRepo.GetByID(ctx, *input.MessageID)
		if err != nil {
			return nil, err
		}
		if msg == nil || msg.ConversationID != conv.ID {
			return nil, ErrMessageNotFound
		}
	}

	conv.PinnedMessageID = input.MessageID
	return s.save(ctx, conv)
}

func (s *ConversationService) Mute(ctx context.Context, userID, convID uuid.UUID, input MuteInput) (*domain.Conversation, error) {
	conv, err := s.loadMember(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if input.Muted {
		conv.Muted[userID] = true
	} else {
		delete(conv.Muted, userID)
	}
	return s.save(ctx, conv)
}

// Typing stores when the caller last typed; readers decide when it is stale.
func (s *ConversationService) Typing(ctx context.Context, userID, convID uuid.UUID, input TypingInput) (*domain.Conversation, error) {
	conv, err := s.loadMember(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if input.Typing {
		conv.Typing[userID] = time.Now()
	} else {
		delete(conv.Typing, userID)
	}

	if err := s.convRepo.Update(ctx, conv); err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}
	if s.notifier != nil {
		s.notifier.NotifyTyping(conv, userID, input.Typing)
	}
	return conv, nil
}

// Seen adds the caller to the latest message's seen set. It returns nil when there are no messages.
func (s *ConversationService) Seen(ctx context.Context, userID, convID uuid.UUID) (*domain.Message, error) {
	if _, err := s.loadMember(ctx, userID, convID); err != nil {
		return nil, err
	}

	msg, err := s.messageRepo.GetLatest(ctx, convID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}
	if !msg.MarkSeen(userID) {
		return msg, nil
	}
	if err := s.messageRepo.Update(ctx, msg); err != nil {
		return nil, fmt.Errorf("updating message: %w", err)
	}
	return msg, nil
}

func (s *ConversationService) mutualFollow(ctx context.Context, a, b uuid.UUID) (bool, error) {
	ab, err := s.followRepo.IsFollowing(ctx, a, b)
	if err != nil || !ab {
		return false, err
	}
	return s.followRepo.IsFollowing(ctx, b, a)
}

// loadMember fetches the conversation and checks the caller belongs to it.
func (s *ConversationService) loadMember(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
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
	conv.EnsureMaps()
	return conv, nil
}

func (s *ConversationService) loadGroup(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.loadMember(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if !conv.IsGroup {
		return nil, ErrNotGroup
	}
	return conv, nil
}

func (s *ConversationService) loadAdmin(ctx context.Context, userID, convID uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.loadGroup(ctx, userID, convID)
	if err != nil {
		return nil, err
	}
	if !conv.IsAdmin(userID) {
		return nil, ErrNotGroupAdmin
	}
	return conv, nil
}

func (s *ConversationService) save(ctx context.Context, conv *domain.Conversation) (*domain.Conversation, error) {
	conv.UpdatedAt = time.Now()
	if err := s.convRepo.Update(ctx, conv); err != nil {
		return nil, fmt.Errorf("updating conversation: %w", err)
	}
	s.notifyUpdated(conv)
	return conv, nil
}

func (s *ConversationService) notifyUpdated(conv *domain.Conversation) {
	if s.notifier != nil {
		s.notifier.NotifyConversationUpdated(conv)
	}
}
