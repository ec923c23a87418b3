package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/mail"
	"github.com/vedran77/circle/internal/repository"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	mailer           mail.Mailer
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	mailer mail.Mailer,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		mailer:           mailer,
	}
}

// Notify records an in-app notification and sends an email according to the recipient's toggles.
// Failures are logged; the action that triggered the notification has already succeeded.
func (s *NotificationService) Notify(ctx context.Context, recipientID, actorID uuid.UUID, notificationType string, targetID *uuid.UUID) {
	if recipientID == actorID {
		return
	}

	recipient, err := s.userRepo.GetByID(ctx, recipientID)
	if err != nil {
		log.Error("loading notification recipient", "user_id", recipientID, "err", err)
		return
	}
	if recipient == nil {
		return
	}

	if recipient.Settings.Push.Allows(notificationType) {
		n := &domain.Notification{
			ID:        uuid.New(),
			UserID:    recipientID,
			ActorID:   actorID,
			Type:      notificationType,
			TargetID:  targetID,
			CreatedAt: time.Now(),
		}
		if err := s.notificationRepo.Create(ctx, n); err != nil {
			log.Error("creating notification", "user_id", recipientID, "type", notificationType, "err", err)
		}
	}

	if recipient.Settings.Email.Allows(notificationType) && s.mailer != nil {
		actorName := "Someone"
		if actor, err := s.userRepo.GetByID(ctx, actorID); err == nil && actor != nil {
			actorName = "@" + actor.Username
		}
		subject, body := notificationEmail(notificationType, actorName)
		if err := s.mailer.Send(ctx, recipient.Email, subject, body); err != nil {
			log.Error("sending notification email", "user_id", recipientID, "type", notificationType, "err", err)
		}
	}
}

func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, page repository.Page) (*PageResponse[domain.Notification], error) {
	items, err := s.notificationRepo.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(items, page), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.notificationRepo.MarkRead(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.notificationRepo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("deleting notification: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func notificationEmail(notificationType, actor string) (string, string) {
	switch notificationType {
	case domain.NotificationLike:
		return "New reaction", actor + " reacted to your post."
	case domain.NotificationComment:
		return "New comment", actor + " commented on your post."
	case domain.NotificationFollow:
		return "New follower", actor + " started following you."
	case domain.NotificationMessage:
		return "New message", actor + " sent you a message."
	}
	return "New activity", actor + " interacted with you."
}
