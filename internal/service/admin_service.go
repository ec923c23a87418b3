package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/vedran77/circle/internal/domain"
	"github.com/vedran77/circle/internal/repository"
)

var (
	ErrInvalidUserRole  = errors.New("role must be user or admin")
	ErrCannotDemoteSelf = errors.New("cannot change your own role")
)

type AdminService struct {
	userRepo repository.UserRepository
	postRepo repository.PostRepository
}

func NewAdminService(userRepo repository.UserRepository, postRepo repository.PostRepository) *AdminService {
	return &AdminService{
		userRepo: userRepo,
		postRepo: postRepo,
	}
}

type ChangeRoleInput struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

func (s *AdminService) ListUsers(ctx context.Context, query string, page repository.Page) (*PageResponse[domain.User], error) {
	users, err := s.userRepo.List(ctx, query, page)
	if err != nil {
		return nil, err
	}
	return newPageResponse(users, page), nil
}

func (s *AdminService) ChangeRole(ctx context.Context, adminID, userID uuid.UUID, input ChangeRoleInput) (*domain.User, error) {
	if input.Role != domain.RoleUser && input.Role != domain.RoleAdmin {
		return nil, ErrInvalidUserRole
	}
	if adminID == userID {
		return nil, ErrCannotDemoteSelf
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.Role = input.Role
	user.UpdatedAt = time.Now()
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("updating role: %w", err)
	}

	log.Info("user role changed", "admin_id", adminID, "user_id", userID, "role", input.Role)
	return user, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, adminID, userID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	log.Info("user deleted", "admin_id", adminID, "user_id", userID)
	return nil
}

func (s *AdminService) DeletePost(ctx context.Context, adminID, postID uuid.UUID) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrPostNotFound
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	log.Info("post deleted", "admin_id", adminID, "post_id", postID)
	return nil
}
