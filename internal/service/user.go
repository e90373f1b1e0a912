package service

import (
	"context"
	"errors"
	"strings"

	"messenger/internal/domain"
	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

type UserService interface {
	GetMe(ctx context.Context, userID int64) (*domain.User, error)
	// Search возвращает других пользователей (не более domain.UserSearchLimit).
	Search(ctx context.Context, userID int64, query string) ([]*domain.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	log      logger.Logger
}

func NewUserService(userRepo repository.UserRepository, log logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log,
	}
}

func (s *userService) GetMe(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user not found")
		}
		return nil, apperrors.Internal(err, "failed to load user")
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) Search(ctx context.Context, userID int64, query string) ([]*domain.User, error) {
	users, err := s.userRepo.Search(ctx, userID, strings.TrimSpace(query), domain.UserSearchLimit)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to search users")
	}
	for _, u := range users {
		u.PasswordHash = ""
	}
	return users, nil
}
