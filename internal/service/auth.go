package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"messenger/internal/config"
	"messenger/internal/domain"
	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/jwt"
	"messenger/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// ValidateToken проверяет подпись и срок токена и что пользователь всё ещё существует.
	ValidateToken(ctx context.Context, tokenString string) (*domain.User, error)
}

type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

type authService struct {
	userRepo repository.UserRepository
	audit    AuditService
	jwtCfg   config.JWTConfig
	log      logger.Logger
}

func NewAuthService(userRepo repository.UserRepository, audit AuditService, jwtCfg config.JWTConfig, log logger.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		audit:    audit,
		jwtCfg:   jwtCfg,
		log:      log,
	}
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return nil, apperrors.Validation("username, email and password are required")
	}
	// Формат и длины проверяет binding-слой обработчика; здесь только лимит bcrypt в байтах.
	if len(password) > domain.PasswordMaxLength {
		return nil, apperrors.Validation("password is too long (max %d bytes)", domain.PasswordMaxLength)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.log.Error("Failed to hash password", "error", err)
		return nil, apperrors.Internal(err, "failed to hash password")
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(passwordHash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperrors.Conflict("user with this username or email already exists")
		}
		return nil, apperrors.Internal(err, "failed to create user")
	}

	s.audit.LogEvent(ctx, &user.ID, nil, domain.EventTypeUserRegistered, map[string]interface{}{
		"username": user.Username,
	})
	s.log.Info("User registered", "user_id", user.ID)

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthenticated("invalid email or password")
		}
		return nil, apperrors.Internal(err, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Unauthenticated("invalid email or password")
	}

	return s.issue(user)
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	if tokenString == "" {
		return nil, apperrors.Unauthenticated("authentication required")
	}

	claims, err := jwt.ValidateToken(tokenString, s.jwtCfg.Secret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Unauthenticated("token expired")
		}
		return nil, apperrors.Unauthenticated("invalid token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthenticated("invalid token")
		}
		return nil, apperrors.Internal(err, "failed to load user")
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) issue(user *domain.User) (*AuthResult, error) {
	token, err := jwt.GenerateAccessToken(user.ID, user.Username, user.Email, s.jwtCfg.Secret, s.jwtCfg.Issuer, s.jwtCfg.TTL)
	if err != nil {
		s.log.Error("Failed to generate access token", "error", err)
		return nil, apperrors.Internal(err, "failed to generate access token")
	}

	user.PasswordHash = ""
	return &AuthResult{User: user, Token: token}, nil
}
