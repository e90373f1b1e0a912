package service

import (
	"context"
	"errors"

	"messenger/internal/domain"
	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

// AccessService - единственное место, где проверяется членство в беседе.
// Через него проходят чтение беседы и истории, отправка сообщений и вход в комнату.
type AccessService interface {
	IsParticipant(ctx context.Context, userID, conversationID int64) (bool, error)
	// RequireParticipant возвращает факт членства или ошибку вида ErrForbidden.
	RequireParticipant(ctx context.Context, userID, conversationID int64) (*domain.Participant, error)
}

type accessService struct {
	participantRepo repository.ParticipantRepository
	log             logger.Logger
}

func NewAccessService(participantRepo repository.ParticipantRepository, log logger.Logger) AccessService {
	return &accessService{
		participantRepo: participantRepo,
		log:             log,
	}
}

func (s *accessService) IsParticipant(ctx context.Context, userID, conversationID int64) (bool, error) {
	if userID <= 0 || conversationID <= 0 {
		return false, nil
	}

	_, err := s.participantRepo.Get(ctx, userID, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.Internal(err, "failed to check membership")
	}

	return true, nil
}

func (s *accessService) RequireParticipant(ctx context.Context, userID, conversationID int64) (*domain.Participant, error) {
	if userID <= 0 || conversationID <= 0 {
		return nil, apperrors.Forbidden("not a participant of this conversation")
	}

	p, err := s.participantRepo.Get(ctx, userID, conversationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Debug("Access denied", "user_id", userID, "conversation_id", conversationID)
			return nil, apperrors.Forbidden("not a participant of this conversation")
		}
		return nil, apperrors.Internal(err, "failed to check membership")
	}

	return p, nil
}
