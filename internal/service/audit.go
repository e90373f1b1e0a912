package service

import (
	"context"

	"messenger/internal/domain"
	"messenger/internal/repository"
	"messenger/pkg/logger"
)

type AuditService interface {
	// LogEvent пишет запись аудита. Сбой записи логируется и не прерывает операцию.
	LogEvent(ctx context.Context, actorUserID, conversationID *int64, eventType string, payload map[string]interface{})
}

type auditService struct {
	auditRepo repository.AuditRepository
	log       logger.Logger
}

func NewAuditService(auditRepo repository.AuditRepository, log logger.Logger) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		log:       log,
	}
}

func (s *auditService) LogEvent(ctx context.Context, actorUserID, conversationID *int64, eventType string, payload map[string]interface{}) {
	if payload == nil {
		payload = make(map[string]interface{})
	}

	auditLog := &domain.AuditLog{
		ActorUserID:    actorUserID,
		ConversationID: conversationID,
		EventType:      eventType,
		Payload:        payload,
	}

	if err := s.auditRepo.CreateLog(ctx, auditLog); err != nil {
		s.log.Warn("Failed to write audit log", "error", err, "event_type", eventType)
	}
}
