package repository

//go:generate go run go.uber.org/mock/mockgen -source=audit.go -destination=../mocks/mock_audit_repository.go -package=mocks

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"messenger/internal/domain"
	"messenger/pkg/logger"
)

type AuditRepository interface {
	CreateLog(ctx context.Context, log *domain.AuditLog) error
}

type auditRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
	log     logger.Logger
}

func NewAuditRepository(db *pgxpool.Pool, timeout time.Duration, log logger.Logger) AuditRepository {
	return &auditRepository{db: db, timeout: timeout, log: log}
}

func (r *auditRepository) CreateLog(ctx context.Context, auditLog *domain.AuditLog) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if auditLog.Payload == nil {
		auditLog.Payload = map[string]interface{}{}
	}

	query := `
		INSERT INTO audit_log (actor_user_id, conversation_id, event_type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, event_time
	`

	err := r.db.QueryRow(ctx, query,
		auditLog.ActorUserID, auditLog.ConversationID, auditLog.EventType, auditLog.Payload,
	).Scan(&auditLog.ID, &auditLog.EventTime)
	if err != nil {
		r.log.Error("Failed to create audit log", "error", err, "event_type", auditLog.EventType)
		return err
	}

	return nil
}
