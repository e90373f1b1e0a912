package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"messenger/pkg/logger"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)

type Repositories struct {
	User         UserRepository
	Conversation ConversationRepository
	Participant  ParticipantRepository
	Message      MessageRepository
	Audit        AuditRepository
	RateLimit    RateLimitRepository
}

// NewRepositories собирает хранилища. timeout ограничивает каждую операцию с Postgres.
func NewRepositories(db *pgxpool.Pool, redis *redis.Client, timeout time.Duration, log logger.Logger) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db, timeout, log),
		Conversation: NewConversationRepository(db, timeout, log),
		Participant:  NewParticipantRepository(db, timeout, log),
		Message:      NewMessageRepository(db, timeout, log),
		Audit:        NewAuditRepository(db, timeout, log),
		RateLimit:    NewRateLimitRepository(redis, log),
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// Код 23505 = unique_violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
