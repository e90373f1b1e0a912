package repository

//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"messenger/internal/domain"
	"messenger/pkg/logger"
)

type ParticipantRepository interface {
	// Get возвращает ErrNotFound, если пользователь не состоит в беседе
	// или беседы не существует.
	Get(ctx context.Context, userID, conversationID int64) (*domain.Participant, error)
	// UsersByConversation возвращает участников каждой из бесед одним запросом.
	UsersByConversation(ctx context.Context, conversationIDs []int64) (map[int64][]*domain.User, error)
}

type participantRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
	log     logger.Logger
}

func NewParticipantRepository(db *pgxpool.Pool, timeout time.Duration, log logger.Logger) ParticipantRepository {
	return &participantRepository{db: db, timeout: timeout, log: log}
}

func (r *participantRepository) Get(ctx context.Context, userID, conversationID int64) (*domain.Participant, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT id, user_id, conversation_id, created_at, updated_at
		FROM participants
		WHERE user_id = $1 AND conversation_id = $2
	`

	p := &domain.Participant{}
	err := r.db.QueryRow(ctx, query, userID, conversationID).
		Scan(&p.ID, &p.UserID, &p.ConversationID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.log.Error("Failed to get participant", "error", err, "user_id", userID, "conversation_id", conversationID)
		return nil, err
	}

	return p, nil
}

func (r *participantRepository) UsersByConversation(ctx context.Context, conversationIDs []int64) (map[int64][]*domain.User, error) {
	result := make(map[int64][]*domain.User, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT p.conversation_id, u.id, u.username, u.email, u.created_at, u.updated_at
		FROM participants p
		JOIN users u ON u.id = p.user_id
		WHERE p.conversation_id = ANY($1)
		ORDER BY p.conversation_id, p.id
	`

	rows, err := r.db.Query(ctx, query, conversationIDs)
	if err != nil {
		r.log.Error("Failed to list participants", "error", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var convID int64
		u := &domain.User{}
		if err := rows.Scan(&convID, &u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
			r.log.Error("Failed to scan participant", "error", err)
			return nil, err
		}
		result[convID] = append(result[convID], u)
	}

	return result, rows.Err()
}
