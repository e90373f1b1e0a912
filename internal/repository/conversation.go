package repository

//go:generate go run go.uber.org/mock/mockgen -source=conversation.go -destination=../mocks/mock_conversation_repository.go -package=mocks

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"messenger/internal/domain"
	"messenger/pkg/logger"
)

type ConversationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Conversation, error)
	// FindDirect ищет личную беседу пары пользователей. ErrNotFound, если её нет.
	FindDirect(ctx context.Context, userA, userB int64) (*domain.Conversation, error)
	// CreateDirect атомарно создаёт личную беседу с двумя участниками.
	// ErrAlreadyExists, если параллельный запрос успел создать её раньше.
	CreateDirect(ctx context.Context, userA, userB int64) (*domain.Conversation, error)
	// CreateGroup создаёт группу и всех участников в одной транзакции.
	CreateGroup(ctx context.Context, name string, memberIDs []int64) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID int64, groupsOnly bool) ([]*domain.Conversation, error)
}

type conversationRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
	log     logger.Logger
}

func NewConversationRepository(db *pgxpool.Pool, timeout time.Duration, log logger.Logger) ConversationRepository {
	return &conversationRepository{db: db, timeout: timeout, log: log}
}

const conversationColumns = `c.id, c.name, c.is_group, c.created_at, c.updated_at`

func (r *conversationRepository) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	conv, err := scanConversation(r.db.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations c WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.log.Error("Failed to get conversation", "error", err, "conversation_id", id)
		return nil, err
	}

	return conv, nil
}

func (r *conversationRepository) FindDirect(ctx context.Context, userA, userB int64) (*domain.Conversation, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + conversationColumns + ` FROM conversations c WHERE c.direct_key = $1 AND NOT c.is_group`

	conv, err := scanConversation(r.db.QueryRow(ctx, query, domain.DirectKey(userA, userB)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.log.Error("Failed to find direct conversation", "error", err, "user_a", userA, "user_b", userB)
		return nil, err
	}

	return conv, nil
}

func (r *conversationRepository) CreateDirect(ctx context.Context, userA, userB int64) (*domain.Conversation, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var conv *domain.Conversation
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		conv, err = scanConversation(tx.QueryRow(ctx, `
			INSERT INTO conversations AS c (name, is_group, direct_key)
			VALUES (NULL, FALSE, $1)
			ON CONFLICT (direct_key) DO NOTHING
			RETURNING `+conversationColumns,
			domain.DirectKey(userA, userB),
		))
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO participants (user_id, conversation_id)
			VALUES ($1, $3), ($2, $3)
		`, userA, userB, conv.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyExists
		}
		r.log.Error("Failed to create direct conversation", "error", err, "user_a", userA, "user_b", userB)
		return nil, err
	}

	return conv, nil
}

func (r *conversationRepository) CreateGroup(ctx context.Context, name string, memberIDs []int64) (*domain.Conversation, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var conv *domain.Conversation
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var err error
		conv, err = scanConversation(tx.QueryRow(ctx, `
			INSERT INTO conversations AS c (name, is_group)
			VALUES ($1, TRUE)
			RETURNING `+conversationColumns,
			name,
		))
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO participants (user_id, conversation_id)
			SELECT member_id, $2 FROM unnest($1::bigint[]) AS member_id
		`, memberIDs, conv.ID)
		return err
	})
	if err != nil {
		r.log.Error("Failed to create group", "error", err, "name", name)
		return nil, err
	}

	return conv, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID int64, groupsOnly bool) ([]*domain.Conversation, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + conversationColumns + `
		FROM conversations c
		JOIN participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1 AND ($2 = FALSE OR c.is_group)
		ORDER BY c.id DESC
	`

	rows, err := r.db.Query(ctx, query, userID, groupsOnly)
	if err != nil {
		r.log.Error("Failed to list conversations", "error", err, "user_id", userID)
		return nil, err
	}
	defer rows.Close()

	conversations := make([]*domain.Conversation, 0)
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			r.log.Error("Failed to scan conversation", "error", err)
			return nil, err
		}
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	conv := &domain.Conversation{}
	if err := row.Scan(&conv.ID, &conv.Name, &conv.IsGroup, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, err
	}
	return conv, nil
}
