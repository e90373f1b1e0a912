package repository

//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"messenger/internal/domain"
	"messenger/pkg/logger"
)

type MessageRepository interface {
	// Append сохраняет сообщение и заполняет ID, CreatedAt, UpdatedAt.
	// В пределах беседы порядок ID совпадает с порядком CreatedAt.
	Append(ctx context.Context, message *domain.Message) error
	// List возвращает до limit сообщений беседы от старых к новым: при afterID > 0
	// следующие после afterID, при afterID == 0 самые последние.
	List(ctx context.Context, conversationID, afterID int64, limit int) ([]*domain.Message, error)
	// LatestByConversation возвращает последнее сообщение каждой беседы.
	LatestByConversation(ctx context.Context, conversationIDs []int64) (map[int64]*domain.Message, error)
}

type messageRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
	log     logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, timeout time.Duration, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, timeout: timeout, log: log}
}

const messageColumns = `id, sender_id, conversation_id, content, created_at, updated_at`

func (r *messageRepository) Append(ctx context.Context, message *domain.Message) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		// Сериализует запись в одну беседу до коммита: nextval и clock_timestamp
		// вызываются под блокировкой, поэтому id и время растут согласованно.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, message.ConversationID); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
			INSERT INTO messages (sender_id, conversation_id, content, created_at, updated_at)
			VALUES ($1, $2, $3, clock_timestamp(), clock_timestamp())
			RETURNING id, created_at, updated_at
		`, message.SenderID, message.ConversationID, message.Content).
			Scan(&message.ID, &message.CreatedAt, &message.UpdatedAt)
	})
	if err != nil {
		r.log.Error("Failed to create message", "error", err, "conversation_id", message.ConversationID)
		return err
	}

	return nil
}

func (r *messageRepository) List(ctx context.Context, conversationID, afterID int64, limit int) ([]*domain.Message, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1 AND id > $2
		ORDER BY id ASC
		LIMIT $3
	`
	if afterID == 0 {
		query = `
			SELECT ` + messageColumns + ` FROM (
				SELECT ` + messageColumns + `
				FROM messages
				WHERE conversation_id = $1 AND id > $2
				ORDER BY id DESC
				LIMIT $3
			) latest
			ORDER BY id ASC
		`
	}

	rows, err := r.db.Query(ctx, query, conversationID, afterID, limit)
	if err != nil {
		r.log.Error("Failed to get messages", "error", err, "conversation_id", conversationID)
		return nil, err
	}
	defer rows.Close()

	messages := make([]*domain.Message, 0)
	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *messageRepository) LatestByConversation(ctx context.Context, conversationIDs []int64) (map[int64]*domain.Message, error) {
	result := make(map[int64]*domain.Message, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT ON (conversation_id) ` + messageColumns + `
		FROM messages
		WHERE conversation_id = ANY($1)
		ORDER BY conversation_id, id DESC
	`

	rows, err := r.db.Query(ctx, query, conversationIDs)
	if err != nil {
		r.log.Error("Failed to get last messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		message, err := scanMessage(rows)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		result[message.ConversationID] = message
	}

	return result, rows.Err()
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	m := &domain.Message{}
	err := row.Scan(&m.ID, &m.SenderID, &m.ConversationID, &m.Content, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}
