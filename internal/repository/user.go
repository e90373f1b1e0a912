package repository

//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"messenger/internal/domain"
	"messenger/pkg/logger"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Search ищет по подстроке username/email, без учёта регистра, исключая excludeID.
	Search(ctx context.Context, excludeID int64, query string, limit int) ([]*domain.User, error)
	// ExistingIDs возвращает подмножество ids, для которых есть пользователи.
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type userRepository struct {
	db      *pgxpool.Pool
	timeout time.Duration
	log     logger.Logger
}

func NewUserRepository(db *pgxpool.Pool, timeout time.Duration, log logger.Logger) UserRepository {
	return &userRepository{db: db, timeout: timeout, log: log}
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			r.log.Warn("User already exists (unique violation)", "email", user.Email, "username", user.Username)
			return ErrAlreadyExists
		}
		r.log.Error("Failed to create user", "error", err, "email", user.Email)
		return err
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	user, err := scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.log.Error("Failed to get user", "error", err)
		return nil, err
	}

	return user, nil
}

func (r *userRepository) Search(ctx context.Context, excludeID int64, search string, limit int) ([]*domain.User, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var (
		rows pgx.Rows
		err  error
	)
	if search == "" {
		rows, err = r.db.Query(ctx, `
			SELECT `+userColumns+` FROM users
			WHERE id <> $1
			ORDER BY username
			LIMIT $2
		`, excludeID, limit)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+userColumns+` FROM users
			WHERE id <> $1 AND (username ILIKE $2 ESCAPE '\' OR email ILIKE $2 ESCAPE '\')
			ORDER BY username
			LIMIT $3
		`, excludeID, "%"+escapeLike(search)+"%", limit)
	}
	if err != nil {
		r.log.Error("Failed to search users", "error", err)
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.log.Error("Failed to scan user", "error", err)
			return nil, err
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

func (r *userRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		r.log.Error("Failed to check users", "error", err)
		return nil, err
	}

	found, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		r.log.Error("Failed to collect user ids", "error", err)
		return nil, err
	}

	return found, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
