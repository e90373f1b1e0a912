package domain

import (
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PasswordMaxLength - предел bcrypt в байтах. Остальные длины задают binding-теги запросов.
const PasswordMaxLength = 72

// UserSearchLimit - максимальное число пользователей в ответе поиска.
const UserSearchLimit = 20
