package domain

import (
	"time"
)

// Message неизменяемо после создания. ID и CreatedAt назначает хранилище;
// в пределах беседы порядок по ID совпадает с порядком по CreatedAt.
type Message struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"senderId"`
	ConversationID int64     `json:"conversationId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

const (
	MessageHistoryDefaultLimit = 200
	MessageHistoryMaxLimit     = 1000
	MessageContentMaxLength    = 10000
)
