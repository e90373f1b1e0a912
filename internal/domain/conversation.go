package domain

import (
	"fmt"
	"time"
)

type Conversation struct {
	ID        int64     `json:"id"`
	Name      *string   `json:"name,omitempty"`
	IsGroup   bool      `json:"isGroup"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Participant - ребро членства (userId, conversationId). Только добавляется.
type Participant struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"userId"`
	ConversationID int64     `json:"conversationId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// ConversationView - беседа, обогащенная на момент чтения: участники и последнее сообщение.
// Эти поля никогда не хранятся в записи беседы.
type ConversationView struct {
	Conversation
	Participants []*User  `json:"participants"`
	LastMessage  *Message `json:"lastMessage,omitempty"`
}

// DirectKey - ключ дедупликации личной беседы: неупорядоченная пара id.
func DirectKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

const GroupNameMaxLength = 255
