package realtime

import (
	"encoding/json"
	"time"

	"messenger/internal/domain"
)

// События дуплексного канала.
const (
	EventAuthenticate      = "authenticate"
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventMessage           = "message"
)

// Envelope - кадр канала: {"event": ..., "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type ConversationPayload struct {
	ConversationID int64 `json:"conversationId"`
}

type InboundMessagePayload struct {
	SenderID       int64  `json:"senderId"`
	ConversationID int64  `json:"conversationId"`
	Content        string `json:"content"`
}

type OutboundMessagePayload struct {
	ID             int64     `json:"id"`
	SenderID       int64     `json:"senderId"`
	ConversationID int64     `json:"conversationId"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// EncodeMessageFrame кодирует исходящий кадр "message" один раз для всей комнаты.
func EncodeMessageFrame(m *domain.Message) ([]byte, error) {
	data, err := json.Marshal(OutboundMessagePayload{
		ID:             m.ID,
		SenderID:       m.SenderID,
		ConversationID: m.ConversationID,
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: EventMessage, Data: data})
}
