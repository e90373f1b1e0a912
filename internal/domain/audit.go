package domain

import (
	"time"
)

type AuditLog struct {
	ID             int64                  `json:"id"`
	EventTime      time.Time              `json:"eventTime"`
	ActorUserID    *int64                 `json:"actorUserId,omitempty"`
	ConversationID *int64                 `json:"conversationId,omitempty"`
	EventType      string                 `json:"eventType"`
	Payload        map[string]interface{} `json:"payload"`
}

const (
	EventTypeUserRegistered      = "USER_REGISTERED"
	EventTypeConversationCreated = "CONVERSATION_CREATED"
	EventTypeGroupCreated        = "GROUP_CREATED"
)
