package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"messenger/internal/domain"
	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

// Broadcaster доставляет сохранённое сообщение подписчикам комнаты беседы.
// Доставка best-effort: ошибки не возвращаются отправителю.
type Broadcaster interface {
	Broadcast(ctx context.Context, message *domain.Message)
}

type MessageService interface {
	// Submit - единственный путь записи сообщения для HTTP и WebSocket.
	Submit(ctx context.Context, senderID, conversationID int64, content string) (*domain.Message, error)
	// History возвращает страницу истории от старых к новым. Без afterID - последние limit
	// сообщений; с afterID - следующие за ним (догон после переподключения).
	History(ctx context.Context, userID, conversationID, afterID int64, limit int) ([]*domain.Message, error)
}

type messageService struct {
	messageRepo repository.MessageRepository
	access      AccessService
	broadcaster Broadcaster
	log         logger.Logger
}

func NewMessageService(messageRepo repository.MessageRepository, access AccessService, broadcaster Broadcaster, log logger.Logger) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		access:      access,
		broadcaster: broadcaster,
		log:         log,
	}
}

func (s *messageService) Submit(ctx context.Context, senderID, conversationID int64, content string) (*domain.Message, error) {
	if conversationID <= 0 {
		return nil, apperrors.Validation("conversationId is required")
	}
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("content is required")
	}
	if utf8.RuneCountInString(content) > domain.MessageContentMaxLength {
		return nil, apperrors.Validation("message is too long (max %d characters)", domain.MessageContentMaxLength)
	}

	// Несуществующая беседа не имеет участников, поэтому тоже Forbidden.
	if _, err := s.access.RequireParticipant(ctx, senderID, conversationID); err != nil {
		return nil, err
	}

	message := &domain.Message{
		SenderID:       senderID,
		ConversationID: conversationID,
		Content:        content,
	}
	if err := s.messageRepo.Append(ctx, message); err != nil {
		return nil, apperrors.Internal(err, "failed to save message")
	}

	s.broadcaster.Broadcast(ctx, message)

	s.log.Debug("Message submitted", "message_id", message.ID, "conversation_id", conversationID, "sender_id", senderID)
	return message, nil
}

func (s *messageService) History(ctx context.Context, userID, conversationID, afterID int64, limit int) ([]*domain.Message, error) {
	if conversationID <= 0 {
		return nil, apperrors.Validation("conversationId is required")
	}
	if afterID < 0 {
		return nil, apperrors.Validation("afterId must not be negative")
	}
	switch {
	case limit <= 0:
		limit = domain.MessageHistoryDefaultLimit
	case limit > domain.MessageHistoryMaxLimit:
		limit = domain.MessageHistoryMaxLimit
	}

	if _, err := s.access.RequireParticipant(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.List(ctx, conversationID, afterID, limit)
	if err != nil {
		return nil, apperrors.Internal(err, "failed to load messages")
	}

	return messages, nil
}
