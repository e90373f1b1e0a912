package service

import (
	"context"
	"sync"

	"go.uber.org/mock/gomock"

	"messenger/internal/domain"
	"messenger/internal/mocks"
	"messenger/pkg/logger"
)

// recordingBroadcaster запоминает всё, что ушло в рассылку.
type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []*domain.Message
}

func (b *recordingBroadcaster) Broadcast(_ context.Context, message *domain.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	copied := *message
	b.messages = append(b.messages, &copied)
}

func (b *recordingBroadcaster) sent() []*domain.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*domain.Message(nil), b.messages...)
}

func newQuietAudit(ctrl *gomock.Controller) AuditService {
	repo := mocks.NewMockAuditRepository(ctrl)
	repo.EXPECT().CreateLog(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	return NewAuditService(repo, logger.Nop())
}

func member(userID, conversationID int64) *domain.Participant {
	return &domain.Participant{ID: userID*1000 + conversationID, UserID: userID, ConversationID: conversationID}
}
