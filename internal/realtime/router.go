package realtime

import (
	"context"

	"messenger/internal/domain"
	"messenger/pkg/logger"
)

// Publisher передаёт кадр другим процессам. nil - только локальная доставка.
type Publisher interface {
	Publish(ctx context.Context, conversationID int64, frame []byte) error
}

// Router рассылает сохранённые сообщения в комнату беседы.
type Router struct {
	registry  *Registry
	publisher Publisher
	log       logger.Logger
}

func NewRouter(registry *Registry, publisher Publisher, log logger.Logger) *Router {
	return &Router{
		registry:  registry,
		publisher: publisher,
		log:       log,
	}
}

// Broadcast доставляет сообщение всем сессиям комнаты. Ошибки только логируются:
// сообщение уже сохранено, клиенты догоняют пропуски через историю.
func (rt *Router) Broadcast(ctx context.Context, m *domain.Message) {
	frame, err := EncodeMessageFrame(m)
	if err != nil {
		rt.log.Error("Failed to encode message frame", "error", err, "message_id", m.ID)
		return
	}

	delivered := rt.registry.Broadcast(m.ConversationID, frame)
	rt.log.Debug("Message broadcast", "message_id", m.ID, "conversation_id", m.ConversationID, "delivered", delivered)

	if rt.publisher == nil {
		return
	}
	if err := rt.publisher.Publish(ctx, m.ConversationID, frame); err != nil {
		rt.log.Error("Failed to publish message to fabric", "error", err, "message_id", m.ID)
	}
}
