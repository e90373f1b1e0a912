package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"messenger/pkg/logger"
)

// RedisFabric связывает процессы через Redis pub/sub: каждый узел публикует
// свои кадры и доставляет чужие в локальные комнаты. Членство в комнатах остаётся локальным.
type RedisFabric struct {
	client   *redis.Client
	channel  string
	nodeID   string
	registry *Registry
	log      logger.Logger
}

type fabricEnvelope struct {
	Node           string          `json:"node"`
	ConversationID int64           `json:"conversationId"`
	Frame          json.RawMessage `json:"frame"`
}

func NewRedisFabric(client *redis.Client, channel string, registry *Registry, log logger.Logger) *RedisFabric {
	nodeID := uuid.NewString()
	return &RedisFabric{
		client:   client,
		channel:  channel,
		nodeID:   nodeID,
		registry: registry,
		log:      log.With("node_id", nodeID),
	}
}

func (f *RedisFabric) NodeID() string {
	return f.nodeID
}

func (f *RedisFabric) Publish(ctx context.Context, conversationID int64, frame []byte) error {
	payload, err := json.Marshal(fabricEnvelope{Node: f.nodeID, ConversationID: conversationID, Frame: frame})
	if err != nil {
		return fmt.Errorf("encode fabric envelope: %w", err)
	}
	return f.client.Publish(ctx, f.channel, payload).Err()
}

// Run слушает канал до отмены ctx.
func (f *RedisFabric) Run(ctx context.Context) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	// Дожидаемся подтверждения подписки, чтобы не терять первые кадры.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", f.channel, err)
	}
	f.log.Info("Fan-out fabric subscribed", "channel", f.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			f.deliver([]byte(msg.Payload))
		}
	}
}

func (f *RedisFabric) deliver(payload []byte) {
	var env fabricEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		f.log.Warn("Dropped malformed fabric payload", "error", err)
		return
	}
	// Свои кадры уже доставлены локально.
	if env.Node == f.nodeID {
		return
	}
	f.registry.Broadcast(env.ConversationID, env.Frame)
}
