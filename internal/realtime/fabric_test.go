package realtime

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"messenger/internal/domain"
	"messenger/pkg/logger"
)

func TestRedisFabric_DeliversFramesFromOtherNodes(t *testing.T) {
	req := require.New(t)
	r := NewRegistry(newStaticGate([2]int64{1, 10}), logger.Nop())
	s := authedSession(t, 1)
	req.NoError(r.Join(context.Background(), s, 10))

	fabric := NewRedisFabric(nil, "messenger:fanout", r, logger.Nop())
	frame := []byte(`{"event":"message","data":{"id":1}}`)

	own, err := json.Marshal(fabricEnvelope{Node: fabric.NodeID(), ConversationID: 10, Frame: frame})
	req.NoError(err)
	fabric.deliver(own)
	req.Empty(drain(s), "own frames are already delivered locally")

	foreign, err := json.Marshal(fabricEnvelope{Node: "another-node", ConversationID: 10, Frame: frame})
	req.NoError(err)
	fabric.deliver(foreign)
	req.Equal([][]byte{frame}, drain(s))

	fabric.deliver([]byte("not json"))
	req.Empty(drain(s))
}

// Интеграционный тест требует живой Redis: TEST_REDIS_ADDR=localhost:6379
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisFabric_CrossNodeDelivery(t *testing.T) {
	req := require.New(t)
	client := newTestRedis(t)
	channel := "messenger:fanout:test:" + uuid.NewString()

	// Два узла с собственными реестрами, общий канал.
	registryA := NewRegistry(newStaticGate([2]int64{1, 10}), logger.Nop())
	registryB := NewRegistry(newStaticGate([2]int64{2, 10}), logger.Nop())
	sessionA := authedSession(t, 1)
	sessionB := authedSession(t, 2)
	req.NoError(registryA.Join(context.Background(), sessionA, 10))
	req.NoError(registryB.Join(context.Background(), sessionB, 10))

	nodeA := NewRedisFabric(client, channel, registryA, logger.Nop())
	nodeB := NewRedisFabric(client, channel, registryB, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 2)
	go func() { done <- nodeA.Run(ctx) }()
	go func() { done <- nodeB.Run(ctx) }()

	req.Eventually(func() bool {
		subs, err := client.PubSubNumSub(context.Background(), channel).Result()
		return err == nil && subs[channel] == 2
	}, 5*time.Second, 20*time.Millisecond)

	// Роутер узла A доставляет локально сам и публикует для остальных.
	router := NewRouter(registryA, nodeA, logger.Nop())
	router.Broadcast(context.Background(), &domain.Message{ID: 1, SenderID: 1, ConversationID: 10, Content: "across nodes"})

	var frame []byte
	select {
	case frame = <-sessionB.Outbound():
	case <-time.After(5 * time.Second):
		req.FailNow("frame did not reach the other node")
	}
	req.Contains(string(frame), "across nodes")

	// Узел A получает свой кадр ровно один раз: локально, не из канала.
	req.Eventually(func() bool { return len(sessionA.Outbound()) == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	req.Len(drain(sessionA), 1)

	cancel()
	for i := 0; i < 2; i++ {
		select {
		case err := <-done:
			req.NoError(err)
		case <-time.After(5 * time.Second):
			req.FailNow("fabric did not stop after cancel")
		}
	}
}
