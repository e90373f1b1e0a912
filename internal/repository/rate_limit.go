package repository

//go:generate go run go.uber.org/mock/mockgen -source=rate_limit.go -destination=../mocks/mock_rate_limit_repository.go -package=mocks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"messenger/pkg/logger"
)

type RateLimitRepository interface {
	// Hit учитывает запрос в окне фиксированной длины и возвращает число
	// запросов в текущем окне, включая этот.
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

type rateLimitRepository struct {
	redis *redis.Client
	log   logger.Logger
}

func NewRateLimitRepository(redis *redis.Client, log logger.Logger) RateLimitRepository {
	return &rateLimitRepository{redis: redis, log: log}
}

func (r *rateLimitRepository) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		// NX: TTL ставится только первым запросом окна.
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		r.log.Error("Failed to increment rate limit", "error", err, "key", key)
		return 0, err
	}

	return incr.Val(), nil
}
