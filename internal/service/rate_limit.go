package service

import (
	"context"
	"time"

	"messenger/internal/repository"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

type RateLimitService interface {
	// Allow учитывает запрос по ключу. Возвращает остаток в окне
	// или ошибку вида ErrRateLimited, если лимит исчерпан.
	Allow(ctx context.Context, key string) (remaining int, err error)
	Limit() int
}

type rateLimitService struct {
	rateLimitRepo repository.RateLimitRepository
	limit         int
	window        time.Duration
	log           logger.Logger
}

func NewRateLimitService(rateLimitRepo repository.RateLimitRepository, limit int, window time.Duration, log logger.Logger) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		limit:         limit,
		window:        window,
		log:           log,
	}
}

func (s *rateLimitService) Allow(ctx context.Context, key string) (int, error) {
	count, err := s.rateLimitRepo.Hit(ctx, "ratelimit:"+key, s.window)
	if err != nil {
		return 0, apperrors.Internal(err, "failed to check rate limit")
	}

	if count > int64(s.limit) {
		s.log.Warn("Rate limit exceeded", "key", key, "count", count)
		return 0, apperrors.RateLimited("too many requests, try again later")
	}

	return s.limit - int(count), nil
}

func (s *rateLimitService) Limit() int {
	return s.limit
}
