package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger/internal/service"
	"messenger/pkg/logger"
)

type RateLimitMiddleware struct {
	rateLimitService service.RateLimitService
	log              logger.Logger
}

func NewRateLimitMiddleware(rateLimitService service.RateLimitService, log logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		log:              log,
	}
}

// Limit ограничивает запросы с одного IP в рамках scope (например, "login").
func (m *RateLimitMiddleware) Limit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := scope + ":" + c.ClientIP()

		remaining, err := m.rateLimitService.Allow(c.Request.Context(), key)
		c.Header("X-RateLimit-Limit", strconv.Itoa(m.rateLimitService.Limit()))
		if err != nil {
			c.Header("X-RateLimit-Remaining", "0")
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Next()
	}
}
