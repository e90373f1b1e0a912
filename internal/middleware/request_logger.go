package middleware

import (
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"messenger/pkg/logger"
)

const RequestIDHeader = "X-Request-ID"

// redactedParams не попадают в журнал: /ws принимает JWT в ?token=.
var redactedParams = []string{"token"}

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		c.Next()

		if query := redactQuery(raw); query != "" {
			path = path + "?" + query
		}

		log.Info("HTTP request",
			"request_id", requestID,
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

func redactQuery(raw string) string {
	if raw == "" {
		return ""
	}
	query, err := url.ParseQuery(raw)
	if err != nil {
		return ""
	}
	for _, name := range redactedParams {
		query.Del(name)
	}
	return query.Encode()
}
