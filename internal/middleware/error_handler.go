package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

// ErrorHandler отдаёт последнюю ошибку запроса телом { message, status }.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		apiErr := apperrors.ToAPIError(err)

		if errors.Is(err, apperrors.ErrInternal) || apiErr.Status >= 500 {
			log.Error("Request failed", "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(apiErr.Status, apiErr)
	}
}
