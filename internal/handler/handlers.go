package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"messenger/internal/config"
	"messenger/internal/middleware"
	"messenger/internal/realtime"
	"messenger/internal/service"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Conversation *ConversationHandler
	Group        *GroupHandler
	Message      *MessageHandler
	WebSocket    *WebSocketHandler
}

func NewHandlers(
	services *service.Services,
	registry *realtime.Registry,
	db *pgxpool.Pool,
	rdb *redis.Client,
	cfg *config.Config,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(db, rdb, registry),
		Auth:         NewAuthHandler(services.Auth, services.User, cfg.JWT, log),
		User:         NewUserHandler(services.User, log),
		Conversation: NewConversationHandler(services.Conversation, log),
		Group:        NewGroupHandler(services.Conversation, log),
		Message:      NewMessageHandler(services.Message, log),
		WebSocket:    NewWebSocketHandler(services.Auth, services.Message, registry, cfg.WebSocket, cfg.Server.AllowedOrigins, cfg.JWT.CookieName, log),
	}
}

// currentUserID - id пользователя, установленный AuthMiddleware.
func currentUserID(c *gin.Context) int64 {
	return c.GetInt64(middleware.ContextUserID)
}

func parseInt64Param(value, name string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid %s", name)
	}
	return id, nil
}

func bindError(err error) error {
	return apperrors.Validation("invalid request: %v", err)
}
