package service

import (
	"messenger/internal/config"
	"messenger/internal/repository"
	"messenger/pkg/logger"
)

type Services struct {
	Auth         AuthService
	User         UserService
	Access       AccessService
	Conversation ConversationService
	Message      MessageService
	RateLimit    RateLimitService
	Audit        AuditService
}

// NewServices собирает сервисы. broadcaster - роутер рассылки, создаётся один раз в main.
func NewServices(repos *repository.Repositories, broadcaster Broadcaster, cfg *config.Config, log logger.Logger) *Services {
	audit := NewAuditService(repos.Audit, log)
	access := NewAccessService(repos.Participant, log)
	conversations := NewConversationService(
		repos.User, repos.Conversation, repos.Participant, repos.Message, access, audit, log,
	)

	return &Services{
		Auth:         NewAuthService(repos.User, audit, cfg.JWT, log),
		User:         NewUserService(repos.User, log),
		Access:       access,
		Conversation: conversations,
		Message:      NewMessageService(repos.Message, access, broadcaster, log),
		RateLimit:    NewRateLimitService(repos.RateLimit, cfg.RateLimit.Requests, cfg.RateLimit.Window, log),
		Audit:        audit,
	}
}
