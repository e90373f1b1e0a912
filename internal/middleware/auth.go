package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"messenger/internal/service"
	"messenger/pkg/logger"
)

// Ключи контекста gin.
const (
	ContextUserID = "user_id"
	ContextUser   = "user"
)

type AuthMiddleware struct {
	authService service.AuthService
	cookieName  string
	log         logger.Logger
}

func NewAuthMiddleware(authService service.AuthService, cookieName string, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		cookieName:  cookieName,
		log:         log,
	}
}

// RequireAuth принимает Authorization: Bearer или cookie с токеном.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c.Request, m.cookieName, false)

		user, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			m.log.Debug("Authentication failed", "error", err, "path", c.Request.URL.Path)
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// ExtractToken ищет токен: заголовок Authorization: Bearer, затем ?token= (если allowQuery), затем cookie.
func ExtractToken(r *http.Request, cookieName string, allowQuery bool) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	if allowQuery {
		if token := r.URL.Query().Get("token"); token != "" {
			return token
		}
	}

	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}

	return ""
}
