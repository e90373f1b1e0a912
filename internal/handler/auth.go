package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/config"
	"messenger/internal/service"
	"messenger/pkg/logger"
)

type AuthHandler struct {
	authService service.AuthService
	userService service.UserService
	jwtCfg      config.JWTConfig
	log         logger.Logger
}

func NewAuthHandler(authService service.AuthService, userService service.UserService, jwtCfg config.JWTConfig, log logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		jwtCfg:      jwtCfg,
		log:         log,
	}
}

type SignupRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.log.Warn("Registration failed", "error", err, "email", req.Email)
		_ = c.Error(err)
		return
	}

	h.setTokenCookie(c, result.Token)
	c.JSON(http.StatusCreated, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Warn("Login failed", "error", err, "email", req.Email)
		_ = c.Error(err)
		return
	}

	h.log.Info("User logged in", "user_id", result.User.ID)
	h.setTokenCookie(c, result.Token)
	c.JSON(http.StatusOK, result)
}

// Logout только стирает cookie: токены без состояния и живут до истечения TTL.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.jwtCfg.CookieName, "", -1, "/", "", h.jwtCfg.CookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.userService.GetMe(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.jwtCfg.CookieName, token, int(h.jwtCfg.TTL.Seconds()), "/", "", h.jwtCfg.CookieSecure, true)
}
