package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/service"
	"messenger/pkg/logger"
)

type UserHandler struct {
	userService service.UserService
	log         logger.Logger
}

func NewUserHandler(userService service.UserService, log logger.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log,
	}
}

// Search: GET /users?search=
func (h *UserHandler) Search(c *gin.Context) {
	users, err := h.userService.Search(c.Request.Context(), currentUserID(c), c.Query("search"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, users)
}
