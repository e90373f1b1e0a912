package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/service"
	"messenger/pkg/logger"
)

type ConversationHandler struct {
	conversationService service.ConversationService
	log                 logger.Logger
}

func NewConversationHandler(conversationService service.ConversationService, log logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		log:                 log,
	}
}

type CreateConversationRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

// Create отвечает 201 для новой беседы и 200 для уже существующей.
func (h *ConversationHandler) Create(c *gin.Context) {
	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	view, created, err := h.conversationService.CreateDirect(c.Request.Context(), currentUserID(c), req.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, view)
}

func (h *ConversationHandler) List(c *gin.Context) {
	views, err := h.conversationService.ListFor(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *ConversationHandler) Get(c *gin.Context) {
	conversationID, err := parseInt64Param(c.Param("id"), "conversation id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	view, err := h.conversationService.Get(c.Request.Context(), currentUserID(c), conversationID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}
