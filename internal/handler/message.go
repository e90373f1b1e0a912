package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"messenger/internal/service"
	apperrors "messenger/pkg/errors"
	"messenger/pkg/logger"
)

type MessageHandler struct {
	messageService service.MessageService
	log            logger.Logger
}

func NewMessageHandler(messageService service.MessageService, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		log:            log,
	}
}

type SendMessageRequest struct {
	ConversationID int64  `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
}

// History: GET /messages?conversationId=&afterId=&limit=
// Без afterId отдаёт последние limit сообщений (по умолчанию 200, максимум 1000),
// с afterId - сообщения после него. Порядок всегда от старых к новым; полная страница
// означает, что за ней могут быть ещё сообщения.
func (h *MessageHandler) History(c *gin.Context) {
	conversationID, err := parseInt64Param(c.Query("conversationId"), "conversationId")
	if err != nil {
		_ = c.Error(err)
		return
	}

	var afterID int64
	if raw := c.Query("afterId"); raw != "" {
		if afterID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			_ = c.Error(apperrors.Validation("invalid afterId"))
			return
		}
	}

	var limit int
	if raw := c.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			_ = c.Error(apperrors.Validation("invalid limit"))
			return
		}
	}

	messages, err := h.messageService.History(c.Request.Context(), currentUserID(c), conversationID, afterID, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	message, err := h.messageService.Submit(c.Request.Context(), currentUserID(c), req.ConversationID, req.Content)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, message)
}
