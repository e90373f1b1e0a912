package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger/internal/service"
	"messenger/pkg/logger"
)

type GroupHandler struct {
	conversationService service.ConversationService
	log                 logger.Logger
}

func NewGroupHandler(conversationService service.ConversationService, log logger.Logger) *GroupHandler {
	return &GroupHandler{
		conversationService: conversationService,
		log:                 log,
	}
}

type CreateGroupRequest struct {
	Name           string  `json:"name" binding:"required,max=255"`
	ParticipantIDs []int64 `json:"participantIds" binding:"required,min=1,dive,gt=0"`
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	view, err := h.conversationService.CreateGroup(c.Request.Context(), currentUserID(c), req.Name, req.ParticipantIDs)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *GroupHandler) List(c *gin.Context) {
	views, err := h.conversationService.ListGroupsFor(c.Request.Context(), currentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, views)
}
