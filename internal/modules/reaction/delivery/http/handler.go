package handler

import (
	"net/http"

	"failboard.id/failboard/internal/entity"
	reactionDto "failboard.id/failboard/internal/modules/reaction/dto"
	reactionService "failboard.id/failboard/internal/modules/reaction/service"
	"failboard.id/failboard/pkg/response"
	"failboard.id/failboard/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReactionHandler struct {
	service reactionService.ReactionService
}

func NewReactionHandler(service reactionService.ReactionService) *ReactionHandler {
	return &ReactionHandler{service: service}
}

func (h *ReactionHandler) ToggleReaction(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	failID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fail id"})
		return
	}

	var req reactionDto.ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.ToggleReaction(c.Request.Context(), userID, failID, entity.ReactionType(req.Type))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *ReactionHandler) GetReactions(c *gin.Context) {
	failID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fail id"})
		return
	}

	var viewerID *uuid.UUID
	if id, err := response.GetUserID(c); err == nil {
		viewerID = &id
	}

	resp, err := h.service.GetReactions(c.Request.Context(), failID, viewerID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
