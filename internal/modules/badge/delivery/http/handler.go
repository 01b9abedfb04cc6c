package handler

import (
	"net/http"

	badgeDto "failboard.id/failboard/internal/modules/badge/dto"
	badgeService "failboard.id/failboard/internal/modules/badge/service"
	"failboard.id/failboard/pkg/response"
	"failboard.id/failboard/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BadgeHandler struct {
	service badgeService.BadgeService
}

func NewBadgeHandler(service badgeService.BadgeService) *BadgeHandler {
	return &BadgeHandler{service: service}
}

// ListBadges returns the catalog. When the request is authenticated each
// badge carries is_unlocked/unlocked_at for that user.
func (h *BadgeHandler) ListBadges(c *gin.Context) {
	var userID *uuid.UUID
	if id, err := response.GetUserID(c); err == nil {
		userID = &id
	}

	badges, err := h.service.GetBadgesWithStatus(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": badges})
}

// CheckBadges triggers an evaluation pass for the calling user and returns
// whatever it newly unlocked.
func (h *BadgeHandler) CheckBadges(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	unlocked := h.service.EvaluateAndGrant(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"newly_unlocked": unlocked}})
}

func (h *BadgeHandler) NextChallenges(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	challenges, err := h.service.NextChallenges(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": challenges})
}

// Admin handlers. Mounted behind RequireAdmin.

func (h *BadgeHandler) CreateBadge(c *gin.Context) {
	var req badgeDto.BadgeDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	def, err := h.service.CreateDefinition(c.Request.Context(), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": def})
}

func (h *BadgeHandler) UpdateBadge(c *gin.Context) {
	var req badgeDto.BadgeDefinitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	def, err := h.service.UpdateDefinition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": def})
}

func (h *BadgeHandler) DeleteBadge(c *gin.Context) {
	if err := h.service.DeleteDefinition(c.Request.Context(), c.Param("id")); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "badge deleted"})
}

func (h *BadgeHandler) GetUserBadges(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	badges, err := h.service.GetUserBadges(c.Request.Context(), userID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": badges})
}

// ForceCheckUser runs an evaluation pass for any user, skipping the
// cooldown entirely (EvaluateAndGrant is not gated; only the event path is).
func (h *BadgeHandler) ForceCheckUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	unlocked := h.service.EvaluateAndGrant(c.Request.Context(), userID)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"newly_unlocked": unlocked}})
}
