package handler

import (
	"net/http"

	profileDto "failboard.id/failboard/internal/modules/profile/dto"
	profileService "failboard.id/failboard/internal/modules/profile/service"
	"failboard.id/failboard/pkg/response"
	"failboard.id/failboard/pkg/validator"
	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	service profileService.ProfileService
}

func NewProfileHandler(service profileService.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	resp, err := h.service.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req profileDto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
