package handler

import (
	"net/http"

	failDto "failboard.id/failboard/internal/modules/fail/dto"
	failService "failboard.id/failboard/internal/modules/fail/service"
	commonDto "failboard.id/failboard/pkg/dto"
	"failboard.id/failboard/pkg/response"
	"failboard.id/failboard/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FailHandler struct {
	service failService.FailService
}

func NewFailHandler(service failService.FailService) *FailHandler {
	return &FailHandler{service: service}
}

// viewerID returns the authenticated user's ID, or nil for anonymous
// requests that went through OptionalAuth.
func viewerID(c *gin.Context) *uuid.UUID {
	id, err := response.GetUserID(c)
	if err != nil {
		return nil
	}
	return &id
}

func (h *FailHandler) CreateFail(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req failDto.CreateFailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.CreateFail(c.Request.Context(), userID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (h *FailHandler) GetFail(c *gin.Context) {
	slug := c.Param("slug")

	resp, err := h.service.GetFailBySlug(c.Request.Context(), slug, viewerID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *FailHandler) ListFails(c *gin.Context) {
	var filter commonDto.FailFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		filter = commonDto.FailFilter{Page: 1, Limit: 10}
	}

	resp, err := h.service.ListFails(c.Request.Context(), filter, viewerID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *FailHandler) UpdateFail(c *gin.Context) {
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

	var req failDto.UpdateFailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	resp, err := h.service.UpdateFail(c.Request.Context(), userID, failID, req, false)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (h *FailHandler) DeleteFail(c *gin.Context) {
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

	if err := h.service.DeleteFail(c.Request.Context(), userID, failID, false); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "fail deleted"})
}

// AdminDeleteFail removes any fail regardless of ownership. Mounted behind
// RequireAdmin.
func (h *FailHandler) AdminDeleteFail(c *gin.Context) {
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

	if err := h.service.DeleteFail(c.Request.Context(), userID, failID, true); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "fail deleted"})
}
