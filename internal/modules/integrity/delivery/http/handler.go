package handler

import (
	"net/http"

	integrityService "failboard.id/failboard/internal/modules/integrity/service"
	"failboard.id/failboard/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IntegrityHandler exposes the consistency engine to administrators.
// Analyze is read-only; the repair endpoints mutate and are expected to be
// triggered manually or by a scheduled job, never from the hot path.
type IntegrityHandler struct {
	service integrityService.IntegrityService
}

func NewIntegrityHandler(service integrityService.IntegrityService) *IntegrityHandler {
	return &IntegrityHandler{service: service}
}

func (h *IntegrityHandler) Analyze(c *gin.Context) {
	report, err := h.service.Analyze(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (h *IntegrityHandler) RepairFail(c *gin.Context) {
	failID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fail id"})
		return
	}

	if err := h.service.RepairFail(c.Request.Context(), failID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "counters repaired"})
}

func (h *IntegrityHandler) RepairAll(c *gin.Context) {
	summary, err := h.service.RepairAll(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}
