package handler

import (
	"net/http"
	"strconv"

	leaderboard "failboard.id/failboard/internal/modules/leaderboard/service"
	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct {
	service leaderboard.LeaderboardService
}

func NewLeaderboardHandler(service leaderboard.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	timeframe := c.Query("timeframe") // "", "all_time", "weekly", "monthly"

	entries, err := h.service.GetLeaderboard(limit, timeframe)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}
