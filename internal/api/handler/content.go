package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/minho/pressroom/internal/service"
)

// ContentHandler handles per-content metrics and ranking endpoints.
type ContentHandler struct {
	feedService *service.FeedService
}

// NewContentHandler creates a new content handler.
// Parameters:
//   - feedService: feed service instance.
// Returns:
//   - *ContentHandler: initialized handler.
func NewContentHandler(feedService *service.FeedService) *ContentHandler {
	return &ContentHandler{
		feedService: feedService,
	}
}

// GetMetrics handles GET /api/v1/contents/:id/metrics.
// Returns the snapshot history and window statistics for one content item.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ContentHandler) GetMetrics(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Content ID is required",
		})
		return
	}

	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))
	if days < 0 {
		days = 0
	}

	ctx := c.Request.Context()
	history, err := h.feedService.MetricsHistory(ctx, id, days, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load metrics: " + err.Error(),
		})
		return
	}

	stats, err := h.feedService.MetricsStats(ctx, id, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to compute stats: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content_id": id,
		"days":       days,
		"history":    history,
		"stats":      stats,
	})
}

// GetRanking handles GET /api/v1/contents/:id/ranking.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *ContentHandler) GetRanking(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Content ID is required",
		})
		return
	}

	ranking, err := h.feedService.Ranking(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load ranking: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"content_id": id,
		"ranking":    ranking,
	})
}
