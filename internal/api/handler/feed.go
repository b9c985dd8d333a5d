package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/minho/pressroom/internal/domain"
	"github.com/minho/pressroom/internal/service"
)

// FeedHandler handles published feed endpoints.
type FeedHandler struct {
	feedService *service.FeedService
}

// NewFeedHandler creates a new feed handler.
// Parameters:
//   - feedService: feed service instance.
// Returns:
//   - *FeedHandler: initialized handler.
func NewFeedHandler(feedService *service.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// ListFeed handles GET /api/v1/feed.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *FeedHandler) ListFeed(c *gin.Context) {
	contentType := domain.ContentType(c.Query("type"))

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	result, err := h.feedService.List(c.Request.Context(), contentType, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list feed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBySlug handles GET /api/v1/feed/:slug.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *FeedHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Slug is required",
		})
		return
	}

	item, err := h.feedService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Content not found",
		})
		return
	}

	c.JSON(http.StatusOK, item)
}
