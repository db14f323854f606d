package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	rankingapp "github.com/groupbuy/backend/internal/application/ranking"
)

// RankingHandler serves the order-count ranking of group buys
type RankingHandler struct {
	BaseHandler
	ranking  *rankingapp.Service
	maxLimit int
}

// NewRankingHandler creates a new RankingHandler. maxLimit caps the number
// of entries a single request may ask for.
func NewRankingHandler(ranking *rankingapp.Service, maxLimit int) *RankingHandler {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &RankingHandler{ranking: ranking, maxLimit: maxLimit}
}

// RegisterRoutes registers all ranking routes
func (h *RankingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/rankings/group-buys", h.Top)
}

// Top returns the most-ordered group buys, highest first
func (h *RankingHandler) Top(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	entries, err := h.ranking.Top(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entries)
}
