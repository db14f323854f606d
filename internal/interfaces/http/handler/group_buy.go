package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	groupbuyapp "github.com/groupbuy/backend/internal/application/groupbuy"
	"github.com/groupbuy/backend/internal/interfaces/http/middleware"
)

// GroupBuyHandler handles group buy lifecycle API endpoints
type GroupBuyHandler struct {
	BaseHandler
	lifecycle *groupbuyapp.LifecycleService
}

// NewGroupBuyHandler creates a new GroupBuyHandler
func NewGroupBuyHandler(lifecycle *groupbuyapp.LifecycleService) *GroupBuyHandler {
	return &GroupBuyHandler{lifecycle: lifecycle}
}

// RegisterRoutes registers all group buy routes
func (h *GroupBuyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	groupBuys := rg.Group("/group-buys")
	{
		groupBuys.POST("", h.Create)
		groupBuys.GET("", h.List)
		groupBuys.GET("/:id", h.Get)
		groupBuys.GET("/:id/next-tier", h.NextTier)
		groupBuys.POST("/:id/publish", h.Publish)
		groupBuys.POST("/:id/close", h.Close)
	}
}

// Create creates a draft group buy with its options
func (h *GroupBuyHandler) Create(c *gin.Context) {
	var req groupbuyapp.CreateGroupBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.lifecycle.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List returns group buys matching the filter
func (h *GroupBuyHandler) List(c *gin.Context) {
	var filter groupbuyapp.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items, total, err := h.lifecycle.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page == 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// Get returns a single group buy with its options
func (h *GroupBuyHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid group buy ID format")
		return
	}

	resp, err := h.lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// NextTier reports the current discount rate and the next tier to unlock
func (h *GroupBuyHandler) NextTier(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid group buy ID format")
		return
	}

	current, next, err := h.lifecycle.NextTier(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	body := gin.H{"current_rate": current.String()}
	if next != nil {
		body["next_threshold"] = next.Threshold
		body["next_rate"] = next.Rate.String()
	}
	h.Success(c, body)
}

// Publish transitions a draft group buy to OPEN
func (h *GroupBuyHandler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid group buy ID format")
		return
	}

	resp, err := h.lifecycle.Publish(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Close closes an open group buy on the seller's request
func (h *GroupBuyHandler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid group buy ID format")
		return
	}

	resp, err := h.lifecycle.Close(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
