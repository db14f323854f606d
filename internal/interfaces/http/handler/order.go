package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/groupbuy/backend/internal/application/order"
	"github.com/groupbuy/backend/internal/domain/shared"
	"github.com/groupbuy/backend/internal/interfaces/http/dto"
	"github.com/groupbuy/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles order admission API endpoints
type OrderHandler struct {
	BaseHandler
	admission *orderapp.AdmissionService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(admission *orderapp.AdmissionService) *OrderHandler {
	return &OrderHandler{admission: admission}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Submit)
		orders.GET("/:id", h.Get)
		orders.POST("/:id/cancel", h.Cancel)
		orders.POST("/:id/refund", h.Refund)
	}
	rg.GET("/members/:id/orders", h.ListByMember)
}

// Submit admits an order against an open group buy
func (h *OrderHandler) Submit(c *gin.Context) {
	var req orderapp.SubmitOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.admission.Submit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a single order with its items
func (h *OrderHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.admission.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels an order and returns its stock
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.admission.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Refund refunds an ordered order, returning its stock to the pool
func (h *OrderHandler) Refund(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	resp, err := h.admission.Refund(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListByMember returns a member's orders, newest first
func (h *OrderHandler) ListByMember(c *gin.Context) {
	memberID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid member ID format")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if listReq.Page == 0 {
		listReq.Page = 1
	}
	if listReq.PageSize == 0 {
		listReq.PageSize = 20
	}

	filter := shared.DefaultFilter()
	filter.Page = listReq.Page
	filter.PageSize = listReq.PageSize
	if listReq.OrderBy != "" {
		filter.OrderBy = listReq.OrderBy
	}
	if listReq.OrderDir != "" {
		filter.OrderDir = listReq.OrderDir
	}

	items, total, err := h.admission.ListByMember(c.Request.Context(), memberID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}
