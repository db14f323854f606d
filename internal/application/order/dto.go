package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/groupbuy/backend/internal/domain/order"
)

// SubmitOrderRequest is a member's admission request for a group buy
type SubmitOrderRequest struct {
	MemberID   uuid.UUID         `json:"member_id" binding:"required"`
	GroupBuyID uuid.UUID         `json:"group_buy_id" binding:"required"`
	Items      []SubmitOrderItem `json:"items" binding:"required,min=1,dive"`
}

// SubmitOrderItem is one option line of an admission request
type SubmitOrderItem struct {
	OptionID uuid.UUID `json:"option_id" binding:"required"`
	Quantity int       `json:"quantity" binding:"required,min=1"`
}

// OrderItemResponse represents an order item in API responses
type OrderItemResponse struct {
	ID        uuid.UUID `json:"id"`
	OptionID  uuid.UUID `json:"option_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice string    `json:"unit_price"`
	Subtotal  string    `json:"subtotal"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID          uuid.UUID           `json:"id"`
	MemberID    uuid.UUID           `json:"member_id"`
	GroupBuyID  uuid.UUID           `json:"group_buy_id"`
	Status      string              `json:"status"`
	TotalAmount string              `json:"total_amount"`
	Items       []OrderItemResponse `json:"items"`
	OrderedAt   *time.Time          `json:"ordered_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	Version     int                 `json:"version"`
}

// ToOrderResponse converts an order aggregate to its API representation
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			ID:        item.ID,
			OptionID:  item.OptionID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.Amount().String(),
			Subtotal:  item.Subtotal().Amount().String(),
		})
	}
	return OrderResponse{
		ID:          o.ID,
		MemberID:    o.MemberID,
		GroupBuyID:  o.GroupBuyID,
		Status:      string(o.Status),
		TotalAmount: o.TotalAmount.Amount().String(),
		Items:       items,
		OrderedAt:   o.OrderedAt,
		CreatedAt:   o.CreatedAt,
		Version:     o.Version,
	}
}
