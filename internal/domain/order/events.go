package order

import (
	"github.com/google/uuid"

	"github.com/groupbuy/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeOrderCompleted = "OrderCompleted"
	EventTypeOrderCancelled = "OrderCancelled"
	EventTypeOrderRefunded  = "OrderRefunded"
)

// OrderCompletedItem is one option line carried on OrderCompletedEvent
type OrderCompletedItem struct {
	OptionID uuid.UUID `json:"option_id"`
	Quantity int       `json:"quantity"`
}

// OrderCompletedEvent is emitted when an order reaches ORDERED status.
// Quantity is the total unit count, used by the ranking cache; Items
// carries the per-option lines for downstream consumers.
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID            `json:"order_id"`
	MemberID   uuid.UUID            `json:"member_id"`
	GroupBuyID uuid.UUID            `json:"group_buy_id"`
	Quantity   int                  `json:"quantity"`
	Items      []OrderCompletedItem `json:"items"`
}

// NewOrderCompletedEvent creates a new OrderCompletedEvent. The total
// quantity is derived from the items.
func NewOrderCompletedEvent(orderID, memberID, groupBuyID uuid.UUID, items []OrderCompletedItem) *OrderCompletedEvent {
	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, "Order", orderID),
		OrderID:         orderID,
		MemberID:        memberID,
		GroupBuyID:      groupBuyID,
		Quantity:        total,
		Items:           items,
	}
}

// OrderCancelledEvent is emitted when an order is cancelled before refund.
// WasOrdered is true when the order had already reached ORDERED, meaning
// committed stock and counts were rolled back.
type OrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	MemberID   uuid.UUID `json:"member_id"`
	GroupBuyID uuid.UUID `json:"group_buy_id"`
	Quantity   int       `json:"quantity"`
	WasOrdered bool      `json:"was_ordered"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(orderID, memberID, groupBuyID uuid.UUID, quantity int, wasOrdered bool) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCancelled, "Order", orderID),
		OrderID:         orderID,
		MemberID:        memberID,
		GroupBuyID:      groupBuyID,
		Quantity:        quantity,
		WasOrdered:      wasOrdered,
	}
}

// OrderRefundedEvent is emitted when a completed order is refunded
type OrderRefundedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	MemberID   uuid.UUID `json:"member_id"`
	GroupBuyID uuid.UUID `json:"group_buy_id"`
	Quantity   int       `json:"quantity"`
}

// NewOrderRefundedEvent creates a new OrderRefundedEvent
func NewOrderRefundedEvent(orderID, memberID, groupBuyID uuid.UUID, quantity int) *OrderRefundedEvent {
	return &OrderRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderRefunded, "Order", orderID),
		OrderID:         orderID,
		MemberID:        memberID,
		GroupBuyID:      groupBuyID,
		Quantity:        quantity,
	}
}
