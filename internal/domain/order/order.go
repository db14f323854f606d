package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/groupbuy/backend/internal/domain/shared"
	"github.com/groupbuy/backend/internal/domain/shared/valueobject"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusOrdered   OrderStatus = "ORDERED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRefunded  OrderStatus = "REFUNDED"
)

// CanTransitionTo checks whether a status transition is allowed.
// Transitions are forward only; REFUNDED is reachable only from ORDERED.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusOrdered || target == OrderStatusCancelled
	case OrderStatusOrdered:
		return target == OrderStatusCancelled || target == OrderStatusRefunded
	default:
		return false
	}
}

// IsTerminal reports whether the status admits no further transitions
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCancelled || s == OrderStatusRefunded
}

// OrderItem is one option line of an order
type OrderItem struct {
	shared.BaseEntity
	OrderID   uuid.UUID         `gorm:"type:uuid;not null;index" json:"order_id"`
	OptionID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"option_id"`
	Quantity  int               `gorm:"not null" json:"quantity"`
	UnitPrice valueobject.Money `gorm:"type:decimal(15,0)" json:"unit_price"`
}

// TableName specifies the table name for GORM
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal returns the line total
func (i OrderItem) Subtotal() valueobject.Money {
	return i.UnitPrice.MultiplyByInt(int64(i.Quantity))
}

// Order is the aggregate root for a member's purchase within one group buy.
// The unit prices are snapshotted at admission time and never change
// retroactively when later discount tiers unlock.
type Order struct {
	shared.BaseAggregateRoot
	MemberID    uuid.UUID         `gorm:"type:uuid;not null;index" json:"member_id"`
	GroupBuyID  uuid.UUID         `gorm:"type:uuid;not null;index" json:"group_buy_id"`
	Status      OrderStatus       `gorm:"not null;default:PENDING;index" json:"status"`
	TotalAmount valueobject.Money `gorm:"type:decimal(15,0)" json:"total_amount"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	OrderedAt   *time.Time        `json:"ordered_at,omitempty"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// ItemLine is an option/quantity/price triple used to build an order
type ItemLine struct {
	OptionID  uuid.UUID
	Quantity  int
	UnitPrice valueobject.Money
}

// NewOrder creates a PENDING order from the given lines. The total is the
// sum of line subtotals at the snapshotted unit prices.
func NewOrder(memberID, groupBuyID uuid.UUID, lines []ItemLine) (*Order, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_ORDER", "order must have at least one item")
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MemberID:          memberID,
		GroupBuyID:        groupBuyID,
		Status:            OrderStatusPending,
		TotalAmount:       valueobject.ZeroKRW(),
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_ORDER", "item quantity must be positive")
		}
		item := OrderItem{
			BaseEntity: shared.NewBaseEntity(),
			OrderID:    o.ID,
			OptionID:   line.OptionID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
		}
		o.Items = append(o.Items, item)

		total, err := o.TotalAmount.Add(item.Subtotal())
		if err != nil {
			return nil, err
		}
		o.TotalAmount = total
	}

	return o, nil
}

// completedItems snapshots the option lines for the completed event
func (o *Order) completedItems() []OrderCompletedItem {
	items := make([]OrderCompletedItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderCompletedItem{OptionID: item.OptionID, Quantity: item.Quantity})
	}
	return items
}

// TotalQuantity returns the number of units across all items
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// MarkOrdered transitions PENDING -> ORDERED and emits OrderCompleted.
// This is the point where the reserved stock becomes durably committed.
func (o *Order) MarkOrdered(now time.Time) error {
	if !o.Status.CanTransitionTo(OrderStatusOrdered) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			"order can only be completed from pending status")
	}
	o.Status = OrderStatusOrdered
	o.OrderedAt = &now
	o.AddDomainEvent(NewOrderCompletedEvent(o.ID, o.MemberID, o.GroupBuyID, o.completedItems()))
	return nil
}

// Cancel transitions PENDING or ORDERED -> CANCELLED, returning the
// reserved stock to the pool
func (o *Order) Cancel() error {
	if !o.Status.CanTransitionTo(OrderStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			"order is already cancelled or refunded")
	}
	wasOrdered := o.Status == OrderStatusOrdered
	o.Status = OrderStatusCancelled
	o.AddDomainEvent(NewOrderCancelledEvent(o.ID, o.MemberID, o.GroupBuyID, o.TotalQuantity(), wasOrdered))
	return nil
}

// Refund transitions ORDERED -> REFUNDED, returning stock to the pool
func (o *Order) Refund() error {
	if !o.Status.CanTransitionTo(OrderStatusRefunded) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			"order can only be refunded after completion")
	}
	o.Status = OrderStatusRefunded
	o.AddDomainEvent(NewOrderRefundedEvent(o.ID, o.MemberID, o.GroupBuyID, o.TotalQuantity()))
	return nil
}
