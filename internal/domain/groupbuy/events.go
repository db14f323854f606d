package groupbuy

import (
	"time"

	"github.com/google/uuid"

	"github.com/groupbuy/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeGroupBuyOpened       = "GroupBuyOpened"
	EventTypeGroupBuyClosed       = "GroupBuyClosed"
	EventTypeStockDepleted        = "StockDepleted"
	EventTypeGroupBuysBatchClosed = "GroupBuysBatchClosed"
)

// GroupBuyOpenedEvent is emitted when a group buy transitions to OPEN
type GroupBuyOpenedEvent struct {
	shared.BaseDomainEvent
	GroupBuyID uuid.UUID `json:"group_buy_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	EndAt      time.Time `json:"end_at"`
}

// NewGroupBuyOpenedEvent creates a new GroupBuyOpenedEvent
func NewGroupBuyOpenedEvent(groupBuyID, sellerID uuid.UUID, endAt time.Time) *GroupBuyOpenedEvent {
	return &GroupBuyOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGroupBuyOpened, "GroupBuy", groupBuyID),
		GroupBuyID:      groupBuyID,
		SellerID:        sellerID,
		EndAt:           endAt,
	}
}

// GroupBuyClosedEvent is emitted when a group buy transitions to CLOSED
type GroupBuyClosedEvent struct {
	shared.BaseDomainEvent
	GroupBuyID uuid.UUID `json:"group_buy_id"`
	SellerID   uuid.UUID `json:"seller_id"`
	Reason     string    `json:"reason"`
	OrderCount int       `json:"order_count"`
}

// NewGroupBuyClosedEvent creates a new GroupBuyClosedEvent
func NewGroupBuyClosedEvent(groupBuyID, sellerID uuid.UUID, reason string, orderCount int) *GroupBuyClosedEvent {
	return &GroupBuyClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGroupBuyClosed, "GroupBuy", groupBuyID),
		GroupBuyID:      groupBuyID,
		SellerID:        sellerID,
		Reason:          reason,
		OrderCount:      orderCount,
	}
}

// StockDepletedEvent is emitted exactly once when an option's stock pool
// reaches zero. The subscriber decides whether the whole group buy closes.
type StockDepletedEvent struct {
	shared.BaseDomainEvent
	GroupBuyID uuid.UUID `json:"group_buy_id"`
	OptionID   uuid.UUID `json:"option_id"`
}

// NewStockDepletedEvent creates a new StockDepletedEvent
func NewStockDepletedEvent(groupBuyID, optionID uuid.UUID) *StockDepletedEvent {
	return &StockDepletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDepleted, "GroupBuyOption", optionID),
		GroupBuyID:      groupBuyID,
		OptionID:        optionID,
	}
}

// GroupBuysBatchClosedEvent is emitted once per batch-close sweep that
// actually closed something, carrying every closed group buy's id.
type GroupBuysBatchClosedEvent struct {
	shared.BaseDomainEvent
	GroupBuyIDs []uuid.UUID `json:"group_buy_ids"`
	ClosedAt    time.Time   `json:"closed_at"`
}

// NewGroupBuysBatchClosedEvent creates a new GroupBuysBatchClosedEvent
func NewGroupBuysBatchClosedEvent(groupBuyIDs []uuid.UUID, closedAt time.Time) *GroupBuysBatchClosedEvent {
	var aggID uuid.UUID
	if len(groupBuyIDs) > 0 {
		aggID = groupBuyIDs[0]
	}
	return &GroupBuysBatchClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGroupBuysBatchClosed, "GroupBuy", aggID),
		GroupBuyIDs:     groupBuyIDs,
		ClosedAt:        closedAt,
	}
}
