package ranking

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/groupbuy/backend/internal/domain/order"
	"github.com/groupbuy/backend/internal/domain/shared"
)

// OrderActivityHandler feeds completed, cancelled, and refunded orders into
// the ranking cache. Cache errors are logged and swallowed so a cache outage
// never breaks order processing; the periodic sync repairs any gap.
type OrderActivityHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewOrderActivityHandler creates a new OrderActivityHandler
func NewOrderActivityHandler(service *Service, logger *zap.Logger) *OrderActivityHandler {
	return &OrderActivityHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler subscribes to
func (h *OrderActivityHandler) EventTypes() []string {
	return []string{order.EventTypeOrderCompleted, order.EventTypeOrderCancelled, order.EventTypeOrderRefunded}
}

// Handle processes order completion, cancellation, and refund events
func (h *OrderActivityHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *order.OrderCompletedEvent:
		return h.record(ctx, e.GroupBuyID.String(), func() error {
			return h.service.RecordOrder(ctx, e.GroupBuyID, e.Quantity)
		})
	case *order.OrderCancelledEvent:
		// Only cancellations of completed orders were ever counted
		if !e.WasOrdered {
			return nil
		}
		return h.record(ctx, e.GroupBuyID.String(), func() error {
			return h.service.RecordOrder(ctx, e.GroupBuyID, -e.Quantity)
		})
	case *order.OrderRefundedEvent:
		return h.record(ctx, e.GroupBuyID.String(), func() error {
			return h.service.RecordOrder(ctx, e.GroupBuyID, -e.Quantity)
		})
	default:
		return fmt.Errorf("unexpected event type %T", event)
	}
}

func (h *OrderActivityHandler) record(_ context.Context, groupBuyID string, fn func() error) error {
	if err := fn(); err != nil {
		h.logger.Warn("ranking update failed, waiting for next sync",
			zap.String("group_buy_id", groupBuyID),
			zap.Error(err))
	}
	return nil
}
