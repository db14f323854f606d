package groupbuy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/groupbuy/backend/internal/domain/groupbuy"
	"github.com/groupbuy/backend/internal/domain/shared"
)

// StockDepletedHandler reacts to option depletion by closing the group buy
// once every option has sold out. A single depleted option leaves the group
// buy open for the remaining options.
type StockDepletedHandler struct {
	lifecycle *LifecycleService
	logger    *zap.Logger
}

// NewStockDepletedHandler creates a new StockDepletedHandler
func NewStockDepletedHandler(lifecycle *LifecycleService, logger *zap.Logger) *StockDepletedHandler {
	return &StockDepletedHandler{lifecycle: lifecycle, logger: logger}
}

// EventTypes returns the event types this handler subscribes to
func (h *StockDepletedHandler) EventTypes() []string {
	return []string{groupbuy.EventTypeStockDepleted}
}

// Handle processes a StockDepletedEvent
func (h *StockDepletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	depleted, ok := event.(*groupbuy.StockDepletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	h.logger.Info("option stock depleted",
		zap.String("group_buy_id", depleted.GroupBuyID.String()),
		zap.String("option_id", depleted.OptionID.String()))

	return h.lifecycle.CloseDepleted(ctx, depleted.GroupBuyID)
}
