package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/groupbuy/backend/internal/domain/shared"
)

// Repository defines persistence operations for orders
type Repository interface {
	// Save persists a new order with its items
	Save(ctx context.Context, o *Order) error

	// SaveWithLock persists changes using optimistic locking on Version.
	// Returns shared.ErrConcurrencyConflict when the version check fails.
	SaveWithLock(ctx context.Context, o *Order) error

	// FindByID loads an order with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByMember returns a member's orders, newest first
	FindByMember(ctx context.Context, memberID uuid.UUID, filter shared.Filter) (*shared.Paginated[Order], error)

	// FindByGroupBuy returns orders of a group buy matching the filter
	FindByGroupBuy(ctx context.Context, groupBuyID uuid.UUID, filter shared.Filter) (*shared.Paginated[Order], error)

	// SumOrderedQuantity returns the total units the member holds in
	// ORDERED orders for the group buy. Drives the personal limit check.
	SumOrderedQuantity(ctx context.Context, memberID, groupBuyID uuid.UUID) (int, error)

	// SumOrderedQuantityByGroupBuy returns total ordered units per group
	// buy, used to rebuild the ranking cache from durable state.
	SumOrderedQuantityByGroupBuy(ctx context.Context) (map[uuid.UUID]int, error)
}
