package groupbuy

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/groupbuy/backend/internal/domain/shared"
)

// Repository defines persistence operations for group buys
type Repository interface {
	// Save persists a new group buy with its options
	Save(ctx context.Context, gb *GroupBuy) error

	// SaveWithLock persists changes using optimistic locking on Version.
	// Returns shared.ErrConcurrencyConflict when the version check fails.
	SaveWithLock(ctx context.Context, gb *GroupBuy) error

	// FindByID loads a group buy with its options
	FindByID(ctx context.Context, id uuid.UUID) (*GroupBuy, error)

	// FindAll returns group buys matching the filter
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[GroupBuy], error)

	// FindExpiredOpen returns open group buys whose end time has passed
	FindExpiredOpen(ctx context.Context, now time.Time, limit int) ([]GroupBuy, error)

	// IncrementOrderCount atomically adds delta units to the order count
	// and returns the new total. Delta may be negative for cancellations.
	IncrementOrderCount(ctx context.Context, id uuid.UUID, delta int) (int, error)

	// OrderCounts returns the order count per group buy id for ranking sync
	OrderCounts(ctx context.Context, status GroupBuyStatus) (map[uuid.UUID]int, error)
}

// OptionRepository defines persistence operations for group buy options
type OptionRepository interface {
	OptionStockStore

	// FindByID loads a single option
	FindByID(ctx context.Context, id uuid.UUID) (*GroupBuyOption, error)

	// FindByGroupBuyID loads all options of a group buy
	FindByGroupBuyID(ctx context.Context, groupBuyID uuid.UUID) ([]GroupBuyOption, error)

	// UpdateSalePrices writes the recalculated sale prices of the options
	UpdateSalePrices(ctx context.Context, options []GroupBuyOption) error
}
