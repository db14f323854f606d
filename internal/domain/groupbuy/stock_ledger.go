package groupbuy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/groupbuy/backend/internal/domain/shared"
)

// StockInsufficientError is returned when a reservation asks for more units
// than the option currently holds.
type StockInsufficientError struct {
	OptionID  uuid.UUID
	Requested int
	Available int
}

func (e *StockInsufficientError) Error() string {
	return fmt.Sprintf("insufficient stock for option %s: requested %d, available %d",
		e.OptionID, e.Requested, e.Available)
}

// DomainError lets the HTTP layer map this to the insufficient-stock code.
func (e *StockInsufficientError) DomainError() *shared.DomainError {
	return shared.ErrInsufficientStock
}

// Reservation records a successful stock decrement. Depleted is set only by
// the decrement that took the pool to exactly zero, so depletion fires once.
type Reservation struct {
	OptionID uuid.UUID
	Quantity int
	Depleted bool
}

// OptionStockStore is the persistence port for atomic stock movements on a
// single option. Implementations perform conditional updates so that
// concurrent reservations can never drive stock below zero.
type OptionStockStore interface {
	// DecrementStock atomically subtracts quantity if enough stock remains.
	// Returns the remaining stock after the decrement, or
	// shared.ErrInsufficientStock when the condition failed.
	DecrementStock(ctx context.Context, optionID uuid.UUID, quantity int) (remaining int, err error)

	// IncrementStock atomically returns quantity to the pool, capped at the
	// option's initial stock.
	IncrementStock(ctx context.Context, optionID uuid.UUID, quantity int) error

	// AvailableStock reads the current stock level.
	AvailableStock(ctx context.Context, optionID uuid.UUID) (int, error)
}

// StockLedger coordinates multi-option stock reservations. Reserve is
// all-or-nothing: if any option lacks stock the already-taken units are
// released before the error is returned.
type StockLedger struct {
	store OptionStockStore
}

// NewStockLedger creates a stock ledger over the given store
func NewStockLedger(store OptionStockStore) *StockLedger {
	return &StockLedger{store: store}
}

// ReserveLine is one option/quantity pair of a reservation request
type ReserveLine struct {
	OptionID uuid.UUID
	Quantity int
}

// Reserve takes stock for every line or none. On failure the partial
// decrements are compensated and a StockInsufficientError identifies the
// first line that could not be satisfied.
func (l *StockLedger) Reserve(ctx context.Context, lines []ReserveLine) ([]Reservation, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "reservation requires at least one line")
	}

	reservations := make([]Reservation, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			l.release(ctx, reservations)
			return nil, shared.NewDomainError("INVALID_INPUT", "reservation quantity must be positive")
		}

		remaining, err := l.store.DecrementStock(ctx, line.OptionID, line.Quantity)
		if err != nil {
			l.release(ctx, reservations)
			if shared.IsDomainError(err, shared.ErrInsufficientStock.Code) {
				available, availErr := l.store.AvailableStock(ctx, line.OptionID)
				if availErr != nil {
					available = 0
				}
				return nil, &StockInsufficientError{
					OptionID:  line.OptionID,
					Requested: line.Quantity,
					Available: available,
				}
			}
			return nil, err
		}

		reservations = append(reservations, Reservation{
			OptionID: line.OptionID,
			Quantity: line.Quantity,
			Depleted: remaining == 0,
		})
	}

	return reservations, nil
}

// Release returns all reserved units to their pools. Used when an order is
// cancelled or refunded.
func (l *StockLedger) Release(ctx context.Context, reservations []Reservation) error {
	var firstErr error
	for _, r := range reservations {
		if err := l.store.IncrementStock(ctx, r.OptionID, r.Quantity); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// release is the best-effort compensation path inside Reserve; errors are
// swallowed because the caller is already failing with the original cause.
func (l *StockLedger) release(ctx context.Context, reservations []Reservation) {
	for _, r := range reservations {
		_ = l.store.IncrementStock(ctx, r.OptionID, r.Quantity)
	}
}
