package order

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/groupbuy/backend/internal/domain/groupbuy"
	"github.com/groupbuy/backend/internal/domain/order"
	"github.com/groupbuy/backend/internal/domain/shared"
)

const (
	// DefaultMemberLockTTL bounds how long an admission can hold the
	// per-member lock before it expires on its own
	DefaultMemberLockTTL = 10 * time.Second
)

// Admission error codes surfaced to the HTTP layer
var (
	ErrGroupBuyEnded         = shared.NewDomainError("GROUP_BUY_ENDED", "Group buy is not open for orders")
	ErrOptionMismatch        = shared.NewDomainError("OPTION_MISMATCH", "Option does not belong to this group buy")
	ErrPersonalLimitExceeded = shared.NewDomainError("PERSONAL_LIMIT_EXCEEDED", "Personal order limit exceeded")
	ErrOrderInProgress       = shared.NewDomainError("ORDER_IN_PROGRESS", "Another order for this group buy is already in progress")
)

// AdmissionService is the single entry point for order admission. It owns
// the no-oversell guarantee: stock decrements, the order row, and the group
// buy order count all commit in one transaction, guarded by a fail-fast
// per-member lock.
type AdmissionService struct {
	txScope    TransactionScope
	memberLock MemberLock
	lockTTL    time.Duration
	publisher  shared.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewAdmissionService creates a new AdmissionService
func NewAdmissionService(txScope TransactionScope, memberLock MemberLock, logger *zap.Logger) *AdmissionService {
	return &AdmissionService{
		txScope:    txScope,
		memberLock: memberLock,
		lockTTL:    DefaultMemberLockTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AdmissionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock overrides the time source, used in tests
func (s *AdmissionService) SetClock(now func() time.Time) {
	s.now = now
}

// SetLockTTL overrides how long one admission may hold the per-member lock
func (s *AdmissionService) SetLockTTL(ttl time.Duration) {
	if ttl > 0 {
		s.lockTTL = ttl
	}
}

// Submit admits an order into a group buy. The flow:
//
//  1. Take the per-member lock for this group buy (fail-fast).
//  2. In one transaction: validate the group buy window, validate the
//     options, check the personal limit, atomically decrement stock,
//     persist the ORDERED order, and bump the durable order count.
//  3. After commit: publish domain events and refresh sale prices when
//     the new order count unlocked a discount tier.
//
// Any error inside the transaction rolls everything back, including the
// stock decrements.
func (s *AdmissionService) Submit(ctx context.Context, req SubmitOrderRequest) (*OrderResponse, error) {
	lockToken, acquired, err := s.memberLock.Acquire(ctx, req.MemberID, req.GroupBuyID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrOrderInProgress
	}
	defer func() {
		if releaseErr := s.memberLock.Release(ctx, req.MemberID, req.GroupBuyID, lockToken); releaseErr != nil {
			s.logger.Warn("failed to release member lock",
				zap.String("member_id", req.MemberID.String()),
				zap.String("group_buy_id", req.GroupBuyID.String()),
				zap.Error(releaseErr))
		}
	}()

	now := s.now()
	var (
		newOrder      *order.Order
		gb            *groupbuy.GroupBuy
		reservations  []groupbuy.Reservation
		newOrderCount int
	)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		gb, txErr = repos.GroupBuyRepo().FindByID(ctx, req.GroupBuyID)
		if txErr != nil {
			return txErr
		}
		if !gb.IsOpenAt(now) {
			return ErrGroupBuyEnded
		}

		lines, txErr := s.buildLines(ctx, repos, gb, req)
		if txErr != nil {
			return txErr
		}

		requested := 0
		for _, item := range req.Items {
			requested += item.Quantity
		}
		if gb.PersonalLimit > 0 {
			alreadyOrdered, sumErr := repos.OrderRepo().SumOrderedQuantity(ctx, req.MemberID, req.GroupBuyID)
			if sumErr != nil {
				return sumErr
			}
			if requested > gb.RemainingForMember(alreadyOrdered) {
				return ErrPersonalLimitExceeded
			}
		}

		ledger := groupbuy.NewStockLedger(repos.OptionRepo())
		reserveLines := make([]groupbuy.ReserveLine, 0, len(req.Items))
		for _, item := range req.Items {
			reserveLines = append(reserveLines, groupbuy.ReserveLine{
				OptionID: item.OptionID,
				Quantity: item.Quantity,
			})
		}
		reservations, txErr = ledger.Reserve(ctx, reserveLines)
		if txErr != nil {
			return txErr
		}

		newOrder, txErr = order.NewOrder(req.MemberID, req.GroupBuyID, lines)
		if txErr != nil {
			return txErr
		}
		if txErr = newOrder.MarkOrdered(now); txErr != nil {
			return txErr
		}
		if txErr = repos.OrderRepo().Save(ctx, newOrder); txErr != nil {
			return txErr
		}

		newOrderCount, txErr = repos.GroupBuyRepo().IncrementOrderCount(ctx, req.GroupBuyID, requested)
		return txErr
	})
	if err != nil {
		var insufficient *groupbuy.StockInsufficientError
		if errors.As(err, &insufficient) {
			s.logger.Info("admission rejected: insufficient stock",
				zap.String("group_buy_id", req.GroupBuyID.String()),
				zap.String("option_id", insufficient.OptionID.String()),
				zap.Int("requested", insufficient.Requested),
				zap.Int("available", insufficient.Available))
		}
		return nil, err
	}

	s.logger.Info("order admitted",
		zap.String("order_id", newOrder.ID.String()),
		zap.String("member_id", req.MemberID.String()),
		zap.String("group_buy_id", req.GroupBuyID.String()),
		zap.Int("quantity", newOrder.TotalQuantity()),
		zap.Int("order_count", newOrderCount))

	s.afterAdmission(ctx, gb, newOrder, reservations, newOrderCount)

	response := ToOrderResponse(newOrder)
	return &response, nil
}

// buildLines validates the requested options against the group buy and
// snapshots their current sale prices.
func (s *AdmissionService) buildLines(ctx context.Context, repos TransactionalRepositories, gb *groupbuy.GroupBuy, req SubmitOrderRequest) ([]order.ItemLine, error) {
	options, err := repos.OptionRepo().FindByGroupBuyID(ctx, gb.ID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]groupbuy.GroupBuyOption, len(options))
	for _, opt := range options {
		byID[opt.ID] = opt
	}

	lines := make([]order.ItemLine, 0, len(req.Items))
	seen := make(map[uuid.UUID]bool, len(req.Items))
	for _, item := range req.Items {
		opt, ok := byID[item.OptionID]
		if !ok {
			return nil, ErrOptionMismatch
		}
		if seen[item.OptionID] {
			return nil, shared.NewDomainError("INVALID_ORDER", "duplicate option in order")
		}
		seen[item.OptionID] = true
		lines = append(lines, order.ItemLine{
			OptionID:  item.OptionID,
			Quantity:  item.Quantity,
			UnitPrice: opt.SalePrice,
		})
	}
	return lines, nil
}

// afterAdmission runs the post-commit side effects: domain events,
// depletion events, and sale price refresh on a tier change. None of these
// can fail the already-committed admission.
func (s *AdmissionService) afterAdmission(ctx context.Context, gb *groupbuy.GroupBuy, newOrder *order.Order, reservations []groupbuy.Reservation, newOrderCount int) {
	if s.publisher != nil {
		events := newOrder.GetDomainEvents()
		for _, r := range reservations {
			if r.Depleted {
				events = append(events, groupbuy.NewStockDepletedEvent(gb.ID, r.OptionID))
			}
		}
		_ = s.publisher.Publish(ctx, events...)
		newOrder.ClearDomainEvents()
	}

	prevRate := gb.DiscountStages.RateFor(newOrderCount - newOrder.TotalQuantity())
	newRate := gb.DiscountStages.RateFor(newOrderCount)
	if !newRate.Equal(prevRate) {
		s.refreshSalePrices(ctx, gb.ID, newOrderCount)
	}
}

// refreshSalePrices recomputes sale prices after a discount tier unlock
func (s *AdmissionService) refreshSalePrices(ctx context.Context, groupBuyID uuid.UUID, orderCount int) {
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		gb, txErr := repos.GroupBuyRepo().FindByID(ctx, groupBuyID)
		if txErr != nil {
			return txErr
		}
		gb.OrderCount = orderCount
		gb.RecalculateSalePrices()
		return repos.OptionRepo().UpdateSalePrices(ctx, gb.Options)
	})
	if err != nil {
		s.logger.Error("failed to refresh sale prices",
			zap.String("group_buy_id", groupBuyID.String()),
			zap.Error(err))
		return
	}
	s.logger.Info("discount tier unlocked, sale prices refreshed",
		zap.String("group_buy_id", groupBuyID.String()),
		zap.Int("order_count", orderCount))
}

// Cancel cancels an order, returning its stock to the pool and, when the
// order was already ORDERED, decrementing the group buy's order count
func (s *AdmissionService) Cancel(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.terminate(ctx, orderID, func(o *order.Order) error { return o.Cancel() })
}

// Refund refunds an ORDERED order, returning stock and decrementing the
// group buy's order count
func (s *AdmissionService) Refund(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.terminate(ctx, orderID, func(o *order.Order) error { return o.Refund() })
}

// terminate applies a terminal transition and compensates stock and order
// count in the same transaction.
func (s *AdmissionService) terminate(ctx context.Context, orderID uuid.UUID, transition func(*order.Order) error) (*OrderResponse, error) {
	var terminated *order.Order

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, txErr := repos.OrderRepo().FindByID(ctx, orderID)
		if txErr != nil {
			return txErr
		}

		wasOrdered := o.Status == order.OrderStatusOrdered
		if txErr = transition(o); txErr != nil {
			return txErr
		}
		if txErr = repos.OrderRepo().SaveWithLock(ctx, o); txErr != nil {
			return txErr
		}

		ledger := groupbuy.NewStockLedger(repos.OptionRepo())
		reservations := make([]groupbuy.Reservation, 0, len(o.Items))
		for _, item := range o.Items {
			reservations = append(reservations, groupbuy.Reservation{
				OptionID: item.OptionID,
				Quantity: item.Quantity,
			})
		}
		if txErr = ledger.Release(ctx, reservations); txErr != nil {
			return txErr
		}

		if wasOrdered {
			if _, txErr = repos.GroupBuyRepo().IncrementOrderCount(ctx, o.GroupBuyID, -o.TotalQuantity()); txErr != nil {
				return txErr
			}
		}

		terminated = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, terminated.GetDomainEvents()...)
		terminated.ClearDomainEvents()
	}

	s.logger.Info("order terminated",
		zap.String("order_id", terminated.ID.String()),
		zap.String("status", string(terminated.Status)))

	response := ToOrderResponse(terminated)
	return &response, nil
}

// GetByID retrieves an order by ID
func (s *AdmissionService) GetByID(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	var response *OrderResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, txErr := repos.OrderRepo().FindByID(ctx, orderID)
		if txErr != nil {
			return txErr
		}
		r := ToOrderResponse(o)
		response = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// ListByMember retrieves a member's orders, newest first
func (s *AdmissionService) ListByMember(ctx context.Context, memberID uuid.UUID, filter shared.Filter) ([]OrderResponse, int64, error) {
	var (
		responses []OrderResponse
		total     int64
	)
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		page, txErr := repos.OrderRepo().FindByMember(ctx, memberID, filter)
		if txErr != nil {
			return txErr
		}
		responses = make([]OrderResponse, 0, len(page.Items))
		for i := range page.Items {
			responses = append(responses, ToOrderResponse(&page.Items[i]))
		}
		total = page.Total
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return responses, total, nil
}
