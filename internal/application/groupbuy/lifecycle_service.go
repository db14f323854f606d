package groupbuy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/groupbuy/backend/internal/domain/groupbuy"
	"github.com/groupbuy/backend/internal/domain/shared"
	"github.com/groupbuy/backend/internal/domain/shared/valueobject"
)

// expired sweeps load group buys in pages to bound memory
const batchCloseLimit = 500

// LifecycleService manages the group buy lifecycle from draft through close
type LifecycleService struct {
	repo       groupbuy.Repository
	optionRepo groupbuy.OptionRepository
	publisher  shared.EventPublisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewLifecycleService creates a new LifecycleService
func NewLifecycleService(repo groupbuy.Repository, optionRepo groupbuy.OptionRepository, logger *zap.Logger) *LifecycleService {
	return &LifecycleService{
		repo:       repo,
		optionRepo: optionRepo,
		logger:     logger,
		now:        time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LifecycleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetClock overrides the time source, used in tests
func (s *LifecycleService) SetClock(now func() time.Time) {
	s.now = now
}

// Create creates a draft group buy with its options
func (s *LifecycleService) Create(ctx context.Context, req CreateGroupBuyRequest) (*GroupBuyResponse, error) {
	stages := make(groupbuy.DiscountStages, 0, len(req.DiscountStages))
	for _, stage := range req.DiscountStages {
		stages = append(stages, groupbuy.DiscountStage{
			Threshold: stage.Threshold,
			Rate:      stage.Rate,
		})
	}

	gb, err := groupbuy.NewGroupBuy(req.SellerID, req.Title, req.Description,
		req.StartAt, req.EndAt, req.PersonalLimit, stages)
	if err != nil {
		return nil, err
	}

	for _, optInput := range req.Options {
		price, err := valueobject.NewMoney(optInput.StartPrice, valueobject.DefaultCurrency)
		if err != nil {
			return nil, err
		}
		if _, err := gb.AddOption(optInput.Name, optInput.InitialStock, price); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Save(ctx, gb); err != nil {
		return nil, err
	}

	s.logger.Info("group buy created",
		zap.String("group_buy_id", gb.ID.String()),
		zap.String("seller_id", gb.SellerID.String()),
		zap.Int("options", len(gb.Options)))

	response := ToGroupBuyResponse(gb)
	return &response, nil
}

// Publish transitions a draft group buy to OPEN
func (s *LifecycleService) Publish(ctx context.Context, id uuid.UUID) (*GroupBuyResponse, error) {
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := gb.Publish(); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, gb); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, gb)
	s.logger.Info("group buy published", zap.String("group_buy_id", gb.ID.String()))

	response := ToGroupBuyResponse(gb)
	return &response, nil
}

// Close closes an open group buy at the seller's request
func (s *LifecycleService) Close(ctx context.Context, id uuid.UUID) (*GroupBuyResponse, error) {
	return s.close(ctx, id, groupbuy.CloseReasonSeller)
}

// CloseDepleted closes a group buy because every option sold out. Called by
// the stock depletion handler; a no-op when another closer got there first.
func (s *LifecycleService) CloseDepleted(ctx context.Context, id uuid.UUID) error {
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if gb.Status == groupbuy.GroupBuyStatusClosed {
		return nil
	}
	if !gb.AllOptionsDepleted() {
		return nil
	}
	_, err = s.closeLoaded(ctx, gb, groupbuy.CloseReasonStockDepleted)
	return err
}

func (s *LifecycleService) close(ctx context.Context, id uuid.UUID, reason groupbuy.CloseReason) (*GroupBuyResponse, error) {
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.closeLoaded(ctx, gb, reason)
}

func (s *LifecycleService) closeLoaded(ctx context.Context, gb *groupbuy.GroupBuy, reason groupbuy.CloseReason) (*GroupBuyResponse, error) {
	if err := gb.Close(reason, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.SaveWithLock(ctx, gb); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, gb)
	s.logger.Info("group buy closed",
		zap.String("group_buy_id", gb.ID.String()),
		zap.String("reason", string(reason)))

	response := ToGroupBuyResponse(gb)
	return &response, nil
}

// CloseExpired closes every open group buy whose end time has passed.
// Returns the closed ids. One batch event is emitted per sweep that closed
// anything; individual GroupBuyClosed events still fire per group buy.
func (s *LifecycleService) CloseExpired(ctx context.Context) ([]uuid.UUID, error) {
	now := s.now()
	var closed []uuid.UUID

	for {
		expired, err := s.repo.FindExpiredOpen(ctx, now, batchCloseLimit)
		if err != nil {
			return closed, err
		}
		if len(expired) == 0 {
			break
		}

		for i := range expired {
			gb := &expired[i]
			if err := gb.Close(groupbuy.CloseReasonExpired, now); err != nil {
				s.logger.Warn("skipping expired group buy",
					zap.String("group_buy_id", gb.ID.String()),
					zap.Error(err))
				continue
			}
			if err := s.repo.SaveWithLock(ctx, gb); err != nil {
				// a concurrent closer won the version race; it handled the events
				if shared.IsDomainError(err, shared.ErrConcurrencyConflict.Code) {
					continue
				}
				return closed, err
			}
			s.publishEvents(ctx, gb)
			closed = append(closed, gb.ID)
		}

		if len(expired) < batchCloseLimit {
			break
		}
	}

	if len(closed) > 0 {
		if s.publisher != nil {
			_ = s.publisher.Publish(ctx, groupbuy.NewGroupBuysBatchClosedEvent(closed, now))
		}
		s.logger.Info("expired group buys closed", zap.Int("count", len(closed)))
	}
	return closed, nil
}

// Get retrieves a group buy by ID
func (s *LifecycleService) Get(ctx context.Context, id uuid.UUID) (*GroupBuyResponse, error) {
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToGroupBuyResponse(gb)
	return &response, nil
}

// List retrieves group buys with filtering and pagination
func (s *LifecycleService) List(ctx context.Context, filter ListFilter) ([]GroupBuyResponse, int64, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	page, err := s.repo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	responses := make([]GroupBuyResponse, 0, len(page.Items))
	for i := range page.Items {
		responses = append(responses, ToGroupBuyResponse(&page.Items[i]))
	}
	return responses, page.Total, nil
}

// NextTier reports progress toward the next discount stage of a group buy
func (s *LifecycleService) NextTier(ctx context.Context, id uuid.UUID) (current decimal.Decimal, next *groupbuy.DiscountStage, err error) {
	gb, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return decimal.Zero, nil, err
	}
	return gb.CurrentDiscountRate(), gb.DiscountStages.NextStage(gb.OrderCount), nil
}

func (s *LifecycleService) publishEvents(ctx context.Context, gb *groupbuy.GroupBuy) {
	if s.publisher == nil {
		return
	}
	events := gb.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.publisher.Publish(ctx, events...)
	gb.ClearDomainEvents()
}
