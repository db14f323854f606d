package ranking

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/groupbuy/backend/internal/domain/order"
)

// Entry is one row of the group buy ranking
type Entry struct {
	GroupBuyID uuid.UUID `json:"group_buy_id"`
	OrderCount int       `json:"order_count"`
	Rank       int       `json:"rank"`
}

// Store is the port to the ranking cache. Backed by a Redis sorted set in
// production and an in-memory implementation in tests.
type Store interface {
	// IncrementScore adds delta to a group buy's score and returns the new score
	IncrementScore(ctx context.Context, groupBuyID uuid.UUID, delta int) (int, error)

	// SetScores replaces the scores of the given group buys
	SetScores(ctx context.Context, scores map[uuid.UUID]int) error

	// Top returns the highest-scored group buys, best first
	Top(ctx context.Context, limit int) ([]Entry, error)

	// Remove drops a group buy from the ranking
	Remove(ctx context.Context, groupBuyID uuid.UUID) error
}

// Service keeps the ranking cache in sync with order activity. The cache is
// an approximation between syncs; SyncFromOrders rebuilds it from the
// durable order rows, which are the source of truth.
type Service struct {
	store     Store
	orderRepo order.Repository
	logger    *zap.Logger
}

// NewService creates a new ranking Service
func NewService(store Store, orderRepo order.Repository, logger *zap.Logger) *Service {
	return &Service{store: store, orderRepo: orderRepo, logger: logger}
}

// RecordOrder bumps a group buy's score by the ordered quantity.
// Negative deltas record refunds.
func (s *Service) RecordOrder(ctx context.Context, groupBuyID uuid.UUID, quantity int) error {
	score, err := s.store.IncrementScore(ctx, groupBuyID, quantity)
	if err != nil {
		return err
	}
	s.logger.Debug("ranking score updated",
		zap.String("group_buy_id", groupBuyID.String()),
		zap.Int("score", score))
	return nil
}

// Top returns the current top group buys by ordered quantity
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.store.Top(ctx, limit)
}

// SyncFromOrders rebuilds the ranking cache from the durable order rows.
// Run periodically so increment drift (lost updates, cache restarts) heals
// on its own.
func (s *Service) SyncFromOrders(ctx context.Context) error {
	scores, err := s.orderRepo.SumOrderedQuantityByGroupBuy(ctx)
	if err != nil {
		return err
	}
	if err := s.store.SetScores(ctx, scores); err != nil {
		return err
	}
	s.logger.Info("ranking cache synced from orders", zap.Int("group_buys", len(scores)))
	return nil
}

// RemoveGroupBuy drops a closed group buy from the ranking
func (s *Service) RemoveGroupBuy(ctx context.Context, groupBuyID uuid.UUID) error {
	return s.store.Remove(ctx, groupBuyID)
}
