package scheduler

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpiryCloser closes open group buys whose deadline has passed
type ExpiryCloser interface {
	CloseExpired(ctx context.Context) ([]uuid.UUID, error)
}

// RankingSyncer rebuilds the ranking cache from durable order data
type RankingSyncer interface {
	SyncFromOrders(ctx context.Context) error
}

// GroupBuyJobExecutor dispatches scheduler jobs to the application services
type GroupBuyJobExecutor struct {
	closer ExpiryCloser
	syncer RankingSyncer
	logger *zap.Logger
}

// NewGroupBuyJobExecutor creates a new executor
func NewGroupBuyJobExecutor(closer ExpiryCloser, syncer RankingSyncer, logger *zap.Logger) *GroupBuyJobExecutor {
	return &GroupBuyJobExecutor{
		closer: closer,
		syncer: syncer,
		logger: logger,
	}
}

// Execute runs a single job according to its type
func (e *GroupBuyJobExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeBatchClose:
		closed, err := e.closer.CloseExpired(ctx)
		if err != nil {
			return err
		}
		e.logger.Info("Batch close sweep finished",
			zap.String("job_id", job.ID.String()),
			zap.Int("closed_count", len(closed)),
		)
		return nil
	case JobTypeRankingSync:
		return e.syncer.SyncFromOrders(ctx)
	default:
		return ErrInvalidJobType
	}
}
