package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RankingSyncTriggerConfig holds configuration for the ranking sync trigger
type RankingSyncTriggerConfig struct {
	// Period is how often the interval resync runs
	Period time.Duration

	// DailyFullSyncHour is the hour of day (0-23) for the daily full resync,
	// run off-peak so a cold cache rebuild does not compete with traffic
	DailyFullSyncHour int

	// CheckInterval is how often to check if the daily sync time was reached
	CheckInterval time.Duration
}

// DefaultRankingSyncTriggerConfig returns default trigger configuration
func DefaultRankingSyncTriggerConfig() RankingSyncTriggerConfig {
	return RankingSyncTriggerConfig{
		Period:            15 * time.Minute,
		DailyFullSyncHour: 3,
		CheckInterval:     time.Minute,
	}
}

// RankingSyncTrigger periodically enqueues a ranking cache rebuild so the
// sorted set converges back to the durable order rows after cache drift.
// It fires on two cadences: the configured interval and a daily full
// resync at DailyFullSyncHour.
type RankingSyncTrigger struct {
	config    RankingSyncTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // date of the last daily full sync in 2006-01-02 form
}

// NewRankingSyncTrigger creates a new ranking sync trigger
func NewRankingSyncTrigger(config RankingSyncTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *RankingSyncTrigger {
	return &RankingSyncTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the trigger loops
func (t *RankingSyncTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(2)
	go t.intervalLoop(ctx)
	go t.dailyLoop(ctx)

	t.logger.Info("Ranking sync trigger started",
		zap.Duration("period", t.config.Period),
		zap.Int("daily_full_sync_hour", t.config.DailyFullSyncHour),
	)

	return nil
}

// Stop stops the trigger
func (t *RankingSyncTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Ranking sync trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// intervalLoop runs the periodic resync between daily full syncs
func (t *RankingSyncTrigger) intervalLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.scheduler.ScheduleRankingSync(); err != nil {
				t.logger.Error("Failed to schedule ranking sync", zap.Error(err))
			}
		}
	}
}

// dailyLoop checks periodically whether the daily full sync hour was reached
func (t *RankingSyncTrigger) dailyLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(time.Now())
		}
	}
}

// checkAndTrigger fires the daily full sync once per calendar day
func (t *RankingSyncTrigger) checkAndTrigger(now time.Time) {
	currentDate := now.Format("2006-01-02")

	// Skip if we already ran today
	t.mu.Lock()
	if t.lastRunDate == currentDate {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	if now.Hour() != t.config.DailyFullSyncHour {
		return
	}

	t.mu.Lock()
	t.lastRunDate = currentDate
	t.mu.Unlock()

	t.logger.Info("Triggering daily ranking full sync", zap.String("date", currentDate))
	if err := t.scheduler.ScheduleRankingSync(); err != nil {
		t.logger.Error("Failed to schedule daily ranking full sync", zap.Error(err))
	}
}
