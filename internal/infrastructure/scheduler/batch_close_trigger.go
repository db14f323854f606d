package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BatchCloseTriggerConfig holds configuration for the batch close trigger
type BatchCloseTriggerConfig struct {
	// DailyCloseHour is the hour of day (0-23) to run the daily close sweep
	DailyCloseHour int

	// SweepInterval is how often the safety-net expiry sweep runs between
	// daily closes, catching group buys that expired mid-day
	SweepInterval time.Duration

	// CheckInterval is how often to check if the daily close time was reached
	CheckInterval time.Duration
}

// DefaultBatchCloseTriggerConfig returns default trigger configuration
func DefaultBatchCloseTriggerConfig() BatchCloseTriggerConfig {
	return BatchCloseTriggerConfig{
		DailyCloseHour: 0, // midnight
		SweepInterval:  time.Hour,
		CheckInterval:  time.Minute,
	}
}

// BatchCloseTrigger fires the daily close sweep and the periodic safety-net
// sweep that closes expired group buys between daily runs
type BatchCloseTrigger struct {
	config    BatchCloseTriggerConfig
	scheduler *Scheduler
	logger    *zap.Logger

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string // date of the last daily close in 2006-01-02 form
}

// NewBatchCloseTrigger creates a new batch close trigger
func NewBatchCloseTrigger(config BatchCloseTriggerConfig, scheduler *Scheduler, logger *zap.Logger) *BatchCloseTrigger {
	return &BatchCloseTrigger{
		config:    config,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Start starts the trigger loops
func (t *BatchCloseTrigger) Start(ctx context.Context) error {
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
	go t.dailyLoop(ctx)
	go t.sweepLoop(ctx)

	t.logger.Info("Batch close trigger started",
		zap.Int("daily_close_hour", t.config.DailyCloseHour),
		zap.Duration("sweep_interval", t.config.SweepInterval),
	)

	return nil
}

// Stop stops the trigger
func (t *BatchCloseTrigger) Stop(ctx context.Context) error {
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
		t.logger.Info("Batch close trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dailyLoop checks periodically whether the daily close hour was reached
func (t *BatchCloseTrigger) dailyLoop(ctx context.Context) {
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

// sweepLoop runs the safety-net close sweep between daily runs
func (t *BatchCloseTrigger) sweepLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := t.scheduler.ScheduleBatchClose(); err != nil {
				t.logger.Error("Failed to schedule safety-net close sweep", zap.Error(err))
			}
		}
	}
}

// checkAndTrigger fires the daily close once per calendar day
func (t *BatchCloseTrigger) checkAndTrigger(now time.Time) {
	currentDate := now.Format("2006-01-02")

	// Skip if we already ran today
	t.mu.Lock()
	if t.lastRunDate == currentDate {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	if now.Hour() != t.config.DailyCloseHour {
		return
	}

	t.mu.Lock()
	t.lastRunDate = currentDate
	t.mu.Unlock()

	t.logger.Info("Triggering daily batch close", zap.String("date", currentDate))
	if err := t.scheduler.ScheduleBatchClose(); err != nil {
		t.logger.Error("Failed to schedule daily batch close", zap.Error(err))
	}
}

// TriggerManualClose allows an operator to enqueue a close sweep on demand
func (t *BatchCloseTrigger) TriggerManualClose() error {
	return t.scheduler.ScheduleBatchClose()
}
