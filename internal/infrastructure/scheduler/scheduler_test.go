package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

type countingExecutor struct {
	batchCloses  atomic.Int32
	rankingSyncs atomic.Int32
	failures     atomic.Int32
	failFirst    int32
}

func (e *countingExecutor) Execute(_ context.Context, job *Job) error {
	if e.failures.Load() < e.failFirst {
		e.failures.Add(1)
		return errors.New("transient failure")
	}
	switch job.Type {
	case JobTypeBatchClose:
		e.batchCloses.Add(1)
	case JobTypeRankingSync:
		e.rankingSyncs.Add(1)
	}
	return nil
}

func TestNewJob(t *testing.T) {
	job := NewJob(JobTypeBatchClose, 3)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, JobTypeBatchClose, job.Type)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 3, job.MaxRetries)
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
}

func TestJob_Start(t *testing.T) {
	job := NewJob(JobTypeRankingSync, 3)
	job.Error = "previous error"

	job.Start()

	assert.Equal(t, JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)
	assert.Empty(t, job.Error)
}

func TestJob_Complete(t *testing.T) {
	job := NewJob(JobTypeBatchClose, 3)
	job.Start()

	job.Complete()

	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.NotNil(t, job.CompletedAt)
}

func TestJob_Fail(t *testing.T) {
	job := NewJob(JobTypeBatchClose, 3)
	job.Start()

	job.Fail("database unreachable")

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Equal(t, "database unreachable", job.Error)
}

func TestJob_ShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		status     JobStatus
		retryCount int
		maxRetries int
		expected   bool
	}{
		{"failed with retries available", JobStatusFailed, 0, 3, true},
		{"failed max retries reached", JobStatusFailed, 3, 3, false},
		{"success should not retry", JobStatusSuccess, 0, 3, false},
		{"running should not retry", JobStatusRunning, 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewJob(JobTypeBatchClose, tt.maxRetries)
			job.Status = tt.status
			job.RetryCount = tt.retryCount

			assert.Equal(t, tt.expected, job.ShouldRetry())
		})
	}
}

func TestJob_ScheduleRetry(t *testing.T) {
	job := NewJob(JobTypeBatchClose, 3)
	job.Fail("boom")

	job.ScheduleRetry(5 * time.Minute)

	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	require.NotNil(t, job.NextRetryAt)
	assert.True(t, job.NextRetryAt.After(time.Now()))
	assert.Empty(t, job.Error)
}

func TestScheduler_SubmitBeforeStart(t *testing.T) {
	s := NewScheduler(DefaultConfig(), &countingExecutor{}, newTestLogger())

	err := s.ScheduleBatchClose()

	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_ProcessesSubmittedJobs(t *testing.T) {
	executor := &countingExecutor{}
	s := NewScheduler(DefaultConfig(), executor, newTestLogger())

	require.NoError(t, s.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(stopCtx)
	}()

	require.NoError(t, s.ScheduleBatchClose())
	require.NoError(t, s.ScheduleRankingSync())

	assert.Eventually(t, func() bool {
		return executor.batchCloses.Load() == 1 && executor.rankingSyncs.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_StartTwiceIsNoOp(t *testing.T) {
	s := NewScheduler(DefaultConfig(), &countingExecutor{}, newTestLogger())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(stopCtx))
}

func TestScheduler_RetriesFailedJob(t *testing.T) {
	executor := &countingExecutor{failFirst: 1}
	config := DefaultConfig()
	config.RetryDelay = 10 * time.Millisecond
	s := NewScheduler(config, executor, newTestLogger())

	require.NoError(t, s.Start(context.Background()))
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(stopCtx)
	}()

	require.NoError(t, s.ScheduleBatchClose())

	assert.Eventually(t, func() bool {
		return executor.batchCloses.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), executor.failures.Load())
}
