package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
)

type fakeClock struct {
	now     time.Time
	sleeps  []time.Duration
	onSleep func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Clock() Clock {
	return Clock{
		Now: func() time.Time { return f.now },
		Sleep: func(ctx context.Context, d time.Duration) error {
			f.sleeps = append(f.sleeps, d)
			f.now = f.now.Add(d)
			if f.onSleep != nil {
				f.onSleep()
			}
			return ctx.Err()
		},
	}
}

func captureLogs(t *testing.T) (context.Context, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger.WithLogger(context.Background(), log), &buf
}

const (
	testWorkflow = "Generate Documentation"
	testSHA      = "def456"
)

func TestWorkflowWaiter_Wait(t *testing.T) {
	opts := WaitOptions{Timeout: 10 * time.Minute, PollInterval: 3 * time.Minute}

	t.Run("should return the conclusion once the run completes", func(t *testing.T) {
		clock := newFakeClock()
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, opts, WithWaiterClock(clock.Clock()))

		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).Return([]models.WorkflowRun{}, nil).Once()
		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).Return([]models.WorkflowRun{
			{Name: testWorkflow, Status: models.RunStatusInProgress},
		}, nil).Once()
		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).Return([]models.WorkflowRun{
			{Name: "CI", Status: models.RunStatusCompleted, Conclusion: "failure"},
			{Name: testWorkflow, Status: models.RunStatusCompleted, Conclusion: "success"},
		}, nil).Once()

		outcome, err := waiter.Wait(context.Background(), testWorkflow, testSHA)

		require.NoError(t, err)
		assert.Equal(t, "success", outcome)
		assert.Equal(t, []time.Duration{3 * time.Minute, 3 * time.Minute}, clock.sleeps)
		mockVCS.AssertExpectations(t)
	})

	t.Run("should report completed when the conclusion is missing", func(t *testing.T) {
		clock := newFakeClock()
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, opts, WithWaiterClock(clock.Clock()))

		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).Return([]models.WorkflowRun{
			{Name: testWorkflow, Status: models.RunStatusCompleted},
		}, nil).Once()

		outcome, err := waiter.Wait(context.Background(), testWorkflow, testSHA)

		require.NoError(t, err)
		assert.Equal(t, WaitOutcomeCompleted, outcome)
		assert.Empty(t, clock.sleeps)
	})

	t.Run("should pass through failure conclusions", func(t *testing.T) {
		clock := newFakeClock()
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, opts, WithWaiterClock(clock.Clock()))

		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).Return([]models.WorkflowRun{
			{Name: testWorkflow, Status: models.RunStatusCompleted, Conclusion: "cancelled"},
		}, nil).Once()

		outcome, err := waiter.Wait(context.Background(), testWorkflow, testSHA)

		require.NoError(t, err)
		assert.Equal(t, "cancelled", outcome)
	})

	t.Run("should time out no later than the deadline", func(t *testing.T) {
		clock := newFakeClock()
		start := clock.now
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, opts, WithWaiterClock(clock.Clock()))

		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).Return([]models.WorkflowRun{
			{Name: testWorkflow, Status: models.RunStatusQueued},
		}, nil)

		outcome, err := waiter.Wait(context.Background(), testWorkflow, testSHA)

		require.NoError(t, err)
		assert.Equal(t, WaitOutcomeTimeout, outcome)
		assert.Equal(t, []time.Duration{3 * time.Minute, 3 * time.Minute, 3 * time.Minute, time.Minute}, clock.sleeps)
		assert.Equal(t, start.Add(opts.Timeout), clock.now)
		mockVCS.AssertNumberOfCalls(t, "ListWorkflowRuns", 4)
	})

	t.Run("should cap the last sleep when a slow query eats the budget", func(t *testing.T) {
		clock := newFakeClock()
		start := clock.now
		short := WaitOptions{Timeout: time.Minute, PollInterval: 45 * time.Second}
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, short, WithWaiterClock(clock.Clock()))

		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).
			Run(func(mock.Arguments) { clock.now = clock.now.Add(40 * time.Second) }).
			Return([]models.WorkflowRun{{Name: testWorkflow, Status: models.RunStatusInProgress}}, nil)

		outcome, err := waiter.Wait(context.Background(), testWorkflow, testSHA)

		require.NoError(t, err)
		assert.Equal(t, WaitOutcomeTimeout, outcome)
		assert.Equal(t, []time.Duration{20 * time.Second}, clock.sleeps)
		assert.Equal(t, start.Add(short.Timeout), clock.now)
		assert.False(t, clock.now.After(start.Add(short.Timeout+short.PollInterval)))
		mockVCS.AssertNumberOfCalls(t, "ListWorkflowRuns", 1)
	})

	t.Run("should not sleep after a query that runs past the deadline", func(t *testing.T) {
		clock := newFakeClock()
		start := clock.now
		short := WaitOptions{Timeout: time.Minute, PollInterval: 45 * time.Second}
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, short, WithWaiterClock(clock.Clock()))

		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).
			Run(func(mock.Arguments) { clock.now = clock.now.Add(70 * time.Second) }).
			Return([]models.WorkflowRun{}, nil)

		outcome, err := waiter.Wait(context.Background(), testWorkflow, testSHA)

		require.NoError(t, err)
		assert.Equal(t, WaitOutcomeTimeout, outcome)
		assert.Empty(t, clock.sleeps)
		assert.False(t, clock.now.After(start.Add(short.Timeout+short.PollInterval)))
		mockVCS.AssertNumberOfCalls(t, "ListWorkflowRuns", 1)
	})

	t.Run("should not poll when the timeout is zero", func(t *testing.T) {
		clock := newFakeClock()
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, WaitOptions{PollInterval: time.Second}, WithWaiterClock(clock.Clock()))

		outcome, err := waiter.Wait(context.Background(), testWorkflow, testSHA)

		require.NoError(t, err)
		assert.Equal(t, WaitOutcomeTimeout, outcome)
		mockVCS.AssertNotCalled(t, "ListWorkflowRuns", mock.Anything, mock.Anything)
	})

	t.Run("should log unexpected responses and keep polling", func(t *testing.T) {
		ctx, logs := captureLogs(t)
		clock := newFakeClock()
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, opts, WithWaiterClock(clock.Clock()))

		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).
			Return(nil, domainErrors.ErrUnexpectedResponse.WithContext("reason", "missing workflow_runs array")).Once()
		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).Return([]models.WorkflowRun{
			{Name: testWorkflow, Status: models.RunStatusCompleted, Conclusion: "success"},
		}, nil).Once()

		outcome, err := waiter.Wait(ctx, testWorkflow, testSHA)

		require.NoError(t, err)
		assert.Equal(t, "success", outcome)
		assert.Contains(t, logs.String(), `msg="unexpected response"`)
		mockVCS.AssertExpectations(t)
	})

	t.Run("should treat transport errors like a missing run", func(t *testing.T) {
		clock := newFakeClock()
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, opts, WithWaiterClock(clock.Clock()))

		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).Return(nil, errors.New("connection reset"))

		outcome, err := waiter.Wait(context.Background(), testWorkflow, testSHA)

		require.NoError(t, err)
		assert.Equal(t, WaitOutcomeTimeout, outcome)
		mockVCS.AssertNumberOfCalls(t, "ListWorkflowRuns", 4)
	})

	t.Run("should stop when the context is cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		clock := newFakeClock()
		clock.onSleep = cancel
		mockVCS := &MockVCSClient{}
		waiter := NewWorkflowWaiter(mockVCS, opts, WithWaiterClock(clock.Clock()))

		mockVCS.On("ListWorkflowRuns", mock.Anything, testSHA).Return([]models.WorkflowRun{}, nil)

		outcome, err := waiter.Wait(ctx, testWorkflow, testSHA)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, outcome)
		mockVCS.AssertNumberOfCalls(t, "ListWorkflowRuns", 1)
	})
}

func TestRealClock_SleepHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RealClock().Sleep(ctx, time.Hour)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindRun(t *testing.T) {
	runs := []models.WorkflowRun{
		{ID: 3, Name: testWorkflow, Status: models.RunStatusInProgress},
		{ID: 2, Name: testWorkflow, Status: models.RunStatusCompleted},
	}

	run, found := findRun(runs, testWorkflow)
	assert.True(t, found)
	assert.Equal(t, int64(3), run.ID)

	_, found = findRun(runs, "Release")
	assert.False(t, found)
}
