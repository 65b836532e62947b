package services

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/thomas-vilte/matebot/internal/errors"
	"github.com/thomas-vilte/matebot/internal/logger"
	"github.com/thomas-vilte/matebot/internal/models"
)

const (
	// WaitOutcomeTimeout is returned when no terminal run was seen before the deadline.
	WaitOutcomeTimeout = "timeout"
	// WaitOutcomeCompleted is returned for a terminal run without a conclusion.
	WaitOutcomeCompleted = "completed"
	// WaitOutcomeSkipped records that no wait happened.
	WaitOutcomeSkipped = "skipped"
)

const (
	waitStatePolling       = "polling"
	waitStateFoundTerminal = "found-terminal"
	waitStateTimedOut      = "timed-out"
)

// runLister defines the methods needed by WorkflowWaiter from a VCS provider.
type runLister interface {
	ListWorkflowRuns(ctx context.Context, sha string) ([]models.WorkflowRun, error)
}

// Clock abstracts wall-clock reads and sleeps so the poll loop can be driven
// by tests.
type Clock struct {
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// RealClock returns a Clock backed by the time package. Sleep returns early
// with the context error when ctx is cancelled.
func RealClock() Clock {
	return Clock{
		Now: time.Now,
		Sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

type WaitOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

type WorkflowWaiter struct {
	runs  runLister
	opts  WaitOptions
	clock Clock
}

type WaiterOption func(*WorkflowWaiter)

func WithWaiterClock(clock Clock) WaiterOption {
	return func(w *WorkflowWaiter) {
		w.clock = clock
	}
}

func NewWorkflowWaiter(runs runLister, opts WaitOptions, options ...WaiterOption) *WorkflowWaiter {
	w := &WorkflowWaiter{
		runs:  runs,
		opts:  opts,
		clock: RealClock(),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

// Wait polls the runs of sha until the run named workflowName is terminal or
// the timeout elapses. It returns the run's conclusion, "completed" for a
// terminal run without one, or "timeout". Query failures are logged and
// retried; the only error returned is the context's.
func (w *WorkflowWaiter) Wait(ctx context.Context, workflowName, sha string) (string, error) {
	log := logger.FromContext(ctx).With(
		"workflow", workflowName,
		"sha", sha)

	start := w.clock.Now()
	deadline := start.Add(w.opts.Timeout)

	log.Info("waiting for workflow run",
		"state", waitStatePolling,
		"timeout", w.opts.Timeout.String(),
		"poll_interval", w.opts.PollInterval.String())

	attempt := 0
	for w.clock.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		attempt++

		runs, err := w.runs.ListWorkflowRuns(ctx, sha)
		switch {
		case err != nil && ctx.Err() != nil:
			return "", ctx.Err()
		case errors.Is(err, domainErrors.ErrUnexpectedResponse):
			log.Warn("unexpected response",
				"attempt", attempt,
				"error", err)
		case err != nil:
			log.Warn("failed to list workflow runs, retrying",
				"attempt", attempt,
				"error", err)
		default:
			run, found := findRun(runs, workflowName)
			if found && run.IsTerminal() {
				conclusion := run.Conclusion
				if conclusion == "" {
					conclusion = WaitOutcomeCompleted
				}
				log.Info("workflow run finished",
					"state", waitStateFoundTerminal,
					"conclusion", conclusion,
					"run_id", run.ID,
					"attempt", attempt,
					"elapsed", w.clock.Now().Sub(start).String())
				return conclusion, nil
			}
			if found {
				log.Info("workflow run still in progress",
					"state", waitStatePolling,
					"status", run.Status,
					"attempt", attempt)
			} else {
				log.Info("workflow run not found yet",
					"state", waitStatePolling,
					"runs", len(runs),
					"attempt", attempt)
			}
		}

		remaining := deadline.Sub(w.clock.Now())
		if remaining <= 0 {
			break
		}
		if err := w.clock.Sleep(ctx, min(w.opts.PollInterval, remaining)); err != nil {
			return "", err
		}
	}

	log.Warn("timed out waiting for workflow run, continuing anyway",
		"state", waitStateTimedOut,
		"attempts", attempt,
		"elapsed", w.clock.Now().Sub(start).String())

	return WaitOutcomeTimeout, nil
}

// findRun returns the first run with the given name. The API lists the most
// recent runs first.
func findRun(runs []models.WorkflowRun, name string) (models.WorkflowRun, bool) {
	for _, run := range runs {
		if run.Name == name {
			return run, true
		}
	}
	return models.WorkflowRun{}, false
}
