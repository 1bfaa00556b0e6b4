package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/aurevo/storefront/pkg/logger"
	"github.com/aurevo/storefront/pkg/orderapi"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = time.Second
	DefaultRequestTimeout = 15 * time.Second

	msgAllAttemptsFailed = "All submission attempts failed"
)

// Sender delivers one order document. orderapi.Client satisfies it.
type Sender interface {
	Send(ctx context.Context, payload any) (*orderapi.Result, error)
}

// Sleeper waits between attempts. Tests inject a fake that returns immediately.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper sleeps on a real timer and aborts when ctx is done.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AttemptRecorder observes attempts and terminal outcomes.
type AttemptRecorder interface {
	ObserveAttempt(ok bool, duration time.Duration)
	IncOutcome(success bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(bool, time.Duration) {}
func (nopRecorder) IncOutcome(bool)                    {}

// Outcome is the terminal verdict of one submission sequence.
type Outcome struct {
	Success       bool
	ServerOrderID string
	Reason        string
	Attempts      int
}

// SubmitterParams wires a Submitter.
type SubmitterParams struct {
	Sender     Sender
	Sleeper    Sleeper
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
	Metrics    AttemptRecorder
	Logger     *logger.Logger
}

// Submitter posts orders with a bounded, strictly sequential linear-backoff retry.
type Submitter struct {
	sender     Sender
	sleeper    Sleeper
	maxRetries int
	baseDelay  time.Duration
	timeout    time.Duration
	metrics    AttemptRecorder
	logg       *logger.Logger
}

func NewSubmitter(params SubmitterParams) (*Submitter, error) {
	if params.Sender == nil {
		return nil, fmt.Errorf("order sender required")
	}
	s := &Submitter{
		sender:     params.Sender,
		sleeper:    params.Sleeper,
		maxRetries: params.MaxRetries,
		baseDelay:  params.BaseDelay,
		timeout:    params.Timeout,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}
	if s.sleeper == nil {
		s.sleeper = TimerSleeper{}
	}
	if s.maxRetries < 1 {
		s.maxRetries = DefaultMaxRetries
	}
	if s.baseDelay < 0 {
		s.baseDelay = DefaultRetryBaseDelay
	}
	if s.timeout <= 0 {
		s.timeout = DefaultRequestTimeout
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	return s, nil
}

// linearBackoff yields attempt*base for attempts 1..maxRetries-1, then stops.
func linearBackoff(base time.Duration, maxRetries int) retry.Backoff {
	var attempt int64
	next := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * base, false
	})
	return retry.WithMaxRetries(uint64(maxRetries-1), next)
}

// Submit delivers the order. Each attempt gets its own timeout; attempt n+1
// starts only after attempt n resolved and its backoff elapsed.
func (s *Submitter) Submit(ctx context.Context, order OrderRecord) Outcome {
	payload := order.Payload()
	backoff := linearBackoff(s.baseDelay, s.maxRetries)
	ctx = s.logg.WithOrderID(ctx, order.OrderID)

	lastReason := msgAllAttemptsFailed
	attempt := 0
	for {
		attempt++
		result, err := s.attempt(ctx, payload)
		if err == nil {
			s.metrics.IncOutcome(true)
			outcome := Outcome{Success: true, Attempts: attempt}
			if result != nil {
				outcome.ServerOrderID = result.OrderID
			}
			s.logg.Info(s.logg.WithField(ctx, "attempts", attempt), "order submitted")
			return outcome
		}
		if reason := orderapi.FailureMessage(err); reason != "" {
			lastReason = reason
		}
		s.logg.WarnErr(s.logg.WithFields(ctx, map[string]any{"attempt": attempt, "max_retries": s.maxRetries}), "order submission attempt failed", err)

		delay, stop := backoff.Next()
		if stop {
			break
		}
		if err := s.sleeper.Sleep(ctx, delay); err != nil {
			s.logg.WarnErr(ctx, "order submission retry wait aborted", err)
			break
		}
	}

	s.metrics.IncOutcome(false)
	return Outcome{Reason: lastReason, Attempts: attempt}
}

func (s *Submitter) attempt(ctx context.Context, payload Payload) (*orderapi.Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	result, err := s.sender.Send(attemptCtx, payload)
	s.metrics.ObserveAttempt(err == nil, time.Since(started))
	return result, err
}
