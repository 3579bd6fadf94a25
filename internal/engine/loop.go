package engine

import (
	"context"
	"time"

	"trading-agent/internal/fail"
	"trading-agent/internal/interfaces"
	"trading-agent/internal/logger"
	"trading-agent/internal/metrics"
	"trading-agent/internal/notify"
	"trading-agent/internal/store"
)

// Loop drives Engine.Step on a fixed cadence with retry accounting and an
// extended backoff after retryLimit counted failures.
type Loop struct {
	engine       interfaces.Engine
	notifier     interfaces.Notifier
	retryLimit   int
	baseSleep    time.Duration
	backoffSleep time.Duration
	wait         func(ctx context.Context, d time.Duration) error

	retryCount          int
	consecutiveFailures int
}

func NewLoop(cfg *store.Config, eng interfaces.Engine, notifier interfaces.Notifier) *Loop {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &Loop{
		engine:       eng,
		notifier:     notifier,
		retryLimit:   cfg.RetryLimit,
		baseSleep:    cfg.BaseSleep(),
		backoffSleep: cfg.BackoffSleep(),
		wait:         WaitForContext,
	}
}

// WaitForContext sleeps for delay or until ctx is done.
func WaitForContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run blocks until ctx is cancelled and then returns nil.
func (l *Loop) Run(ctx context.Context) error {
	logger.Info(ctx, "Trading loop started",
		"retry_limit", l.retryLimit,
		"base_sleep", l.baseSleep.String(),
		"backoff_sleep", l.backoffSleep.String(),
	)

	for ctx.Err() == nil {
		backoff := l.iterate(ctx)
		if backoff {
			if err := l.wait(ctx, l.backoffSleep); err != nil {
				break
			}
		}
		if err := l.wait(ctx, l.baseSleep); err != nil {
			break
		}
	}

	logger.Info(ctx, "Trading loop stopped")
	return nil
}

// iterate runs one Step and reports whether the extended backoff is due.
// Venue calls run detached from the stop signal so an in-flight request is
// never torn down halfway.
func (l *Loop) iterate(ctx context.Context) bool {
	res, err := l.engine.Step(context.WithoutCancel(ctx))
	if err == nil {
		metrics.IterationsTotal.WithLabelValues(res.Outcome).Inc()
		if l.consecutiveFailures > 0 {
			logger.Info(ctx, "Trading loop recovered", "failures", l.consecutiveFailures)
			if nerr := l.notifier.NotifyRecovery(ctx, l.consecutiveFailures); nerr != nil {
				logger.Warn(ctx, "Failed to send recovery notification", "error", nerr)
			}
			l.consecutiveFailures = 0
		}
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	kind := "unclassified"
	if k, ok := fail.KindOf(err); ok {
		kind = string(k)
	}
	metrics.IterationsTotal.WithLabelValues("error").Inc()
	metrics.FailuresTotal.WithLabelValues(kind).Inc()

	l.consecutiveFailures++
	if l.consecutiveFailures == 1 {
		if nerr := l.notifier.NotifyError(ctx, err); nerr != nil {
			logger.Warn(ctx, "Failed to send error notification", "error", nerr)
		}
	}

	l.retryCount++
	logger.ErrorWithErr(ctx, "Iteration failed", err,
		"kind", kind,
		"retry_count", l.retryCount,
		"retry_limit", l.retryLimit,
	)
	if l.retryCount >= l.retryLimit {
		l.retryCount = 0
		metrics.RetryCounter.Set(0)
		metrics.BackoffsTotal.Inc()
		logger.Warn(ctx, "Retry limit reached, backing off", "backoff_sleep", l.backoffSleep.String())
		return true
	}
	metrics.RetryCounter.Set(float64(l.retryCount))
	return false
}
