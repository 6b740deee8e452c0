package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/five82/ntdash/internal/nt"
	"github.com/five82/ntdash/internal/state"
)

const (
	defaultPollInterval = time.Second
	maxBackoff          = 30 * time.Second
)

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	backoff := base
	for range failures {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// StartPoller launches one goroutine per subscription of client that refreshes
// it at its periodic option, or interval when unset. The returned channel is
// closed once every goroutine has exited.
func StartPoller(ctx context.Context, store *state.Store, client *nt.Client, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var wg sync.WaitGroup
	for _, sub := range client.Subscriptions() {
		period := sub.Options().Periodic
		if period <= 0 {
			period = interval
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			poll(ctx, store, client, sub, period, logger)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func poll(ctx context.Context, store *state.Store, client *nt.Client, sub *nt.Subscription, period time.Duration, logger *zap.Logger) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		err := refresh(ctx, store, client, sub)
		switch {
		case errors.Is(err, nt.ErrUnsubscribed), errors.Is(err, nt.ErrClientStopped):
			return
		case ctx.Err() != nil:
			return
		case err != nil:
			failures++
			logger.Warn("refresh failed",
				zap.String("pattern", sub.Pattern()),
				zap.Int("failures", failures),
				zap.Error(err),
			)
		default:
			failures = 0
		}
		timer.Reset(calculateBackoff(failures, period))
	}
}

// refresh runs one refresh of sub and records the outcome in store.
func refresh(ctx context.Context, store *state.Store, client *nt.Client, sub *nt.Subscription) error {
	id := client.Identity().String()
	_, err := sub.Refresh(ctx)
	switch {
	case errors.Is(err, nt.ErrUnsubscribed), errors.Is(err, nt.ErrClientStopped):
		store.Remove(id, sub.Pattern())
	case err != nil:
		store.Update(id, sub.Pattern(), nil, err)
	default:
		store.Update(id, sub.Pattern(), sub.Cache(), nil)
	}
	return err
}
