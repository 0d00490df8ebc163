package main

import (
	"context"
	"log/slog"
	"time"
)

type sessionResyncer interface {
	Fetch(ctx context.Context) (bool, error)
}

type resyncTicker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	ticker *time.Ticker
}

func (t timeTicker) C() <-chan time.Time {
	return t.ticker.C
}

func (t timeTicker) Stop() {
	t.ticker.Stop()
}

type tickerFactory func(time.Duration) resyncTicker

// runResyncWorker periodically reconciles the local session cache against
// the media server until the context is cancelled. It always returns nil
// so that a graceful shutdown does not surface as a failure.
func runResyncWorker(ctx context.Context, logger *slog.Logger, sessions sessionResyncer, interval time.Duration) error {
	return runResyncWorkerWithTicker(ctx, logger, sessions, interval, func(d time.Duration) resyncTicker {
		return timeTicker{ticker: time.NewTicker(d)}
	})
}

func runResyncWorkerWithTicker(
	ctx context.Context,
	logger *slog.Logger,
	sessions sessionResyncer,
	interval time.Duration,
	newTicker tickerFactory,
) error {
	if sessions == nil || interval <= 0 {
		return nil
	}
	ticker := newTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			changed, err := sessions.Fetch(ctx)
			if err != nil {
				if logger != nil {
					logger.Error("session resync failed", "error", err)
				}
				continue
			}
			if changed && logger != nil {
				logger.Info("session cache updated from media server")
			}
		}
	}
}
