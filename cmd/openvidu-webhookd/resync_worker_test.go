package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

type fakeResyncer struct {
	calls chan struct{}
	err   error
}

func newFakeResyncer() *fakeResyncer {
	return &fakeResyncer{calls: make(chan struct{}, 4)}
}

func (f *fakeResyncer) Fetch(context.Context) (bool, error) {
	select {
	case f.calls <- struct{}{}:
	default:
	}
	return true, f.err
}

type manualTicker struct {
	c       chan time.Time
	stopped chan struct{}
}

func newManualTicker() *manualTicker {
	return &manualTicker{
		c:       make(chan time.Time, 1),
		stopped: make(chan struct{}),
	}
}

func (m *manualTicker) C() <-chan time.Time {
	return m.c
}

func (m *manualTicker) Stop() {
	select {
	case <-m.stopped:
		return
	default:
		close(m.stopped)
	}
}

func (m *manualTicker) Tick() {
	select {
	case m.c <- time.Now():
	default:
	}
}

func TestRunResyncWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := newManualTicker()
	resyncer := newFakeResyncer()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan error, 1)
	go func() {
		done <- runResyncWorkerWithTicker(ctx, logger, resyncer, time.Minute, func(time.Duration) resyncTicker {
			return ticker
		})
	}()

	ticker.Tick()
	select {
	case <-resyncer.calls:
	case <-time.After(time.Second):
		t.Fatal("expected resync to be invoked")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
	select {
	case <-ticker.stopped:
	case <-time.After(time.Second):
		t.Fatal("ticker was not stopped")
	}
}

func TestRunResyncWorkerSurvivesFetchErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := newManualTicker()
	resyncer := newFakeResyncer()
	resyncer.err = errors.New("server unreachable")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	done := make(chan error, 1)
	go func() {
		done <- runResyncWorkerWithTicker(ctx, logger, resyncer, time.Minute, func(time.Duration) resyncTicker {
			return ticker
		})
	}()

	for i := 0; i < 2; i++ {
		ticker.Tick()
		select {
		case <-resyncer.calls:
		case <-time.After(time.Second):
			t.Fatalf("expected resync attempt %d despite errors", i+1)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("worker returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRunResyncWorkerDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := runResyncWorker(context.Background(), logger, nil, time.Minute); err != nil {
		t.Fatalf("nil resyncer should be a no-op, got %v", err)
	}
	if err := runResyncWorker(context.Background(), logger, newFakeResyncer(), 0); err != nil {
		t.Fatalf("zero interval should be a no-op, got %v", err)
	}
}
