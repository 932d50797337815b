package background

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingCleaner struct {
	calls atomic.Int32
}

func (c *countingCleaner) Cleanup() {
	c.calls.Add(1)
}

func TestCleanupRunsPeriodically(t *testing.T) {
	cleaner := &countingCleaner{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cm := NewCleanupManager(cleaner, logger, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cm.Start(ctx)

	deadline := time.After(time.Second)
	for cleaner.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("cleanup ran %d times, want at least 2", cleaner.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cm.Stop()
}

func TestCleanupStopsOnContextCancel(t *testing.T) {
	cleaner := &countingCleaner{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cm := NewCleanupManager(cleaner, logger, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cm.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}
