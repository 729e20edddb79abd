package run

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestGraceful_RunsShutdownAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	called := make(chan struct{})
	go New(zap.NewNop()).Graceful(ctx, func(c context.Context) error {
		if _, ok := c.Deadline(); !ok {
			t.Error("expected a shutdown deadline")
		}
		close(called)
		return nil
	})

	select {
	case <-called:
		t.Fatal("shutdown ran before context was cancelled")
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("shutdown was not invoked after cancel")
	}
}

func TestWithSignals_ReturnsZeroOnCleanExit(t *testing.T) {
	code := New(zap.NewNop()).WithSignals(func(ctx context.Context) error {
		return nil
	})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}
