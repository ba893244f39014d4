package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) error {
	c.calls.Add(1)
	return c.err
}

func TestRunOnce(t *testing.T) {
	ref := &countingRefresher{}
	r := New(ref, "", zap.NewNop())

	r.runOnce()
	if got := ref.calls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestRunOnce_RefreshFailureIsSwallowed(t *testing.T) {
	ref := &countingRefresher{err: errors.New("backend down")}
	r := New(ref, "", zap.NewNop())

	r.runOnce()
	if got := ref.calls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestDefaultSpec(t *testing.T) {
	r := New(&countingRefresher{}, "", zap.NewNop())
	if r.spec != DefaultSpec {
		t.Errorf("spec = %q, want %q", r.spec, DefaultSpec)
	}
}

func TestStart_BadSpec(t *testing.T) {
	r := New(&countingRefresher{}, "not a cron spec", zap.NewNop())
	if err := r.Start(); err == nil {
		t.Error("expected an error for a malformed schedule")
	}
}

func TestScheduledRun(t *testing.T) {
	ref := &countingRefresher{}
	r := New(ref, "@every 10ms", zap.NewNop())
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for ref.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("reconciliation never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStop_Idempotent(t *testing.T) {
	r := New(&countingRefresher{}, "", zap.NewNop())
	if err := r.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	r.Stop()
	r.Stop()
}
