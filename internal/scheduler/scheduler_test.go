package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNew_InvalidArgs(t *testing.T) {
	if _, err := New("x", 0, discard(), func(context.Context) {}); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := New("x", time.Second, discard(), nil); err == nil {
		t.Fatalf("expected error for nil tick")
	}
}

func TestSweep_StartStop(t *testing.T) {
	var calls atomic.Int64
	s, err := New("test", 10*time.Millisecond, discard(), func(context.Context) {
		calls.Add(1)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !s.Start(context.Background()) {
		t.Fatalf("expected first Start to succeed")
	}
	if s.Start(context.Background()) {
		t.Fatalf("expected second Start to fail")
	}
	waitForAtLeast(t, &calls, 2, time.Second)

	if !s.Stop() {
		t.Fatalf("expected first Stop to succeed")
	}
	if s.Stop() {
		t.Fatalf("expected second Stop to fail")
	}
	if s.IsRunning() {
		t.Fatalf("expected not running after Stop")
	}

	before := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != before {
		t.Fatalf("expected no ticks after Stop")
	}
}

func TestSweep_ImmediateFirstTick(t *testing.T) {
	var calls atomic.Int64
	s, err := New("test", time.Hour, discard(), func(context.Context) {
		calls.Add(1)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start(context.Background())
	defer s.Stop()

	waitForAtLeast(t, &calls, 1, time.Second)
}

func TestSweep_PanicRecovered(t *testing.T) {
	var calls atomic.Int64
	var panicked atomic.Bool
	s, err := New("test", 10*time.Millisecond, discard(), func(context.Context) {
		if panicked.CompareAndSwap(false, true) {
			panic("boom")
		}
		calls.Add(1)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start(context.Background())
	defer s.Stop()

	// После паники цикл должен продолжать тикать.
	waitForAtLeast(t, &calls, 1, time.Second)
}

func TestSweep_ParentContextCancelStopsTicks(t *testing.T) {
	var calls atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())

	s, err := New("test", 10*time.Millisecond, discard(), func(context.Context) {
		calls.Add(1)
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.Start(ctx)
	waitForAtLeast(t, &calls, 1, time.Second)

	cancel()
	time.Sleep(30 * time.Millisecond)
	before := calls.Load()
	time.Sleep(50 * time.Millisecond)
	if calls.Load() != before {
		t.Fatalf("expected no ticks after parent cancel")
	}
	s.Stop()
}

func waitForAtLeast(t *testing.T, calls *atomic.Int64, n int64, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for calls.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for calls >= %d (got %d)", n, calls.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
