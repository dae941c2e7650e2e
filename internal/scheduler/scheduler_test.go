package scheduler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"orbat_bot/internal/config"
)

type mockSyncer struct {
	calls atomic.Int64
	err   error
}

func (m *mockSyncer) Sync(_ context.Context) error {
	m.calls.Add(1)
	return m.err
}

type mockChecker struct {
	calls atomic.Int64
}

func (m *mockChecker) Check(_ context.Context) error {
	m.calls.Add(1)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunTicksBothLoops(t *testing.T) {
	syncer := &mockSyncer{}
	checker := &mockChecker{}
	cfg := &config.Config{WatchInterval: 10 * time.Millisecond, RemindInterval: 10 * time.Millisecond}
	s := New(syncer, checker, cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for syncer.calls.Load() < 3 || checker.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatalf("ticks did not accumulate: sync %d check %d",
				syncer.calls.Load(), checker.calls.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRunWarmTickBeforeLoops(t *testing.T) {
	syncer := &mockSyncer{}
	checker := &mockChecker{}
	// Intervals far beyond the test duration: any observed tick must be
	// the synchronous warm-up one.
	cfg := &config.Config{WatchInterval: time.Hour, RemindInterval: time.Hour}
	s := New(syncer, checker, cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for syncer.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("warm watch tick never ran")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
	if got := syncer.calls.Load(); got != 1 {
		t.Errorf("expected exactly the warm tick, got %d", got)
	}
	if got := checker.calls.Load(); got != 0 {
		t.Errorf("reminder loop ticked unexpectedly: %d", got)
	}
}

func TestRunSurvivesTickErrors(t *testing.T) {
	syncer := &mockSyncer{err: fmt.Errorf("session expired")}
	checker := &mockChecker{}
	cfg := &config.Config{WatchInterval: 5 * time.Millisecond, RemindInterval: time.Hour}
	s := New(syncer, checker, cfg, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for syncer.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("loop stopped after errors: %d ticks", syncer.calls.Load())
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done
}
