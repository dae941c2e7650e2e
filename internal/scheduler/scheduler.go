// Package scheduler drives the periodic watch and reminder ticks.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"orbat_bot/internal/config"
)

// Syncer runs one watch tick (poll, diff, notify, persist).
type Syncer interface {
	Sync(ctx context.Context) error
}

// Checker runs one reminder tick.
type Checker interface {
	Check(ctx context.Context) error
}

// Scheduler runs the two tick kinds on independent tickers. Each kind
// runs in its own loop, so a slow tick only delays later ticks of the
// same kind (missed ticker fires coalesce); ticks of one kind never
// overlap.
type Scheduler struct {
	watcher     Syncer
	reminder    Checker
	log         *slog.Logger
	watchEvery  time.Duration
	remindEvery time.Duration
}

// New creates a Scheduler with the configured intervals.
func New(watcher Syncer, reminder Checker, cfg *config.Config, log *slog.Logger) *Scheduler {
	return &Scheduler{
		watcher:     watcher,
		reminder:    reminder,
		log:         log,
		watchEvery:  cfg.WatchInterval,
		remindEvery: cfg.RemindInterval,
	}
}

// Run starts both tick loops, blocking until ctx is cancelled. The first
// watch tick runs synchronously before the loops start so the response
// cache is warm and first-sighting baselines exist before any comparison.
func (s *Scheduler) Run(ctx context.Context) {
	s.watchTick(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.loop(ctx, s.watchEvery, s.watchTick)
	}()
	go func() {
		defer wg.Done()
		s.loop(ctx, s.remindEvery, s.remindTick)
	}()
	wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, every time.Duration, tick func(context.Context)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tick(ctx)
		}
	}
}

func (s *Scheduler) watchTick(ctx context.Context) {
	if err := s.watcher.Sync(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("watch tick aborted", "error", err)
	}
}

func (s *Scheduler) remindTick(ctx context.Context) {
	if err := s.reminder.Check(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.log.Error("reminder tick aborted", "error", err)
	}
}
