// Package scheduler wires up the cron job that periodically re-fetches and
// archives every watched occupation code.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"jobmate/rome-service/internal/model"
)

// WatchList returns the codes to refresh. Implemented by archive.Store.
type WatchList interface {
	WatchedCodes(ctx context.Context) ([]string, error)
}

// Refresher fetches and archives a set of codes. Implemented by lookup.Service.
type Refresher interface {
	Refresh(ctx context.Context, codes []string) (*model.Table, error)
}

// Scheduler wraps robfig/cron and manages the refresh loop.
type Scheduler struct {
	cron      *cron.Cron
	watch     WatchList
	refresher Refresher
	spec      string // cron spec, e.g. "@every 24h"
	startup   sync.WaitGroup
}

// New creates a Scheduler that fires every intervalHours hours.
func New(watch WatchList, refresher Refresher, intervalHours int) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cron.DefaultLogger),
			cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
		),
		watch:     watch,
		refresher: refresher,
		spec:      fmt.Sprintf("@every %dh", intervalHours),
	}
}

// Spec returns the cron spec the job is registered with.
func (s *Scheduler) Spec() string { return s.spec }

// Start registers the job and starts the scheduler. Also runs one refresh
// immediately so snapshots exist without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	log.Printf("[scheduler] Cron started — spec: %s", s.spec)

	// Run immediately on startup (non-blocking); Stop waits for it.
	s.startup.Add(1)
	go func() {
		defer s.startup.Done()
		s.RunOnce(ctx)
	}()

	return nil
}

// Stop gracefully shuts down the scheduler and waits for running refreshes,
// including the one started by Start.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.startup.Wait()
	log.Println("[scheduler] Cron stopped")
}

// RunOnce loads the watched codes and refreshes them. It returns the
// refreshed table, or nil when there was nothing to do.
func (s *Scheduler) RunOnce(ctx context.Context) *model.Table {
	log.Println("[scheduler] Refresh cycle started")

	codes, err := s.watch.WatchedCodes(ctx)
	if err != nil {
		log.Printf("[scheduler] WatchedCodes error: %v", err)
		return nil
	}

	if len(codes) == 0 {
		log.Println("[scheduler] No watched codes — nothing to refresh")
		return nil
	}

	log.Printf("[scheduler] Refreshing %d code(s)", len(codes))
	table, err := s.refresher.Refresh(ctx, codes)
	if err != nil {
		log.Printf("[scheduler] Refresh error: %v", err)
		return nil
	}

	log.Printf("[scheduler] Refresh cycle complete — ok=%d failed=%d",
		table.Succeeded(), len(table.Statuses)-table.Succeeded())
	return table
}
