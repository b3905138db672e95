// Package job triggers recurring crawl runs on a cron schedule.
package job

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/bookwatch/internal/crawler"
	"github.com/jonesrussell/bookwatch/internal/domain"
	"github.com/jonesrussell/bookwatch/internal/logger"
)

// Runner executes one crawl run. *crawler.Crawler satisfies it.
type Runner interface {
	RunOnce(ctx context.Context, cfg crawler.Config) (*domain.RunSummary, error)
}

// Scheduler fires crawl runs on a cron spec. Overlapping triggers are
// skipped: the crawler assumes at most one concurrent run, and this is
// where that assumption is enforced.
type Scheduler struct {
	runner   Runner
	runCfg   crawler.Config
	cronSpec string
	log      logger.Interface

	cron *cron.Cron
	mu   sync.Mutex // held for the duration of a run
}

// NewScheduler creates a scheduler for the given runner and config.
func NewScheduler(runner Runner, runCfg crawler.Config, cronSpec string, log logger.Interface) *Scheduler {
	return &Scheduler{
		runner:   runner,
		runCfg:   runCfg,
		cronSpec: cronSpec,
		log:      log.WithComponent("scheduler"),
	}
}

// Start registers the cron entry and blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron = cron.New()

	entryID, err := s.cron.AddFunc(s.cronSpec, func() { s.trigger(ctx) })
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", s.cronSpec, err)
	}

	s.cron.Start()
	s.log.Info("scheduler started", "cron_spec", s.cronSpec, "entry_id", int(entryID))

	<-ctx.Done()

	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("scheduler stopped")

	return nil
}

// trigger runs one crawl unless a previous run is still in flight.
func (s *Scheduler) trigger(ctx context.Context) {
	if !s.mu.TryLock() {
		s.log.Warn("previous crawl run still in progress, skipping trigger")
		return
	}
	defer s.mu.Unlock()

	summary, err := s.runner.RunOnce(ctx, s.runCfg)
	if err != nil {
		// The Runner contract does not promise a summary on error.
		itemsSeen := 0
		if summary != nil {
			itemsSeen = summary.ItemsSeen
		}
		s.log.Error("scheduled crawl run failed",
			"error", err.Error(),
			"items_seen", itemsSeen,
		)
		return
	}

	s.log.Info("scheduled crawl run completed",
		"items_seen", summary.ItemsSeen,
		"created", summary.Created,
		"changed", summary.Changed,
		"unchanged", summary.Unchanged,
		"failed", summary.Failed,
	)
}
