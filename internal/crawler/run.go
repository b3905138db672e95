package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonesrussell/bookwatch/internal/domain"
)

// ErrRunFailed marks a run that ended in the Failed state, either
// from catalog-page fetch exhaustion or cancellation. Work persisted
// before the failure remains valid.
var ErrRunFailed = errors.New("crawl run failed")

// RunOnce executes one complete crawl: catalog root to run summary.
// Per-item failures are recorded in the summary and never abort the
// run; only a catalog-page failure or cancellation does. The summary
// is non-nil even on error.
func (c *Crawler) RunOnce(ctx context.Context, cfg Config) (*domain.RunSummary, error) {
	started := c.now()
	summary := &domain.RunSummary{
		State:     domain.RunStateStarting,
		StartedAt: started,
	}

	c.log.Info("crawl run starting",
		"base_url", cfg.BaseURL,
		"max_concurrent", cfg.maxConcurrent(),
	)

	jobs := make(chan string)
	results := make(chan itemResult)

	var wg sync.WaitGroup
	for i := 0; i < cfg.maxConcurrent(); i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.itemWorker(ctx, workerID, cfg, jobs, results)
		}(i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// Pagination is strictly sequential; it streams item URLs into
	// the worker pool while later pages are still being walked.
	pageOutcome := make(chan paginateOutcome, 1)
	summary.State = domain.RunStatePaginating

	go func() {
		defer close(jobs)
		pageOutcome <- c.paginate(ctx, cfg, jobs)
	}()

	summary.State = domain.RunStateItemProcessing
	for result := range results {
		c.recordResult(summary, result)
	}

	outcome := <-pageOutcome
	summary.PagesSeen = outcome.pages
	summary.State = domain.RunStateFinalizing
	summary.Duration = c.now().Sub(started)

	// Cancellation can land after pagination already finished cleanly;
	// the workers then skip or fail the remaining items and the run
	// must still end Failed, never Completed.
	fatal := outcome.err
	if fatal == nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			fatal = fmt.Errorf("run cancelled: %w", ctxErr)
		}
	}

	if fatal != nil {
		summary.State = domain.RunStateFailed
		summary.FatalReason = fatal.Error()
		c.logSummary(summary)
		return summary, fmt.Errorf("%w: %s", ErrRunFailed, summary.FatalReason)
	}

	// The removal sweep is only sound when every item was processed:
	// a failed item's crawl timestamp has not advanced, and sweeping
	// it would misreport a transient error as a catalog removal.
	if summary.Failed == 0 {
		removed, removeErr := c.sink.MarkRemovedStale(ctx, started)
		if removeErr != nil {
			c.log.Warn("removal sweep failed", "error", removeErr.Error())
		} else {
			summary.Removed = removed
		}
	}

	summary.State = domain.RunStateCompleted
	c.logSummary(summary)

	return summary, nil
}

// itemResult is the outcome of processing one item URL.
type itemResult struct {
	kind    resultKind
	failure *domain.Failure
}

type resultKind int

const (
	resultCreated resultKind = iota
	resultChanged
	resultUnchanged
	resultFailed
	resultSkipped
)

// itemWorker consumes item URLs until the jobs channel closes. After
// cancellation it drains remaining URLs without dispatching them.
func (c *Crawler) itemWorker(
	ctx context.Context,
	workerID int,
	cfg Config,
	jobs <-chan string,
	results chan<- itemResult,
) {
	for url := range jobs {
		select {
		case <-ctx.Done():
			results <- itemResult{kind: resultSkipped}
			continue
		default:
		}

		result := c.processItem(ctx, cfg, url)
		if result.failure != nil {
			c.log.Warn("item processing failed",
				"worker_id", workerID,
				"url", result.failure.URL,
				"stage", result.failure.Stage,
				"reason", result.failure.Reason,
			)
		}

		results <- result
	}
}

// recordResult folds one item outcome into the run summary. Only the
// run goroutine touches the summary.
func (c *Crawler) recordResult(summary *domain.RunSummary, result itemResult) {
	if result.kind == resultSkipped {
		return
	}

	summary.ItemsSeen++

	switch result.kind {
	case resultCreated:
		summary.Created++
	case resultChanged:
		summary.Changed++
	case resultUnchanged:
		summary.Unchanged++
	case resultFailed:
		summary.Failed++
		if result.failure != nil {
			summary.Failures = append(summary.Failures, *result.failure)
		}
	}
}

func (c *Crawler) logSummary(summary *domain.RunSummary) {
	c.log.Info("crawl run finished",
		"state", string(summary.State),
		"pages_seen", summary.PagesSeen,
		"items_seen", summary.ItemsSeen,
		"created", summary.Created,
		"changed", summary.Changed,
		"unchanged", summary.Unchanged,
		"failed", summary.Failed,
		"removed", summary.Removed,
		"duration", summary.Duration.String(),
	)
}
