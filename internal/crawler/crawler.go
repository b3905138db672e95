// Package crawler orchestrates crawl runs: sequential catalog
// pagination, bounded-concurrency item processing, change detection
// and persistence through the sink.
package crawler

import (
	"context"
	"time"

	"github.com/jonesrussell/bookwatch/internal/domain"
	"github.com/jonesrussell/bookwatch/internal/fetch"
	"github.com/jonesrussell/bookwatch/internal/logger"
)

// Default run configuration values.
const (
	DefaultMaxConcurrent = 10
)

// Config enumerates everything one run needs. It is immutable for the
// lifetime of the run; there is no ambient crawler state.
type Config struct {
	// BaseURL is the catalog root page.
	BaseURL string
	// MaxConcurrent bounds concurrently active item-processing units.
	MaxConcurrent int
	// RetryMaxAttempts caps fetch attempts per URL.
	RetryMaxAttempts int
	// RetryBaseBackoff is the delay before the second attempt.
	RetryBaseBackoff time.Duration
	// RetryBackoffFactor multiplies the delay per subsequent attempt.
	RetryBackoffFactor float64
}

// retryPolicy translates the run config into a fetch policy.
func (c Config) retryPolicy() fetch.Policy {
	policy := fetch.Policy{
		MaxAttempts:   c.RetryMaxAttempts,
		BaseBackoff:   c.RetryBaseBackoff,
		BackoffFactor: c.RetryBackoffFactor,
	}

	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = fetch.DefaultMaxAttempts
	}
	if policy.BaseBackoff <= 0 {
		policy.BaseBackoff = fetch.DefaultBaseBackoff
	}
	if policy.BackoffFactor <= 0 {
		policy.BackoffFactor = fetch.DefaultBackoffFactor
	}

	return policy
}

// maxConcurrent returns the configured concurrency bound, defaulted.
func (c Config) maxConcurrent() int {
	if c.MaxConcurrent < 1 {
		return DefaultMaxConcurrent
	}
	return c.MaxConcurrent
}

// Fetcher retrieves one document with retry.
type Fetcher interface {
	Fetch(ctx context.Context, url string, policy fetch.Policy) (*fetch.RawDocument, error)
}

// Detector compares a previous record against a fresh one.
type Detector interface {
	Detect(previous, current *domain.Book) *domain.ChangeLogEntry
}

// Sink persists book records and change log entries. It is externally
// synchronized per item key; the crawler only guarantees that one run
// never processes the same item twice concurrently.
type Sink interface {
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	Upsert(ctx context.Context, book *domain.Book) error
	AppendChangeLog(ctx context.Context, entry *domain.ChangeLogEntry) error
	MarkRemovedStale(ctx context.Context, before time.Time) (int, error)
}

// Crawler drives crawl runs. Safe for reuse across runs; the caller
// is responsible for not starting overlapping runs.
type Crawler struct {
	fetcher  Fetcher
	detector Detector
	sink     Sink
	log      logger.Interface
	now      func() time.Time
}

// New creates a Crawler.
func New(fetcher Fetcher, detector Detector, sink Sink, log logger.Interface) *Crawler {
	return &Crawler{
		fetcher:  fetcher,
		detector: detector,
		sink:     sink,
		log:      log,
		now:      time.Now,
	}
}
