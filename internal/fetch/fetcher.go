// Package fetch retrieves single documents over HTTP with bounded
// retry and exponential backoff.
package fetch

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Status codes with dedicated retry handling.
const (
	statusTooManyReqs  = 429
	statusServerErrLow = 500
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Default policy values.
const (
	DefaultMaxAttempts   = 3
	DefaultBaseBackoff   = 1 * time.Second
	DefaultBackoffFactor = 2.0
	DefaultTimeout       = 30 * time.Second
	DefaultUserAgent     = "bookwatch/1.0"
)

// Policy bounds a fetch: how many attempts to make and how long to
// wait between them. The delay before attempt n+1 is
// base * factor^(n-1).
type Policy struct {
	MaxAttempts   int
	BaseBackoff   time.Duration
	BackoffFactor float64
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:   DefaultMaxAttempts,
		BaseBackoff:   DefaultBaseBackoff,
		BackoffFactor: DefaultBackoffFactor,
	}
}

// RawDocument is a successfully fetched response body.
type RawDocument struct {
	URL        string
	Body       []byte
	StatusCode int
	FetchedAt  time.Time
}

// Error reports a fetch that failed, either immediately on a
// non-retriable status or after exhausting all attempts.
type Error struct {
	URL        string
	Attempts   int
	LastStatus int
	LastErr    error
}

func (e *Error) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.LastErr)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): http status %d", e.URL, e.Attempts, e.LastStatus)
}

func (e *Error) Unwrap() error { return e.LastErr }

// Doer issues a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher issues HTTP GETs under a retry policy. It holds no
// per-fetch state; each attempt is independent.
type Fetcher struct {
	client    Doer
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient overrides the HTTP client, mainly for tests.
func WithClient(client Doer) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(f *Fetcher) { f.userAgent = agent }
}

// New creates a Fetcher with a default HTTP client.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves url under the given policy. Transport errors, 5xx
// and 429 responses are retried with exponential backoff; any other
// non-2xx status fails immediately. The returned error is always a
// *fetch.Error on failure.
func (f *Fetcher) Fetch(ctx context.Context, url string, policy Policy) (*RawDocument, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastStatus int
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if waitErr := sleepBackoff(ctx, policy, attempt-1); waitErr != nil {
				return nil, &Error{URL: url, Attempts: attempt - 1, LastStatus: lastStatus, LastErr: waitErr}
			}
		}

		doc, status, err := f.attempt(ctx, url)
		switch {
		case err != nil:
			lastErr = err
			lastStatus = 0
		case retriable(status):
			lastStatus = status
			lastErr = nil
		case status >= http.StatusOK && status < http.StatusMultipleChoices:
			return doc, nil
		default:
			// Non-retriable client error: fail without consuming
			// further attempts.
			return nil, &Error{URL: url, Attempts: attempt, LastStatus: status}
		}
	}

	return nil, &Error{URL: url, Attempts: maxAttempts, LastStatus: lastStatus, LastErr: lastErr}
}

// attempt performs one HTTP GET.
func (f *Fetcher) attempt(ctx context.Context, url string) (*RawDocument, int, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return nil, 0, fmt.Errorf("create request: %w", reqErr)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, doErr := f.client.Do(req)
	if doErr != nil {
		return nil, 0, fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, maxResponseBodyBytes)

	body, readErr := io.ReadAll(limited)
	if readErr != nil {
		return nil, 0, fmt.Errorf("read response body: %w", readErr)
	}

	return &RawDocument{
		URL:        url,
		Body:       body,
		StatusCode: resp.StatusCode,
		FetchedAt:  time.Now().UTC(),
	}, resp.StatusCode, nil
}

// retriable reports whether an HTTP status warrants another attempt.
func retriable(status int) bool {
	return status == statusTooManyReqs || status >= statusServerErrLow
}

// sleepBackoff waits base * factor^(attempt-1) or until ctx is done.
func sleepBackoff(ctx context.Context, policy Policy, attempt int) error {
	base := policy.BaseBackoff
	if base <= 0 {
		base = DefaultBaseBackoff
	}

	factor := policy.BackoffFactor
	if factor <= 0 {
		factor = DefaultBackoffFactor
	}

	delay := time.Duration(float64(base) * math.Pow(factor, float64(attempt-1)))

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}
