package domain

import "time"

// RunState identifies where a crawl run is in its lifecycle.
type RunState string

// Crawl run states. Failed is terminal and reachable from any
// non-terminal state; Completed only follows Finalizing.
const (
	RunStateStarting       RunState = "starting"
	RunStatePaginating     RunState = "paginating"
	RunStateItemProcessing RunState = "item_processing"
	RunStateFinalizing     RunState = "finalizing"
	RunStateCompleted      RunState = "completed"
	RunStateFailed         RunState = "failed"
)

// Failure stages, recorded against the run summary.
const (
	FailureStageFetch   = "fetch"
	FailureStageParse   = "parse"
	FailureStagePersist = "persist"
)

// Failure attributes one per-item error to its source URL.
type Failure struct {
	URL    string `json:"url"`
	BookID string `json:"book_id,omitempty"`
	Stage  string `json:"stage"`
	Reason string `json:"reason"`
}

// RunSummary aggregates the outcome of one crawl run.
type RunSummary struct {
	State       RunState      `json:"state"`
	PagesSeen   int           `json:"pages_seen"`
	ItemsSeen   int           `json:"items_seen"`
	Created     int           `json:"created"`
	Changed     int           `json:"changed"`
	Unchanged   int           `json:"unchanged"`
	Failed      int           `json:"failed"`
	Removed     int           `json:"removed"`
	Failures    []Failure     `json:"failures,omitempty"`
	FatalReason string        `json:"fatal_reason,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration"`
}
