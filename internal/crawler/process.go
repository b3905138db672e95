package crawler

import (
	"context"
	"errors"

	"github.com/jonesrussell/bookwatch/internal/detect"
	"github.com/jonesrussell/bookwatch/internal/domain"
	"github.com/jonesrussell/bookwatch/internal/parse"
)

// processItem runs the fetch → parse → detect → persist pipeline for
// one item URL. Every failure is attributed to the URL and stage; none
// aborts the run.
func (c *Crawler) processItem(ctx context.Context, cfg Config, url string) itemResult {
	doc, fetchErr := c.fetcher.Fetch(ctx, url, cfg.retryPolicy())
	if fetchErr != nil {
		return failedResult(url, "", domain.FailureStageFetch, fetchErr)
	}

	book, parseErr := parse.ParseItemPage(doc.Body, url, doc.FetchedAt)
	if parseErr != nil {
		return failedResult(url, "", domain.FailureStageParse, parseErr)
	}

	book.ContentFingerprint = detect.Fingerprint(book)

	previous, getErr := c.sink.GetByID(ctx, book.ID)
	if getErr != nil && !errors.Is(getErr, domain.ErrNotFound) {
		return failedResult(url, book.ID, domain.FailureStagePersist, getErr)
	}

	entry := c.detector.Detect(previous, book)

	// The record is upserted on every successful parse so the crawl
	// timestamp advances even when nothing changed.
	if upsertErr := c.sink.Upsert(ctx, book); upsertErr != nil {
		return failedResult(url, book.ID, domain.FailureStagePersist, upsertErr)
	}

	if entry == nil {
		return itemResult{kind: resultUnchanged}
	}

	if appendErr := c.sink.AppendChangeLog(ctx, entry); appendErr != nil {
		return failedResult(url, book.ID, domain.FailureStagePersist, appendErr)
	}

	c.log.Info("change detected",
		"book_id", book.ID,
		"change_type", entry.ChangeType,
		"changed_fields", []string(entry.ChangedFields),
	)

	if entry.ChangeType == domain.ChangeTypeNewBook {
		return itemResult{kind: resultCreated}
	}

	return itemResult{kind: resultChanged}
}

// failedResult builds a failed itemResult with attribution.
func failedResult(url, bookID, stage string, err error) itemResult {
	return itemResult{
		kind: resultFailed,
		failure: &domain.Failure{
			URL:    url,
			BookID: bookID,
			Stage:  stage,
			Reason: err.Error(),
		},
	}
}
