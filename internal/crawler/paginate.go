package crawler

import (
	"context"
	"fmt"

	"github.com/jonesrussell/bookwatch/internal/parse"
)

// paginateOutcome reports how the catalog walk ended.
type paginateOutcome struct {
	pages int
	err   error
}

// paginate walks catalog pages from the base URL, streaming discovered
// item URLs into jobs. The next-page cursor is explicit: each page's
// continuation comes from its own parsed content, so pagination never
// runs concurrently with itself. A catalog page that exhausts retries
// is fatal: the item universe for that page is unknown.
func (c *Crawler) paginate(ctx context.Context, cfg Config, jobs chan<- string) paginateOutcome {
	seen := make(map[string]struct{})
	policy := cfg.retryPolicy()

	pageURL := cfg.BaseURL
	pages := 0

	for pageURL != "" {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return paginateOutcome{pages: pages, err: fmt.Errorf("run cancelled: %w", ctxErr)}
		}

		c.log.Debug("fetching catalog page", "url", pageURL)

		doc, fetchErr := c.fetcher.Fetch(ctx, pageURL, policy)
		if fetchErr != nil {
			return paginateOutcome{pages: pages, err: fmt.Errorf("catalog page %s: %w", pageURL, fetchErr)}
		}

		page, parseErr := parse.ParseCatalogPage(doc.Body, pageURL)
		if parseErr != nil {
			return paginateOutcome{pages: pages, err: fmt.Errorf("catalog page %s: %w", pageURL, parseErr)}
		}

		pages++

		for _, itemURL := range page.ItemURLs {
			// An item listed on more than one page is processed once
			// per run; this also keeps same-item sink writes from
			// interleaving.
			if _, dup := seen[itemURL]; dup {
				continue
			}
			seen[itemURL] = struct{}{}

			select {
			case jobs <- itemURL:
			case <-ctx.Done():
				return paginateOutcome{pages: pages, err: fmt.Errorf("run cancelled: %w", ctx.Err())}
			}
		}

		pageURL = page.NextPageURL
	}

	return paginateOutcome{pages: pages}
}
