// Package parse converts fetched HTML documents into catalog listings
// and normalized book records. It performs no network or storage I/O;
// identical input bytes always produce identical output.
package parse

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Catalog page selectors.
const (
	itemLinkSelector = "article.product_pod h3 a"
	nextPageSelector = "li.next a"
)

// CatalogPage is the parsed form of one catalog listing page.
type CatalogPage struct {
	// ItemURLs are absolute item page URLs in document order.
	ItemURLs []string
	// NextPageURL is the absolute URL of the next listing page, or
	// empty when this is the last page.
	NextPageURL string
}

// ParseCatalogPage extracts item page links and the pagination cursor
// from a catalog listing page. Relative links are resolved against
// pageURL.
func ParseCatalogPage(body []byte, pageURL string) (*CatalogPage, error) {
	base, baseErr := url.Parse(pageURL)
	if baseErr != nil {
		return nil, fmt.Errorf("parse page url: %w", baseErr)
	}

	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if docErr != nil {
		return nil, fmt.Errorf("parse html: %w", docErr)
	}

	page := &CatalogPage{}

	doc.Find(itemLinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || strings.TrimSpace(href) == "" {
			return
		}
		page.ItemURLs = append(page.ItemURLs, resolveURL(base, href))
	})

	if href, exists := doc.Find(nextPageSelector).First().Attr("href"); exists {
		page.NextPageURL = resolveURL(base, href)
	}

	return page, nil
}

// resolveURL resolves a possibly-relative href against base.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
