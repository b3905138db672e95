// Package domain provides domain models used across the application.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Book status constants.
const (
	BookStatusActive  = "active"
	BookStatusRemoved = "removed"
)

// Rating bounds.
const (
	MinRating = 0
	MaxRating = 5
)

// bookIDBytes is the number of SHA-256 bytes kept for a book ID.
// 16 bytes (128 bits) keeps collisions negligible for a catalog-scale
// URL space while staying compact in indexes.
const bookIDBytes = 16

// Book represents one crawled catalog item.
type Book struct {
	ID                 string          `db:"id"                  json:"id"`
	Name               string          `db:"name"                json:"name"`
	Description        string          `db:"description"         json:"description,omitempty"`
	Category           string          `db:"category"            json:"category"`
	PriceIncludingTax  decimal.Decimal `db:"price_including_tax" json:"price_including_tax"`
	PriceExcludingTax  decimal.Decimal `db:"price_excluding_tax" json:"price_excluding_tax"`
	Availability       string          `db:"availability"        json:"availability"`
	NumberOfReviews    int             `db:"number_of_reviews"   json:"number_of_reviews"`
	ImageURL           string          `db:"image_url"           json:"image_url,omitempty"`
	Rating             int             `db:"rating"              json:"rating"`
	SourceURL          string          `db:"source_url"          json:"source_url"`
	CrawlTimestamp     time.Time       `db:"crawl_timestamp"     json:"crawl_timestamp"`
	Status             string          `db:"status"              json:"status"`
	RawSnapshot        string          `db:"raw_snapshot"        json:"-"`
	ContentFingerprint string          `db:"content_fingerprint" json:"content_fingerprint"`
}

// BookID derives the stable identity for a source URL. The same URL
// always resolves to the same ID, so re-crawls upsert rather than
// duplicate.
func BookID(sourceURL string) string {
	sum := sha256.Sum256([]byte(canonicalURL(sourceURL)))
	return hex.EncodeToString(sum[:bookIDBytes])
}

// canonicalURL normalizes a source URL for identity derivation.
func canonicalURL(rawURL string) string {
	u := strings.TrimSpace(rawURL)
	u = strings.TrimSuffix(u, "/")
	return u
}
