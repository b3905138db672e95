package parse

import (
	"bytes"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/jonesrussell/bookwatch/internal/domain"
)

// Item page selectors.
const (
	nameSelector         = "div.product_main h1"
	descriptionSelector  = "#product_description ~ p"
	breadcrumbSelector   = "ul.breadcrumb li a"
	productTableSelector = "table.table-striped tr"
	availabilitySelector = "p.availability"
	imageSelector        = "#product_gallery img"
	ratingSelector       = "p.star-rating"
)

// Product information table row labels.
const (
	labelPriceIncl = "Price (incl. tax)"
	labelPriceExcl = "Price (excl. tax)"
	labelReviews   = "Number of reviews"
)

// ratingWords maps star-rating CSS classes to their numeric value.
var ratingWords = map[string]int{
	"zero":  0,
	"one":   1,
	"two":   2,
	"three": 3,
	"four":  4,
	"five":  5,
}

// Error reports a required field that was absent or malformed in an
// item page. The caller decides whether to skip or abort; no defaults
// are substituted.
type Error struct {
	SourceURL string
	Field     string
	Reason    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse %s: field %q: %s", e.SourceURL, e.Field, e.Reason)
}

// ParseItemPage extracts a normalized book record from an item page.
// The crawl timestamp is supplied by the caller so parsing stays
// deterministic.
func ParseItemPage(body []byte, sourceURL string, crawledAt time.Time) (*domain.Book, error) {
	doc, docErr := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if docErr != nil {
		return nil, &Error{SourceURL: sourceURL, Field: "document", Reason: docErr.Error()}
	}

	book := &domain.Book{
		ID:             domain.BookID(sourceURL),
		SourceURL:      sourceURL,
		CrawlTimestamp: crawledAt,
		Status:         domain.BookStatusActive,
		RawSnapshot:    string(body),
	}

	name := strings.TrimSpace(doc.Find(nameSelector).First().Text())
	if name == "" {
		return nil, &Error{SourceURL: sourceURL, Field: "name", Reason: "not found"}
	}
	book.Name = name

	book.Description = strings.TrimSpace(doc.Find(descriptionSelector).First().Text())

	category, catErr := extractCategory(doc)
	if catErr != nil {
		return nil, &Error{SourceURL: sourceURL, Field: "category", Reason: catErr.Error()}
	}
	book.Category = category

	if err := extractProductTable(doc, sourceURL, book); err != nil {
		return nil, err
	}

	availability := strings.TrimSpace(doc.Find(availabilitySelector).First().Text())
	if availability == "" {
		return nil, &Error{SourceURL: sourceURL, Field: "availability", Reason: "not found"}
	}
	book.Availability = normalizeWhitespace(availability)

	rating, ratingErr := extractRating(doc)
	if ratingErr != nil {
		return nil, &Error{SourceURL: sourceURL, Field: "rating", Reason: ratingErr.Error()}
	}
	book.Rating = rating

	book.ImageURL = extractImageURL(doc, sourceURL)

	return book, nil
}

// extractCategory takes the last breadcrumb link before the item
// itself, e.g. Home / Books / Poetry / <title>.
func extractCategory(doc *goquery.Document) (string, error) {
	links := doc.Find(breadcrumbSelector)
	if links.Length() < 2 {
		return "", fmt.Errorf("breadcrumb has %d links, need at least 2", links.Length())
	}

	category := strings.TrimSpace(links.Last().Text())
	if category == "" {
		return "", fmt.Errorf("empty breadcrumb entry")
	}

	return category, nil
}

// extractProductTable walks the product information table and fills in
// both prices and the review count.
func extractProductTable(doc *goquery.Document, sourceURL string, book *domain.Book) error {
	var priceInclSeen, priceExclSeen, reviewsSeen bool
	var rowErr error

	doc.Find(productTableSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		label := strings.TrimSpace(row.Find("th").First().Text())
		value := strings.TrimSpace(row.Find("td").First().Text())

		switch label {
		case labelPriceIncl:
			price, err := parsePrice(value)
			if err != nil {
				rowErr = &Error{SourceURL: sourceURL, Field: "price_including_tax", Reason: err.Error()}
				return false
			}
			book.PriceIncludingTax = price
			priceInclSeen = true
		case labelPriceExcl:
			price, err := parsePrice(value)
			if err != nil {
				rowErr = &Error{SourceURL: sourceURL, Field: "price_excluding_tax", Reason: err.Error()}
				return false
			}
			book.PriceExcludingTax = price
			priceExclSeen = true
		case labelReviews:
			count, err := strconv.Atoi(value)
			if err != nil || count < 0 {
				rowErr = &Error{SourceURL: sourceURL, Field: "number_of_reviews", Reason: "not a non-negative integer"}
				return false
			}
			book.NumberOfReviews = count
			reviewsSeen = true
		}

		return true
	})

	if rowErr != nil {
		return rowErr
	}

	switch {
	case !priceInclSeen:
		return &Error{SourceURL: sourceURL, Field: "price_including_tax", Reason: "not found"}
	case !priceExclSeen:
		return &Error{SourceURL: sourceURL, Field: "price_excluding_tax", Reason: "not found"}
	case !reviewsSeen:
		return &Error{SourceURL: sourceURL, Field: "number_of_reviews", Reason: "not found"}
	}

	return nil
}

// parsePrice converts a displayed price like "£51.77" into an exact
// decimal. Negative prices are rejected.
func parsePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(text)
	for _, symbol := range []string{"£", "€", "$", ","} {
		cleaned = strings.ReplaceAll(cleaned, symbol, "")
	}

	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a decimal: %q", text)
	}

	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price: %q", text)
	}

	return price, nil
}

// extractRating reads the star rating from the p.star-rating class
// list, e.g. "star-rating Three".
func extractRating(doc *goquery.Document) (int, error) {
	sel := doc.Find(ratingSelector).First()
	if sel.Length() == 0 {
		return 0, fmt.Errorf("not found")
	}

	classes, _ := sel.Attr("class")
	for _, class := range strings.Fields(classes) {
		if strings.EqualFold(class, "star-rating") {
			continue
		}
		if rating, ok := ratingWords[strings.ToLower(class)]; ok {
			return rating, nil
		}
	}

	return 0, fmt.Errorf("unrecognized rating class %q", classes)
}

// extractImageURL resolves the product image URL, or returns empty
// when no image is present. The image is not a required field.
func extractImageURL(doc *goquery.Document, sourceURL string) string {
	src, exists := doc.Find(imageSelector).First().Attr("src")
	if !exists || strings.TrimSpace(src) == "" {
		return ""
	}

	base, err := url.Parse(sourceURL)
	if err != nil {
		return src
	}

	return resolveURL(base, src)
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
