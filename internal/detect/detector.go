// Package detect compares successive snapshots of the same book and
// classifies what changed between them.
package detect

import (
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/bookwatch/internal/domain"
)

// Field names as they appear in change log entries.
const (
	FieldName              = "name"
	FieldDescription       = "description"
	FieldCategory          = "category"
	FieldPriceIncludingTax = "price_including_tax"
	FieldPriceExcludingTax = "price_excluding_tax"
	FieldAvailability      = "availability"
	FieldNumberOfReviews   = "number_of_reviews"
	FieldImageURL          = "image_url"
	FieldRating            = "rating"
)

// diffOrder fixes the order in which fields are compared, and with it
// the insertion order of changed_fields in emitted entries.
var diffOrder = []string{
	FieldName,
	FieldDescription,
	FieldCategory,
	FieldPriceIncludingTax,
	FieldPriceExcludingTax,
	FieldAvailability,
	FieldNumberOfReviews,
	FieldImageURL,
	FieldRating,
}

// Detector detects and classifies changes between book snapshots.
// The zero value is ready to use; Now is overridable for tests.
type Detector struct {
	Now func() time.Time
}

// New creates a Detector using wall-clock detection timestamps.
func New() *Detector {
	return &Detector{Now: time.Now}
}

// Detect compares previous against current and returns a change log
// entry, or nil when nothing changed. A nil previous yields a new_book
// entry. Neither input is mutated.
func (d *Detector) Detect(previous, current *domain.Book) *domain.ChangeLogEntry {
	if previous == nil {
		return d.newBookEntry(current)
	}

	// Cheap path: identical significant fields mean no entry,
	// regardless of crawl time or incidental fields.
	if fingerprintOf(previous) == fingerprintOf(current) {
		return nil
	}

	changed, oldValues, newValues := diffFields(previous, current)
	if len(changed) == 0 {
		return nil
	}

	return &domain.ChangeLogEntry{
		ID:            uuid.NewString(),
		BookID:        current.ID,
		ChangedFields: changed,
		OldValues:     oldValues,
		NewValues:     newValues,
		ChangeType:    Classify(changed),
		Timestamp:     d.now(),
	}
}

// newBookEntry builds the entry for a first-seen book: every populated
// field is listed, old values are empty.
func (d *Detector) newBookEntry(current *domain.Book) *domain.ChangeLogEntry {
	var changed []string
	newValues := domain.FieldValues{}

	for _, field := range diffOrder {
		value := fieldValue(current, field)
		if !populated(field, value) {
			continue
		}
		changed = append(changed, field)
		newValues[field] = value
	}

	return &domain.ChangeLogEntry{
		ID:            uuid.NewString(),
		BookID:        current.ID,
		ChangedFields: changed,
		OldValues:     domain.FieldValues{},
		NewValues:     newValues,
		ChangeType:    domain.ChangeTypeNewBook,
		Timestamp:     d.now(),
	}
}

// Classify maps a set of changed fields to a single change type.
// Priority order is fixed: price beats availability beats rating beats
// metadata; anything else is other_change.
func Classify(changedFields []string) string {
	has := make(map[string]bool, len(changedFields))
	for _, field := range changedFields {
		has[field] = true
	}

	switch {
	case has[FieldPriceIncludingTax] || has[FieldPriceExcludingTax]:
		return domain.ChangeTypePrice
	case has[FieldAvailability]:
		return domain.ChangeTypeAvailability
	case has[FieldRating]:
		return domain.ChangeTypeRating
	case has[FieldName] || has[FieldDescription]:
		return domain.ChangeTypeMetadata
	default:
		return domain.ChangeTypeOther
	}
}

// diffFields compares every tracked field in fixed order and collects
// the differing ones with their old and new values.
func diffFields(previous, current *domain.Book) ([]string, domain.FieldValues, domain.FieldValues) {
	var changed []string
	oldValues := domain.FieldValues{}
	newValues := domain.FieldValues{}

	for _, field := range diffOrder {
		if fieldEqual(previous, current, field) {
			continue
		}
		changed = append(changed, field)
		oldValues[field] = fieldValue(previous, field)
		newValues[field] = fieldValue(current, field)
	}

	return changed, oldValues, newValues
}

// fieldEqual compares one field across two snapshots. Prices compare
// by exact decimal equality, never floating-point tolerance.
func fieldEqual(a, b *domain.Book, field string) bool {
	switch field {
	case FieldPriceIncludingTax:
		return a.PriceIncludingTax.Equal(b.PriceIncludingTax)
	case FieldPriceExcludingTax:
		return a.PriceExcludingTax.Equal(b.PriceExcludingTax)
	default:
		return fieldValue(a, field) == fieldValue(b, field)
	}
}

// fieldValue extracts the comparable value of one field.
func fieldValue(book *domain.Book, field string) any {
	switch field {
	case FieldName:
		return book.Name
	case FieldDescription:
		return book.Description
	case FieldCategory:
		return book.Category
	case FieldPriceIncludingTax:
		return book.PriceIncludingTax.StringFixed(2)
	case FieldPriceExcludingTax:
		return book.PriceExcludingTax.StringFixed(2)
	case FieldAvailability:
		return book.Availability
	case FieldNumberOfReviews:
		return book.NumberOfReviews
	case FieldImageURL:
		return book.ImageURL
	case FieldRating:
		return book.Rating
	default:
		return nil
	}
}

// populated reports whether a field counts as set for a new_book
// entry. Numeric fields are always populated; string fields only when
// non-empty.
func populated(field string, value any) bool {
	if s, ok := value.(string); ok {
		return s != ""
	}
	return true
}

// fingerprintOf prefers the stored fingerprint and recomputes only
// when a snapshot does not carry one.
func fingerprintOf(book *domain.Book) string {
	if book.ContentFingerprint != "" {
		return book.ContentFingerprint
	}
	return Fingerprint(book)
}

func (d *Detector) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}
