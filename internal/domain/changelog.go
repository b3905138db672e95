package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Change type constants, in classification priority order.
const (
	ChangeTypeNewBook      = "new_book"
	ChangeTypePrice        = "price_change"
	ChangeTypeAvailability = "availability_change"
	ChangeTypeRating       = "rating_change"
	ChangeTypeMetadata     = "metadata_change"
	ChangeTypeOther        = "other_change"
)

// ChangeLogEntry records one detected transition for a book. Entries
// are append-only and immutable once written.
type ChangeLogEntry struct {
	ID            string         `db:"id"             json:"id"`
	BookID        string         `db:"book_id"        json:"book_id"`
	ChangedFields pq.StringArray `db:"changed_fields" json:"changed_fields"`
	OldValues     FieldValues    `db:"old_values"     json:"old_values"`
	NewValues     FieldValues    `db:"new_values"     json:"new_values"`
	ChangeType    string         `db:"change_type"    json:"change_type"`
	Timestamp     time.Time      `db:"timestamp"      json:"timestamp"`
}

// FieldValues holds old or new field values keyed by field name. It
// implements sql.Scanner and driver.Valuer so the map round-trips
// through a PostgreSQL JSONB column.
type FieldValues map[string]any

// Scan implements the sql.Scanner interface.
func (v *FieldValues) Scan(value any) error {
	if value == nil {
		*v = nil
		return nil
	}

	var data []byte
	switch raw := value.(type) {
	case string:
		data = []byte(raw)
	case []byte:
		data = raw
	default:
		return errors.New("unsupported type for FieldValues")
	}

	if len(data) == 0 {
		*v = FieldValues{}
		return nil
	}

	return json.Unmarshal(data, v)
}

// Value implements the driver.Valuer interface.
func (v FieldValues) Value() (driver.Value, error) {
	if len(v) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(v))
}
