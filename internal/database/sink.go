package database

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/bookwatch/internal/domain"
)

// Sink bundles the book and change log repositories behind the narrow
// contract the crawler consumes.
type Sink struct {
	books   *BookRepository
	changes *ChangeLogRepository
}

// NewSink creates a Sink over one database connection.
func NewSink(db *sqlx.DB) *Sink {
	return &Sink{
		books:   NewBookRepository(db),
		changes: NewChangeLogRepository(db),
	}
}

// GetByID returns the latest known record for an identity, or
// domain.ErrNotFound.
func (s *Sink) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	return s.books.GetByID(ctx, id)
}

// Upsert replaces or inserts a record, keyed by id.
func (s *Sink) Upsert(ctx context.Context, book *domain.Book) error {
	return s.books.Upsert(ctx, book)
}

// AppendChangeLog writes one change log entry.
func (s *Sink) AppendChangeLog(ctx context.Context, entry *domain.ChangeLogEntry) error {
	return s.changes.Append(ctx, entry)
}

// MarkRemovedStale flags active books not seen since before as removed.
func (s *Sink) MarkRemovedStale(ctx context.Context, before time.Time) (int, error) {
	return s.books.MarkRemovedStale(ctx, before)
}
