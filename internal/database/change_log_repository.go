package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/bookwatch/internal/domain"
)

// DefaultChangeLimit bounds change listings when no limit is given.
const (
	DefaultChangeLimit = 100
	MaxChangeLimit     = 1000
)

const changeLogColumns = `id, book_id, changed_fields, old_values, new_values, change_type, timestamp`

// ChangeLogRepository handles database operations for change log
// entries. Writes are append-only; entries are never updated or
// deleted here. Retention is an operator concern.
type ChangeLogRepository struct {
	db *sqlx.DB
}

// NewChangeLogRepository creates a new change log repository.
func NewChangeLogRepository(db *sqlx.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

// Append writes one change log entry.
func (r *ChangeLogRepository) Append(ctx context.Context, entry *domain.ChangeLogEntry) error {
	query := `
		INSERT INTO change_log (` + changeLogColumns + `)
		VALUES (:id, :book_id, :changed_fields, :old_values, :new_values, :change_type, :timestamp)
	`

	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("failed to append change log entry: %w", err)
	}

	return nil
}

// ListRecent retrieves the most recent entries across all books.
func (r *ChangeLogRepository) ListRecent(ctx context.Context, limit int) ([]*domain.ChangeLogEntry, error) {
	query := `SELECT ` + changeLogColumns + ` FROM change_log ORDER BY timestamp DESC LIMIT $1`

	var entries []*domain.ChangeLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list recent changes: %w", err)
	}

	return entries, nil
}

// ListByBook retrieves entries for one book, newest first.
func (r *ChangeLogRepository) ListByBook(ctx context.Context, bookID string, limit int) ([]*domain.ChangeLogEntry, error) {
	query := `SELECT ` + changeLogColumns + ` FROM change_log WHERE book_id = $1 ORDER BY timestamp DESC LIMIT $2`

	var entries []*domain.ChangeLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, bookID, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list changes by book: %w", err)
	}

	return entries, nil
}

// ListByType retrieves entries of one change type, newest first.
func (r *ChangeLogRepository) ListByType(ctx context.Context, changeType string, limit int) ([]*domain.ChangeLogEntry, error) {
	query := `SELECT ` + changeLogColumns + ` FROM change_log WHERE change_type = $1 ORDER BY timestamp DESC LIMIT $2`

	var entries []*domain.ChangeLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, changeType, clampLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list changes by type: %w", err)
	}

	return entries, nil
}

func clampLimit(limit int) int {
	if limit < 1 {
		return DefaultChangeLimit
	}
	if limit > MaxChangeLimit {
		return MaxChangeLimit
	}
	return limit
}
