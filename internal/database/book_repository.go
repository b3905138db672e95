package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/jonesrussell/bookwatch/internal/domain"
)

// List pagination bounds.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// bookColumns is the full column list, in struct field order.
const bookColumns = `id, name, description, category, price_including_tax, price_excluding_tax,
	availability, number_of_reviews, image_url, rating, source_url, crawl_timestamp,
	status, raw_snapshot, content_fingerprint`

// BookQuery filters and orders a book listing.
type BookQuery struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Rating   *int
	SortBy   string // rating, price or reviews
	Page     int
	PageSize int
}

// BookRepository handles database operations for books. It implements
// the crawler's sink lookup and upsert operations.
type BookRepository struct {
	db *sqlx.DB
}

// NewBookRepository creates a new book repository.
func NewBookRepository(db *sqlx.DB) *BookRepository {
	return &BookRepository{db: db}
}

// GetByID retrieves the latest known record for an identity. Returns
// domain.ErrNotFound when no record exists.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	var book domain.Book
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	err := r.db.GetContext(ctx, &book, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return &book, nil
}

// Upsert inserts or replaces a record, keyed by id.
func (r *BookRepository) Upsert(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (` + bookColumns + `)
		VALUES (:id, :name, :description, :category, :price_including_tax, :price_excluding_tax,
			:availability, :number_of_reviews, :image_url, :rating, :source_url, :crawl_timestamp,
			:status, :raw_snapshot, :content_fingerprint)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			price_including_tax = EXCLUDED.price_including_tax,
			price_excluding_tax = EXCLUDED.price_excluding_tax,
			availability = EXCLUDED.availability,
			number_of_reviews = EXCLUDED.number_of_reviews,
			image_url = EXCLUDED.image_url,
			rating = EXCLUDED.rating,
			source_url = EXCLUDED.source_url,
			crawl_timestamp = GREATEST(books.crawl_timestamp, EXCLUDED.crawl_timestamp),
			status = EXCLUDED.status,
			raw_snapshot = EXCLUDED.raw_snapshot,
			content_fingerprint = EXCLUDED.content_fingerprint
	`

	if _, err := r.db.NamedExecContext(ctx, query, book); err != nil {
		return fmt.Errorf("failed to upsert book: %w", err)
	}

	return nil
}

// List retrieves books matching the query with filtering, sorting and
// pagination.
func (r *BookRepository) List(ctx context.Context, q BookQuery) ([]*domain.Book, int, error) {
	where, args := buildBookFilter(q)

	var total int
	countQuery := `SELECT COUNT(*) FROM books` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	pageSize := q.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	listQuery := `SELECT ` + bookColumns + ` FROM books` + where + orderClause(q.SortBy) +
		fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, (page-1)*pageSize)

	var books []*domain.Book
	if err := r.db.SelectContext(ctx, &books, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}

	return books, total, nil
}

// MarkRemovedStale flags active books whose crawl timestamp predates
// before. After a fully successful run every present item's timestamp
// has advanced past the run start, so the remainder left the catalog.
// Records are never deleted.
func (r *BookRepository) MarkRemovedStale(ctx context.Context, before time.Time) (int, error) {
	query := `UPDATE books SET status = $1 WHERE status = $2 AND crawl_timestamp < $3`

	result, err := r.db.ExecContext(ctx, query, domain.BookStatusRemoved, domain.BookStatusActive, before)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale books removed: %w", err)
	}

	rows, rowsErr := result.RowsAffected()
	if rowsErr != nil {
		return 0, fmt.Errorf("failed to check affected rows: %w", rowsErr)
	}

	return int(rows), nil
}

// buildBookFilter composes the WHERE clause for a book query.
func buildBookFilter(q BookQuery) (string, []any) {
	var clauses []string
	var args []any

	addClause := func(condition string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(condition, len(args)))
	}

	if q.Category != "" {
		addClause("category = $%d", q.Category)
	}
	if q.MinPrice != nil {
		addClause("price_including_tax >= $%d", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		addClause("price_including_tax <= $%d", *q.MaxPrice)
	}
	if q.Rating != nil {
		addClause("rating = $%d", *q.Rating)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// orderClause maps a sort key to a deterministic ORDER BY.
func orderClause(sortBy string) string {
	switch sortBy {
	case "price":
		return " ORDER BY price_including_tax ASC, id ASC"
	case "reviews":
		return " ORDER BY number_of_reviews DESC, id ASC"
	default:
		return " ORDER BY rating DESC, id ASC"
	}
}
