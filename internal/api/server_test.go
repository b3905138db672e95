package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/bookwatch/internal/api"
	"github.com/jonesrussell/bookwatch/internal/config"
	"github.com/jonesrussell/bookwatch/internal/database"
	"github.com/jonesrussell/bookwatch/internal/domain"
	"github.com/jonesrussell/bookwatch/internal/logger"
)

const testAPIKey = "test-key"

// fakeBookStore serves canned books and records the last query.
type fakeBookStore struct {
	books     map[string]*domain.Book
	listErr   error
	lastQuery database.BookQuery
}

func (s *fakeBookStore) GetByID(_ context.Context, id string) (*domain.Book, error) {
	book, ok := s.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return book, nil
}

func (s *fakeBookStore) List(_ context.Context, q database.BookQuery) ([]*domain.Book, int, error) {
	if s.listErr != nil {
		return nil, 0, s.listErr
	}
	s.lastQuery = q
	out := make([]*domain.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	return out, len(out), nil
}

// fakeChangeStore records which listing was requested.
type fakeChangeStore struct {
	entries  []*domain.ChangeLogEntry
	lastCall string
}

func (s *fakeChangeStore) ListRecent(_ context.Context, _ int) ([]*domain.ChangeLogEntry, error) {
	s.lastCall = "recent"
	return s.entries, nil
}

func (s *fakeChangeStore) ListByBook(_ context.Context, bookID string, _ int) ([]*domain.ChangeLogEntry, error) {
	s.lastCall = "book:" + bookID
	return s.entries, nil
}

func (s *fakeChangeStore) ListByType(_ context.Context, changeType string, _ int) ([]*domain.ChangeLogEntry, error) {
	s.lastCall = "type:" + changeType
	return s.entries, nil
}

func testBook() *domain.Book {
	return &domain.Book{
		ID:                "abc123",
		Name:              "A Light in the Attic",
		Category:          "Poetry",
		PriceIncludingTax: decimal.RequireFromString("51.77"),
		PriceExcludingTax: decimal.RequireFromString("51.77"),
		Availability:      "In stock (22 available)",
		Rating:            3,
		SourceURL:         "https://books.toscrape.com/catalogue/a-light-in-the-attic_1000/index.html",
		CrawlTimestamp:    time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
		Status:            domain.BookStatusActive,
		RawSnapshot:       "<html><body>snapshot</body></html>",
	}
}

func newTestServer(books *fakeBookStore, changes *fakeChangeStore) *api.Server {
	return api.NewServer(books, changes, logger.NewNoOp(), config.ServerConfig{APIKey: testAPIKey})
}

// do performs an authenticated request against the router.
func do(t *testing.T, server *api.Server, path string, key string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, http.NoBody)
	if key != "" {
		req.Header.Set(api.APIKeyHeader, key)
	}

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthNoAuth(t *testing.T) {
	server := newTestServer(&fakeBookStore{}, &fakeChangeStore{})

	rec := do(t, server, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestAPIKeyRequired(t *testing.T) {
	server := newTestServer(&fakeBookStore{}, &fakeChangeStore{})

	assert.Equal(t, http.StatusUnauthorized, do(t, server, "/api/v1/books", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(t, server, "/api/v1/books", "wrong-key").Code)
	assert.Equal(t, http.StatusOK, do(t, server, "/api/v1/books", testAPIKey).Code)
}

func TestEmptyAPIKeyDisablesAuth(t *testing.T) {
	server := api.NewServer(&fakeBookStore{}, &fakeChangeStore{}, logger.NewNoOp(), config.ServerConfig{})

	assert.Equal(t, http.StatusOK, do(t, server, "/api/v1/books", "").Code)
}

func TestListBooks(t *testing.T) {
	store := &fakeBookStore{books: map[string]*domain.Book{"abc123": testBook()}}
	server := newTestServer(store, &fakeChangeStore{})

	rec := do(t, server, "/api/v1/books?category=Poetry&rating=3&min_price=10&sort_by=price&page=2&page_size=5", testAPIKey)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items    []json.RawMessage `json:"items"`
		Total    int               `json:"total"`
		Page     int               `json:"page"`
		PageSize int               `json:"page_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Items, 1)
	assert.Equal(t, 1, body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 5, body.PageSize)

	assert.Equal(t, "Poetry", store.lastQuery.Category)
	assert.Equal(t, "price", store.lastQuery.SortBy)
	require.NotNil(t, store.lastQuery.Rating)
	assert.Equal(t, 3, *store.lastQuery.Rating)
	require.NotNil(t, store.lastQuery.MinPrice)
	assert.True(t, store.lastQuery.MinPrice.Equal(decimal.RequireFromString("10")))
}

func TestListBooksBadFilters(t *testing.T) {
	server := newTestServer(&fakeBookStore{}, &fakeChangeStore{})

	tests := []string{
		"/api/v1/books?min_price=abc",
		"/api/v1/books?min_price=-1",
		"/api/v1/books?max_price=oops",
		"/api/v1/books?rating=6",
		"/api/v1/books?rating=x",
	}

	for _, path := range tests {
		rec := do(t, server, path, testAPIKey)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestListBooksStoreError(t *testing.T) {
	store := &fakeBookStore{listErr: errors.New("db down")}
	server := newTestServer(store, &fakeChangeStore{})

	rec := do(t, server, "/api/v1/books", testAPIKey)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetBook(t *testing.T) {
	store := &fakeBookStore{books: map[string]*domain.Book{"abc123": testBook()}}
	server := newTestServer(store, &fakeChangeStore{})

	rec := do(t, server, "/api/v1/books/abc123", testAPIKey)

	require.Equal(t, http.StatusOK, rec.Code)

	var book domain.Book
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &book))
	assert.Equal(t, "A Light in the Attic", book.Name)
	// The raw snapshot never leaks through the JSON surface.
	assert.NotContains(t, rec.Body.String(), "snapshot")
}

func TestGetBookNotFound(t *testing.T) {
	server := newTestServer(&fakeBookStore{}, &fakeChangeStore{})

	rec := do(t, server, "/api/v1/books/missing", testAPIKey)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetBookHTML(t *testing.T) {
	store := &fakeBookStore{books: map[string]*domain.Book{"abc123": testBook()}}
	server := newTestServer(store, &fakeChangeStore{})

	rec := do(t, server, "/api/v1/books/abc123/html", testAPIKey)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		BookID string `json:"book_id"`
		HTML   string `json:"html"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "abc123", body.BookID)
	assert.Contains(t, body.HTML, "snapshot")
}

func TestGetBookHTMLMissingSnapshot(t *testing.T) {
	book := testBook()
	book.RawSnapshot = ""
	store := &fakeBookStore{books: map[string]*domain.Book{"abc123": book}}
	server := newTestServer(store, &fakeChangeStore{})

	rec := do(t, server, "/api/v1/books/abc123/html", testAPIKey)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListChangesRouting(t *testing.T) {
	changes := &fakeChangeStore{entries: []*domain.ChangeLogEntry{{
		ID:         "entry-1",
		BookID:     "abc123",
		ChangeType: domain.ChangeTypePrice,
	}}}
	server := newTestServer(&fakeBookStore{}, changes)

	rec := do(t, server, "/api/v1/changes", testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "recent", changes.lastCall)

	rec = do(t, server, "/api/v1/changes?book_id=abc123", testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "book:abc123", changes.lastCall)

	rec = do(t, server, "/api/v1/changes?change_type=price_change", testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "type:price_change", changes.lastCall)

	var entries []*domain.ChangeLogEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ChangeTypePrice, entries[0].ChangeType)
}

func TestListChangesEmpty(t *testing.T) {
	server := newTestServer(&fakeBookStore{}, &fakeChangeStore{})

	rec := do(t, server, "/api/v1/changes", testAPIKey)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
