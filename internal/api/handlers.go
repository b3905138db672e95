package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/jonesrussell/bookwatch/internal/database"
	"github.com/jonesrussell/bookwatch/internal/domain"
)

// handleHealth reports liveness. No authentication required.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleListBooks serves a filtered, sorted, paginated book listing.
func (s *Server) handleListBooks(c *gin.Context) {
	query, ok := parseBookQuery(c)
	if !ok {
		return
	}

	books, total, err := s.books.List(c.Request.Context(), query)
	if err != nil {
		s.log.Error("list books failed", "error", err.Error())
		respondInternalError(c)
		return
	}

	if books == nil {
		books = []*domain.Book{}
	}

	c.JSON(http.StatusOK, gin.H{
		"items":     books,
		"total":     total,
		"page":      query.Page,
		"page_size": query.PageSize,
	})
}

// handleGetBook serves a single book by ID.
func (s *Server) handleGetBook(c *gin.Context) {
	book, err := s.books.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		s.log.Error("get book failed", "book_id", c.Param("id"), "error", err.Error())
		respondInternalError(c)
		return
	}

	c.JSON(http.StatusOK, book)
}

// handleGetBookHTML serves the raw fetched snapshot for audit/debug.
func (s *Server) handleGetBookHTML(c *gin.Context) {
	book, err := s.books.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, "book")
			return
		}
		s.log.Error("get book html failed", "book_id", c.Param("id"), "error", err.Error())
		respondInternalError(c)
		return
	}

	if book.RawSnapshot == "" {
		respondNotFound(c, "html snapshot")
		return
	}

	c.JSON(http.StatusOK, gin.H{"book_id": book.ID, "html": book.RawSnapshot})
}

// handleListChanges serves recent change log entries, optionally
// filtered by book or change type.
func (s *Server) handleListChanges(c *gin.Context) {
	limit := parseIntQuery(c, "limit", database.DefaultChangeLimit)

	ctx := c.Request.Context()

	var entries []*domain.ChangeLogEntry
	var err error

	switch {
	case c.Query("book_id") != "":
		entries, err = s.changes.ListByBook(ctx, c.Query("book_id"), limit)
	case c.Query("change_type") != "":
		entries, err = s.changes.ListByType(ctx, c.Query("change_type"), limit)
	default:
		entries, err = s.changes.ListRecent(ctx, limit)
	}

	if err != nil {
		s.log.Error("list changes failed", "error", err.Error())
		respondInternalError(c)
		return
	}

	if entries == nil {
		entries = []*domain.ChangeLogEntry{}
	}

	c.JSON(http.StatusOK, entries)
}

// parseBookQuery reads listing filters from query params. Responds
// with 400 and returns ok=false on malformed values.
func parseBookQuery(c *gin.Context) (database.BookQuery, bool) {
	query := database.BookQuery{
		Category: c.Query("category"),
		SortBy:   c.DefaultQuery("sort_by", "rating"),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", database.DefaultPageSize),
	}

	if raw := c.Query("min_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			respondBadRequest(c, "min_price must be a non-negative decimal")
			return query, false
		}
		query.MinPrice = &price
	}

	if raw := c.Query("max_price"); raw != "" {
		price, err := decimal.NewFromString(raw)
		if err != nil || price.IsNegative() {
			respondBadRequest(c, "max_price must be a non-negative decimal")
			return query, false
		}
		query.MaxPrice = &price
	}

	if raw := c.Query("rating"); raw != "" {
		rating, err := strconv.Atoi(raw)
		if err != nil || rating < domain.MinRating || rating > domain.MaxRating {
			respondBadRequest(c, "rating must be an integer between 0 and 5")
			return query, false
		}
		query.Rating = &rating
	}

	return query, true
}

// parseIntQuery parses a positive integer query param with a default.
func parseIntQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}

	return value
}

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, resource+" not found")
}

func respondBadRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message)
}

func respondInternalError(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, "internal server error")
}
