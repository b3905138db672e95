// Package api implements the HTTP API serving stored book records and
// change log entries.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/bookwatch/internal/config"
	"github.com/jonesrussell/bookwatch/internal/database"
	"github.com/jonesrussell/bookwatch/internal/domain"
	"github.com/jonesrussell/bookwatch/internal/logger"
)

// BookStore is the read surface the API needs for books.
type BookStore interface {
	GetByID(ctx context.Context, id string) (*domain.Book, error)
	List(ctx context.Context, q database.BookQuery) ([]*domain.Book, int, error)
}

// ChangeStore is the read surface the API needs for change history.
type ChangeStore interface {
	ListRecent(ctx context.Context, limit int) ([]*domain.ChangeLogEntry, error)
	ListByBook(ctx context.Context, bookID string, limit int) ([]*domain.ChangeLogEntry, error)
	ListByType(ctx context.Context, changeType string, limit int) ([]*domain.ChangeLogEntry, error)
}

// Server is the HTTP API server.
type Server struct {
	books   BookStore
	changes ChangeStore
	log     logger.Interface
	cfg     config.ServerConfig
}

// NewServer creates an API server.
func NewServer(books BookStore, changes ChangeStore, log logger.Interface, cfg config.ServerConfig) *Server {
	return &Server{
		books:   books,
		changes: changes,
		log:     log.WithComponent("api"),
		cfg:     cfg,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLogger())

	router.GET("/healthz", s.handleHealth)

	v1 := router.Group("/api/v1", s.apiKeyAuth())
	{
		v1.GET("/books", s.handleListBooks)
		v1.GET("/books/:id", s.handleGetBook)
		v1.GET("/books/:id/html", s.handleGetBookHTML)
		v1.GET("/changes", s.handleListChanges)
	}

	return router
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.log.Info("api server listening", "address", s.cfg.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("api server shutting down")
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
