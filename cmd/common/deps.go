// Package common provides shared bootstrap for command implementations.
package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/bookwatch/internal/config"
	"github.com/jonesrussell/bookwatch/internal/crawler"
	"github.com/jonesrussell/bookwatch/internal/database"
	"github.com/jonesrussell/bookwatch/internal/detect"
	"github.com/jonesrussell/bookwatch/internal/fetch"
	"github.com/jonesrussell/bookwatch/internal/logger"
)

// Deps holds the dependencies shared by all commands.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
	DB     *sqlx.DB
}

// Build loads configuration, creates the logger and opens the
// database connection.
func Build() (*Deps, error) {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		return nil, fmt.Errorf("load config: %w", cfgErr)
	}

	log, logErr := logger.New(cfg.Logger)
	if logErr != nil {
		return nil, fmt.Errorf("create logger: %w", logErr)
	}

	db, dbErr := database.NewPostgresConnection(cfg.Database)
	if dbErr != nil {
		return nil, fmt.Errorf("connect database: %w", dbErr)
	}

	return &Deps{Config: cfg, Logger: log, DB: db}, nil
}

// Close releases held resources.
func (d *Deps) Close() {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Warn("closing database connection failed", "error", err.Error())
		}
	}
}

// NewCrawler wires the crawl pipeline against the deps' database.
func (d *Deps) NewCrawler() *crawler.Crawler {
	return crawler.New(
		fetch.New(),
		detect.New(),
		database.NewSink(d.DB),
		d.Logger.WithComponent("crawler"),
	)
}
