// Package serve implements the API server command.
package serve

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/bookwatch/cmd/common"
	"github.com/jonesrussell/bookwatch/internal/api"
	"github.com/jonesrussell/bookwatch/internal/config"
	"github.com/jonesrussell/bookwatch/internal/database"
)

// Command returns the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve stored books and change history over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
}

func run(ctx context.Context) error {
	deps, depsErr := cmdcommon.Build()
	if depsErr != nil {
		return depsErr
	}
	defer deps.Close()

	// An unauthenticated API is acceptable only in local development.
	if deps.Config.Environment == "production" && deps.Config.Server.APIKey == "" {
		return config.ErrMissingAPIKey
	}

	serveCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateErr := database.Migrate(serveCtx, deps.DB); migrateErr != nil {
		return migrateErr
	}

	server := api.NewServer(
		database.NewBookRepository(deps.DB),
		database.NewChangeLogRepository(deps.DB),
		deps.Logger,
		deps.Config.Server,
	)

	return server.Start(serveCtx)
}
