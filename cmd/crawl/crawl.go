// Package crawl implements the one-shot crawl command.
package crawl

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/bookwatch/cmd/common"
	"github.com/jonesrussell/bookwatch/internal/database"
)

// Command returns the crawl command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Run one complete crawl of the catalog",
		Long: `Walks every catalog page, fetches each item page, detects changes
against the stored records and writes updates plus change log entries.`,
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

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateErr := database.Migrate(runCtx, deps.DB); migrateErr != nil {
		return migrateErr
	}

	summary, runErr := deps.NewCrawler().RunOnce(runCtx, deps.Config.Crawler)
	if runErr != nil {
		return fmt.Errorf("crawl run: %w", runErr)
	}

	for _, failure := range summary.Failures {
		deps.Logger.Warn("item failed",
			"url", failure.URL,
			"stage", failure.Stage,
			"reason", failure.Reason,
		)
	}

	return nil
}
