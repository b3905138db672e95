// Package schedule implements the recurring crawl daemon command.
package schedule

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/bookwatch/cmd/common"
	"github.com/jonesrussell/bookwatch/internal/database"
	"github.com/jonesrussell/bookwatch/internal/job"
)

// Command returns the schedule command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run crawls on a recurring cron schedule",
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

	if !deps.Config.Scheduler.Enabled {
		deps.Logger.Info("scheduler disabled in configuration")
		return nil
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if migrateErr := database.Migrate(runCtx, deps.DB); migrateErr != nil {
		return migrateErr
	}

	scheduler := job.NewScheduler(
		deps.NewCrawler(),
		deps.Config.Crawler,
		deps.Config.Scheduler.CronSpec,
		deps.Logger,
	)

	return scheduler.Start(runCtx)
}
