// Package cmd implements the command-line interface for bookwatch.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/bookwatch/cmd/crawl"
	"github.com/jonesrussell/bookwatch/cmd/schedule"
	"github.com/jonesrussell/bookwatch/cmd/serve"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "bookwatch",
		Short: "A catalog crawler with change detection",
		Long: `bookwatch crawls a paginated book catalog on a schedule, detects
what changed since the previous crawl and records an auditable change log.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to viper.
	_ = godotenv.Load()

	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("bookwatch version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(serve.Command())
	rootCmd.AddCommand(schedule.Command())
}

// initConfig reads the config file and environment variables.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := bindEnvVars(); err != nil {
		return err
	}

	// Config file is optional; defaults and environment cover the rest.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file not found: %v (using defaults and environment)\n", err)
	}

	if debug {
		viper.Set("logger.level", "debug")
		viper.Set("logger.development", true)
		viper.Set("logger.encoding", "console")
	}

	return nil
}

// bindEnvVars maps well-known environment variables to config keys.
func bindEnvVars() error {
	bindings := map[string][]string{
		"app.environment":              {"APP_ENV"},
		"logger.level":                 {"LOG_LEVEL"},
		"logger.encoding":              {"LOG_FORMAT"},
		"crawler.base_url":             {"CRAWLER_BASE_URL", "BASE_URL"},
		"crawler.max_concurrent":       {"CRAWLER_MAX_CONCURRENT", "MAX_CONCURRENT_REQUESTS"},
		"crawler.retry_max_attempts":   {"CRAWLER_RETRY_MAX_ATTEMPTS", "RETRY_MAX_ATTEMPTS"},
		"crawler.retry_backoff_factor": {"CRAWLER_RETRY_BACKOFF_FACTOR", "RETRY_BACKOFF_FACTOR"},
		"database.host":                {"DB_HOST"},
		"database.port":                {"DB_PORT"},
		"database.user":                {"DB_USER"},
		"database.password":            {"DB_PASSWORD"},
		"database.dbname":              {"DB_NAME"},
		"database.sslmode":             {"DB_SSLMODE"},
		"server.address":               {"SERVER_ADDRESS"},
		"server.api_key":               {"API_KEY"},
		"scheduler.enabled":            {"SCHEDULER_ENABLED"},
		"scheduler.cron_spec":          {"SCHEDULER_CRON"},
	}

	for key, envs := range bindings {
		input := append([]string{key}, envs...)
		if err := viper.BindEnv(input...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	return nil
}
