// Package cli provides the command-line interface for promptpad.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/promptpad/internal/config"
	"github.com/raphaelgruber/promptpad/internal/db"
	"github.com/raphaelgruber/promptpad/internal/llm"
	"github.com/raphaelgruber/promptpad/internal/metrics"
	"github.com/raphaelgruber/promptpad/internal/service"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool
	plain   bool

	// Global config and workspace
	cfg        config.Config
	logger     *slog.Logger
	logCleanup func() error
	ws         *service.Workspace
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "promptpad",
	Short: "Manage system prompt sessions and test them against a chat model",
	Long: `promptpad keeps several independent prompt sessions. Each session has
editable system-prompt content, a history of the last 10 content versions,
and a conversation you can run against a chat-completion service.

State is stored in SQLite by default (see PROMPTPAD_STORE for Redis,
SurrealDB or in-memory storage).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip state loading for help and shell completion
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, logCleanup = config.SetupLogger(cfg.LogFile, level, !verbose)

		collector := metrics.NewCollector()
		completer, err := llm.NewCompleter(cfg, logger, collector)
		if err != nil {
			return fmt.Errorf("init completer: %w", err)
		}

		ctx := context.Background()
		store, err := db.Open(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("open state store: %w", err)
		}

		ws, err = service.Open(ctx, store, service.Dependencies{
			Completer: completer,
			Logger:    logger,
			Metrics:   collector,
		})
		if err != nil {
			_ = store.Close(ctx)
			return fmt.Errorf("load workspace: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if ws != nil {
			if err := ws.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close state store: %v\n", err)
			}
		}
		if logCleanup != nil {
			_ = logCleanup()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr as well as the log file")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "disable colors and the interactive waiting view")

	// Add subcommands
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(exportCmd)
}
