// Package cli implements medstockctl, the operator command line for the
// analytics core.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/medstock/backend/internal/bootstrap"
	"github.com/medstock/backend/internal/infrastructure/config"
	"github.com/medstock/backend/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logLevel string
	compact  bool

	// loadConfig is replaced in tests
	loadConfig = config.Load
)

var rootCmd = &cobra.Command{
	Use:           "medstockctl",
	Short:         "Operate the medstock analytics core",
	Long:          "medstockctl computes KPIs and runs analyses against the configured database, seeds demo data, issues API tokens and triggers maintenance on a running server.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&compact, "compact", false, "Emit compact JSON instead of indented")
}

func newLogger() (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stderr",
	})
}

// withApp loads configuration, wires the analytics core and hands it to fn.
// Maintenance schedules are not started; jobs run only while fn waits for them.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := bootstrap.New(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Warn("Error closing analytics core", zap.Error(err))
		}
	}()
	return fn(ctx, app)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
