package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	analysisapp "github.com/medstock/backend/internal/application/analysis"
	"github.com/medstock/backend/internal/bootstrap"
	"github.com/medstock/backend/internal/domain/analysis"
	"github.com/medstock/backend/internal/domain/analytics"
	"github.com/medstock/backend/internal/infrastructure/auth"
	"github.com/medstock/backend/internal/infrastructure/persistence"
	"github.com/medstock/backend/internal/infrastructure/seed"
	"github.com/spf13/cobra"
)

// pollInterval is how often analyze checks a running job
const pollInterval = 100 * time.Millisecond

func init() {
	rootCmd.AddCommand(kpisCmd, analyzeCmd, seedCmd, tokenCmd, cleanupCmd)

	addFilterFlags(kpisCmd)
	addFilterFlags(analyzeCmd)
	analyzeCmd.Flags().String("type", string(analysis.TypeQuickAssessment), "Analysis type (quick_assessment, full, warehouse_optimization, purchase_order)")
	analyzeCmd.Flags().Duration("wait", 5*time.Minute, "Give up waiting for the job after this long")

	defaults := seed.DefaultConfig()
	seedCmd.Flags().Int("suppliers", defaults.Suppliers, "Number of suppliers")
	seedCmd.Flags().Int("medications", defaults.Medications, "Number of medications")
	seedCmd.Flags().Int("stores", defaults.Stores, "Number of stores")
	seedCmd.Flags().Int("days", defaults.Days, "Days of history ending today")
	seedCmd.Flags().Int("max-daily-pos", defaults.MaxDailyPOs, "Maximum purchase orders per day")
	seedCmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")

	tokenCmd.Flags().String("subject", "", "Token subject, e.g. the dashboard or operator name")
	tokenCmd.Flags().StringSlice("scope", []string{auth.ScopeRead}, "Granted scopes (repeatable)")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("subject")

	cleanupCmd.Flags().String("server", "http://localhost:8080", "Base URL of the running server")
	cleanupCmd.Flags().String("token", "", "Bearer token with the maintenance scope")
	cleanupCmd.Flags().Int("retention-hours", 24, "Keep finished jobs younger than this")
	cleanupCmd.Flags().Duration("timeout", 10*time.Second, "Request timeout")
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("range", string(analytics.DefaultTimeRange), "Reporting window (7d, 30d, 90d, 1y)")
	cmd.Flags().String("supplier", "", "Only orders from this supplier")
	cmd.Flags().String("store", "", "Only this store")
	cmd.Flags().String("med", "", "Only this medication")
}

func filterFromFlags(cmd *cobra.Command) (string, analytics.Filter) {
	timeRange, _ := cmd.Flags().GetString("range")
	supplier, _ := cmd.Flags().GetString("supplier")
	store, _ := cmd.Flags().GetString("store")
	med, _ := cmd.Flags().GetString("med")
	return timeRange, analytics.Filter{SupplierID: supplier, StoreID: store, MedID: med}
}

var kpisCmd = &cobra.Command{
	Use:   "kpis",
	Short: "Compute KPIs for a reporting window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		timeRange, filter := filterFromFlags(cmd)
		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			result, err := app.KPIs.ComputeKPIs(ctx, analytics.TimeRange(timeRange), filter)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		})
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run an analysis job and print its result",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		timeRange, filter := filterFromFlags(cmd)
		analysisType, _ := cmd.Flags().GetString("type")
		wait, _ := cmd.Flags().GetDuration("wait")

		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			job, err := app.Analysis.StartAnalysis(ctx, analysisapp.StartRequest{
				AnalysisType: analysisType,
				TimeRange:    timeRange,
				Filter:       filter,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(ctx, wait)
			defer cancel()
			done, err := waitForJob(ctx, app.Analysis, job.ID.String())
			if err != nil {
				return err
			}
			if done.Status == analysis.JobStatusFailed {
				return fmt.Errorf("analysis %s failed: %s", done.ID, done.Error)
			}
			return writeJSON(cmd.OutOrStdout(), done.Result)
		})
	},
}

type jobPoller interface {
	GetJobStatus(ctx context.Context, jobID string) (*analysis.Job, error)
	GetJobResult(ctx context.Context, jobID string) (*analysis.Job, error)
}

// waitForJob polls until the job reaches a terminal state
func waitForJob(ctx context.Context, jobs jobPoller, jobID string) (*analysis.Job, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		job, err := jobs.GetJobStatus(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			if job.Status == analysis.JobStatusCompleted {
				return jobs.GetJobResult(ctx, jobID)
			}
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("job %s still %s at %d%%: %w", jobID, job.Status, job.Progress, ctx.Err())
		case <-ticker.C:
		}
	}
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write generated purchase order and consumption history",
	Long:  "seed fills the configured database with plausible demo data. Re-running with the same --seed on the same day inserts nothing new.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := seed.DefaultConfig()
		cfg.Suppliers, _ = cmd.Flags().GetInt("suppliers")
		cfg.Medications, _ = cmd.Flags().GetInt("medications")
		cfg.Stores, _ = cmd.Flags().GetInt("stores")
		cfg.Days, _ = cmd.Flags().GetInt("days")
		cfg.MaxDailyPOs, _ = cmd.Flags().GetInt("max-daily-pos")
		cfg.Seed, _ = cmd.Flags().GetUint64("seed")

		return withApp(cmd, func(ctx context.Context, app *bootstrap.App) error {
			seeder := seed.NewSeeder(
				persistence.NewGormOrderRepository(app.DB.DB),
				persistence.NewGormConsumptionRepository(app.DB.DB),
				app.Logger,
			)
			summary, err := seeder.Run(ctx, cfg)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summary)
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token signed with the configured secret",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		scopes, _ := cmd.Flags().GetStringSlice("scope")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.JWT.Secret == "" {
			return errors.New("jwt.secret is not configured")
		}

		token, err := auth.NewTokenService(cfg.JWT).Issue(subject, scopes, ttl)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
		return err
	},
}
