package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/OhHyunSeo/Feple-LLM-Model/internal/analyzer"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/app"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/batch"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/logger"
	"github.com/OhHyunSeo/Feple-LLM-Model/internal/report"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "consultlytics",
		Short: "LLM-based consultation call analysis pipeline",
		Long: `Consultlytics scores consultation call records, asks an LLM for a
qualitative evaluation and persists the combined result. Records are
read from Postgres; analysis results land in a local SQLite database
and an optional JSON artifact per batch run.`,
	}

	rootCmd.AddCommand(runCmd(), analyzeCmd(), seedCmd(), resultsCmd(), exportCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads config, initializes Sentry and wires the pipeline. The returned
// cleanup flushes Sentry and closes both stores.
func setup(ctx context.Context) (*app.App, *logger.Logger, func(), error) {
	cfg := app.LoadConfigFromEnv()
	log := logger.New()

	sentryOn := false
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: getEnvironment(),
		})
		if err != nil {
			log.WithError(err).Warn("sentry init failed")
		} else {
			sentryOn = true
		}
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		if sentryOn {
			sentry.CaptureException(err)
			sentry.Flush(2 * time.Second)
		}
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = a.Close()
		if sentryOn {
			sentry.Flush(2 * time.Second)
		}
	}
	return a, log, cleanup, nil
}

func runCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze consultation records in batches",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, log, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			records, err := a.Records().List(ctx, limit)
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}
			ids := make([]string, len(records))
			for i, r := range records {
				ids[i] = r.CallID
			}

			summary, outcomes, err := a.Runner().Run(ctx, ids)
			if err != nil {
				return err
			}

			printSummary(summary, outcomes)
			log.WithField("run_id", summary.RunID).Info("batch finished")
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum records to analyze (0 = all)")
	return cmd
}

func analyzeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <call_id>",
		Short: "Analyze a single consultation record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, _, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := a.Analyzer().Analyze(ctx, args[0])
			if err != nil {
				return err
			}

			writeAnalysis(os.Stdout, res)
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and insert sample consultation records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, log, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.Records().EnsureSchema(ctx); err != nil {
				return fmt.Errorf("ensure schema: %w", err)
			}
			inserted, err := a.Records().SeedSampleData(ctx, count)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			log.Infof("seeded %d of %d sample records", inserted, count)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 20, "number of sample records to insert")
	return cmd
}

func resultsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List persisted analysis results",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, _, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rows, err := a.Results().List(ctx, limit)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Println("no analysis results")
				return nil
			}

			fmt.Printf("%-12s %6s %6s %10s %s\n", "CALL ID", "EVAL", "FINAL", "MANUAL", "UPDATED (UTC)")
			for _, r := range rows {
				fmt.Printf("%-12s %6d %6d %9.0f%% %s\n",
					r.CallID, r.EvaluationScore, r.FinalScore,
					r.ManualComplianceRatio*100, r.UpdatedAtUTC)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to list (0 = all)")
	return cmd
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export analysis results to an Excel workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, log, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rows, err := a.Results().List(ctx, 0)
			if err != nil {
				return err
			}
			if err := report.WriteExcel(out, rows); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			log.Infof("exported %d results to %s", len(rows), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "analysis_report.xlsx", "output workbook path")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("consultlytics %s (%s, %s)\n", version, commit, buildDate)
		},
	}
}

func writeAnalysis(w io.Writer, res *analyzer.AnalysisResult) {
	fmt.Fprintf(w, "call_id:           %s\n", res.CallID)
	fmt.Fprintf(w, "evaluation score:  %d\n", res.EvaluationScore)
	fmt.Fprintf(w, "final score:       %d\n", res.FinalScore)
	fmt.Fprintf(w, "agent emotion:     %d\n", res.AgentEmotion)
	fmt.Fprintf(w, "customer emotion:  %d\n", res.CustomerEmotion)
	fmt.Fprintf(w, "efficiency:        %d\n", res.Efficiency)
	fmt.Fprintf(w, "manual compliance: %.2f\n", res.ManualCompliance)
	fmt.Fprintf(w, "strengths:         %s\n", res.Strengths)
	fmt.Fprintf(w, "weaknesses:        %s\n", res.Weaknesses)
	fmt.Fprintf(w, "improvements:      %s\n", res.Improvements)
	fmt.Fprintf(w, "coaching:          %s\n", res.CoachingMessage)
	fmt.Fprintf(w, "persisted:         %v\n", res.Persisted)
}

func printSummary(s batch.Summary, outcomes []batch.Outcome) {
	fmt.Println("=== Batch Analysis Summary ===")
	fmt.Printf("run id:     %s\n", s.RunID)
	fmt.Printf("total:      %d\n", s.Total)
	failRate := 0.0
	if s.Total > 0 {
		failRate = float64(s.Failed) / float64(s.Total) * 100
	}
	fmt.Printf("succeeded:  %d (%.1f%%)\n", s.Succeeded, s.SuccessRate())
	fmt.Printf("failed:     %d (%.1f%%)\n", s.Failed, failRate)
	if s.Failed > 0 {
		fmt.Println("failed call ids:")
		for _, o := range outcomes {
			if o.Status == batch.StatusFailed {
				fmt.Printf("  - %s\n", o.CallID)
			}
		}
	}
}

func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "development"
}
