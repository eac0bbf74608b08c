// Command riskreport recomputes a portfolio risk summary outside the server.
//
// Snapshots come from PostgreSQL (DATABASE_URL) or from a JSON file, and
// thresholds from a YAML file when one is given.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/siterisk/backend/internal/config"
	"github.com/siterisk/backend/internal/logging"
	"github.com/siterisk/backend/internal/model"
	"github.com/siterisk/backend/internal/repository"
	"github.com/siterisk/backend/internal/risk"
	"github.com/siterisk/backend/internal/service"
)

const asOfLayout = "2006-01-02"

type options struct {
	ownerID        string
	thresholdsFile string
	snapshotsFile  string
	asOf           string
	format         string
	concurrency    int
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel)

	if err := newRootCmd(cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{
		thresholdsFile: cfg.ThresholdsFile,
		concurrency:    cfg.PortfolioConcurrency,
	}
	cmd := &cobra.Command{
		Use:   "riskreport",
		Short: "Recompute portfolio risk for one owner",
		Long: `Loads project snapshots for an owner, scores every project with the
owner's thresholds and prints the portfolio summary.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg, opts, cmd)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.ownerID, "owner", "", "owner whose projects are evaluated")
	f.StringVar(&opts.thresholdsFile, "thresholds", opts.thresholdsFile, "YAML thresholds file (defaults apply when empty)")
	f.StringVar(&opts.snapshotsFile, "snapshots", "", "read snapshots from a JSON file instead of the database")
	f.StringVar(&opts.asOf, "as-of", "", "evaluation date, YYYY-MM-DD (default now)")
	f.StringVar(&opts.format, "format", "json", "output format: json or text")
	f.IntVar(&opts.concurrency, "concurrency", opts.concurrency, "projects scored in parallel (0 = GOMAXPROCS)")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts *options, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.ownerID == "" && opts.snapshotsFile == "" {
		return fmt.Errorf("--owner is required unless --snapshots is given")
	}
	if opts.format != "json" && opts.format != "text" {
		return fmt.Errorf("unknown format %q", opts.format)
	}
	clock, err := clockFor(opts.asOf)
	if err != nil {
		return err
	}

	var snapshots repository.SnapshotRepository
	if opts.snapshotsFile != "" {
		src, err := loadSnapshotFile(opts.snapshotsFile)
		if err != nil {
			return err
		}
		snapshots = src
	} else {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()
		snapshots = repository.NewPgSnapshotRepository(pool, cfg.InjuryWindowDays)
	}

	var store repository.ThresholdStore = noThresholds{}
	if opts.thresholdsFile != "" {
		store = repository.NewFileThresholdStore(opts.thresholdsFile)
	}
	settings := service.NewRiskSettingsService(store)
	svc := service.NewRiskService(snapshots, settings, service.RiskServiceConfig{
		Clock:       clock,
		Concurrency: opts.concurrency,
	})

	summary, err := svc.Portfolio(ctx, opts.ownerID)
	if err != nil {
		return err
	}
	if opts.format == "text" {
		return writeText(cmd.OutOrStdout(), summary)
	}
	return writeJSON(cmd.OutOrStdout(), summary)
}

func clockFor(asOf string) (risk.Clock, error) {
	if asOf == "" {
		return risk.SystemClock{}, nil
	}
	t, err := time.Parse(asOfLayout, asOf)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of %q: %w", asOf, err)
	}
	// End of the given day, so reports filed that day count as today.
	return risk.FixedClock(t.Add(24*time.Hour - time.Second)), nil
}

// noThresholds is the store used when no thresholds file is configured.
type noThresholds struct{}

func (noThresholds) Load(context.Context, string) (*model.RiskSettings, error) {
	return nil, repository.ErrNotFound
}

func (noThresholds) Save(context.Context, string, *model.RiskSettings) error {
	return fmt.Errorf("no thresholds file configured")
}
