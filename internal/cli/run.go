package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/datatools-io/batchload/internal/fetch"
	"github.com/datatools-io/batchload/internal/logging"
	"github.com/datatools-io/batchload/internal/runner"
	"github.com/datatools-io/batchload/pkg/batchload"
)

var runCmd = &cobra.Command{
	Use:   "run <project_path>",
	Short: "Execute the full loading pipeline",
	Long: `Run executes the full pipeline for the project directory:

1. Downloads and extracts the input archive, if one is configured and the
   inputs are not already present
2. Applies pending schema migrations
3. Ingests every configured (file, table) pair in order, each as one
   transaction with retry on transient lock contention
4. Reports a verification count per table

Arguments:
  project_path    Directory containing batchload.yaml

Examples:
  # Full pipeline
  batchload run ./project

  # Bound the whole run to one minute
  batchload run ./project --timeout 1m`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

type runFlagValues struct {
	timeout time.Duration
}

var runFlags runFlagValues

func init() {
	rootCmd.AddCommand(runCmd)

	// Catastrophic failure protection, not normal timeout control.
	runCmd.Flags().DurationVar(&runFlags.timeout, "timeout", batchload.DefaultTimeout,
		"Catastrophic failure protection timeout\n"+
			"Prevents indefinite hangs; the retry bound governs normal waits\n"+
			"Examples: 30s, 5m, 1h30m")
}

func runRun(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProject(sourcePath)
	if err != nil {
		return err
	}

	cfg, err := buildLoadConfig(projectCfg, sourcePath, runFlags.timeout, cmd.Flags().Changed("timeout"), verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)

	ctx, cancel := runContext(cfg.Timeout)
	defer cancel()

	// Acquire inputs first: the core only requires that the CSV files
	// exist at their configured paths by the time it runs.
	if projectCfg.Archive.URL != "" {
		fetchCfg, err := buildFetchConfig(projectCfg, sourcePath, verbose)
		if err != nil {
			return err
		}
		if err := acquireInputs(ctx, fetchCfg, cfg, logger); err != nil {
			return fmt.Errorf("archive acquisition failed: %w", err)
		}
	}

	if err := applyMigrations(ctx, cfg, logger); err != nil {
		return err
	}

	r := runner.New(buildExecutor(cfg.Retry), logger)
	if err := r.Run(ctx, cfg); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

// acquireInputs downloads the archive when it is absent and extracts it
// when any dataset file is missing. Both steps are skipped when the inputs
// are already in place, so repeated runs do not re-download.
func acquireInputs(ctx context.Context, fetchCfg batchload.FetchConfig, cfg batchload.LoadConfig, logger batchload.Logger) error {
	f := fetch.New(logger)

	if _, err := os.Stat(fetchCfg.ArchivePath); os.IsNotExist(err) {
		logger.Info("downloading archive from %s", fetchCfg.URL)
		if err := f.Download(ctx, fetchCfg.URL, fetchCfg.ArchivePath, fetchCfg.SHA256); err != nil {
			return err
		}
	} else {
		logger.Verbose("archive already present at %s", fetchCfg.ArchivePath)
	}

	missing := false
	for _, ds := range cfg.Datasets {
		if _, err := os.Stat(ds.File); os.IsNotExist(err) {
			missing = true
			break
		}
	}
	if missing {
		logger.Info("extracting %s into %s", fetchCfg.ArchivePath, fetchCfg.ExtractDir)
		if err := f.Extract(fetchCfg.ArchivePath, fetchCfg.ExtractDir); err != nil {
			return err
		}
	} else {
		logger.Verbose("all dataset files already present, skipping extraction")
	}

	return nil
}
