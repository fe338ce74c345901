package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/datatools-io/batchload/internal/logging"
	"github.com/datatools-io/batchload/internal/runner"
	"github.com/datatools-io/batchload/pkg/batchload"
)

var loadCmd = &cobra.Command{
	Use:   "load <project_path>",
	Short: "Ingest the configured CSV files and verify counts",
	Long: `Load ingests every configured (file, table) pair without fetching the
archive or applying migrations. It assumes the input files exist at their
configured paths and the destination tables were already provisioned.

Each file is read fully into memory, then committed to its table as a
single transaction. Transient lock contention is retried under the
configured policy; any other failure rolls the transaction back and aborts
the remaining files. After the last file, a count per table is reported.

Arguments:
  project_path    Directory containing batchload.yaml

Examples:
  batchload load ./project
  batchload load ./project --timeout 30s -v`,
	Args: cobra.ExactArgs(1),
	RunE: runLoad,
}

type loadFlagValues struct {
	timeout time.Duration
}

var loadFlags loadFlagValues

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().DurationVar(&loadFlags.timeout, "timeout", batchload.DefaultTimeout,
		"Catastrophic failure protection timeout")
}

func runLoad(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProject(sourcePath)
	if err != nil {
		return err
	}

	cfg, err := buildLoadConfig(projectCfg, sourcePath, loadFlags.timeout, cmd.Flags().Changed("timeout"), verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)

	ctx, cancel := runContext(cfg.Timeout)
	defer cancel()

	r := runner.New(buildExecutor(cfg.Retry), logger)
	if err := r.Run(ctx, cfg); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	return nil
}
