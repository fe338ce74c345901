package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/datatools-io/batchload/internal/logging"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate <project_path>",
	Short: "Apply pending schema migrations",
	Long: `Migrate applies every pending *.sql file from the configured migrations
directory, in lexical filename order, one transaction each. Applied
versions are recorded with a content checksum; re-running skips them and a
checksum mismatch (the file changed after it ran) aborts with an error.

Arguments:
  project_path    Directory containing batchload.yaml

Examples:
  batchload migrate ./project`,
	Args: cobra.ExactArgs(1),
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProject(sourcePath)
	if err != nil {
		return err
	}

	var timeout time.Duration
	cfg, err := buildLoadConfig(projectCfg, sourcePath, timeout, false, verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)

	ctx, cancel := runContext(cfg.Timeout)
	defer cancel()

	return applyMigrations(ctx, cfg, logger)
}
