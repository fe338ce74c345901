package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datatools-io/batchload/internal/fetch"
	"github.com/datatools-io/batchload/internal/logging"
	"github.com/datatools-io/batchload/pkg/batchload"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <project_path>",
	Short: "Download and extract the input archive",
	Long: `Fetch downloads the configured archive, verifies its SHA-256 digest when
one is configured, and extracts the gzip+tar contents into the configured
directory. It does not touch the database.

Arguments:
  project_path    Directory containing batchload.yaml

Examples:
  batchload fetch ./project`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	sourcePath := args[0]
	verbose := getVerboseFlag(cmd)

	projectCfg, err := loadProject(sourcePath)
	if err != nil {
		return err
	}

	fetchCfg, err := buildFetchConfig(projectCfg, sourcePath, verbose)
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(verbose)

	ctx, cancel := runContext(batchload.DefaultTimeout)
	defer cancel()

	f := fetch.New(logger)
	logger.Info("downloading archive from %s", fetchCfg.URL)
	if err := f.Download(ctx, fetchCfg.URL, fetchCfg.ArchivePath, fetchCfg.SHA256); err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	logger.Info("extracting %s into %s", fetchCfg.ArchivePath, fetchCfg.ExtractDir)
	if err := f.Extract(fetchCfg.ArchivePath, fetchCfg.ExtractDir); err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	return nil
}
