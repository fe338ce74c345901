package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "batchload",
	Short: "Batch CSV-to-database loading utility",
	Long: `batchload downloads a compressed archive, extracts its CSV files, and
streams their rows into relational database tables: one transaction per
file, retry on transient lock contention, verification counts at the end.

Each configured (file, table) pair is read fully into memory and committed
as one atomic transaction; a failure rolls the table back to its prior
state and aborts the remaining files.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Failed to open or probe the database
  12 - Malformed input file
  13 - Insert violated a table constraint
  14 - Transient lock contention outlasted the retry bound`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("help", false, "Help for batchload")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
