// Package cli wires the cobra command surface for ghindex.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ghindex/internal/logger"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ghindex",
	Short: "Incremental GitHub issue and discussion indexer",
	Long: `ghindex crawls one repository's issues and discussions, merges them
with the previously indexed corpus, and publishes a slimmed metadata
collection plus a lexical search index.

Runs are incremental: each run records the newest update it saw and the
next run fetches only what changed since. Concurrent invocations
against the same cache or output directory are not supported.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
