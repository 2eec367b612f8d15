package cli

import "github.com/spf13/cobra"

// Version is set via ldflags at build time.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the ghindex version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("ghindex %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
