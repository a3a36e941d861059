package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "minwonctl",
		Short:         "Administrative tools for the complaint board",
		Long:          `minwonctl manages the complaint store: schema migrations, listing and resolving complaints, exports and staff credentials.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newListCommand(),
		newResolveCommand(),
		newExportCommand(),
		newBackfillCommand(),
		newHashPasswordCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
