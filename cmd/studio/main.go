package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// defaultConfigPath is the config file every command reads unless --config is given.
const defaultConfigPath = "studio.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "studio",
		Short:        "Studio: DocType metadata and page watcher service",
		Long:         "Studio serves DocType field metadata and manages Studio Page watchers for the low-code page builder.",
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newSchemaCmd())
	cmd.AddCommand(newFieldsCmd())
	cmd.AddCommand(newPageCmd())
	cmd.AddCommand(newWatcherCmd())
	cmd.AddCommand(newServeCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "studio %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
