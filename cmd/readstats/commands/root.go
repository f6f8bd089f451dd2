package commands

import (
	"context"

	"readstats/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "readstats",
	Short: "readstats tracks the readership statistics of your stories and reports what changed.",
	// failures are reported by main as a single line
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "readstats.json5", "The config file to read.")
	flags.StringVarP(&dbPath, "db", "d", "", "The baseline database, overrides the config.")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
