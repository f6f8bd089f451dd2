package commands

import (
	"fmt"
	"os"

	"readstats/services/readstats"
	"readstats/services/readstats/db"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints the stored totals of the latest month.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := db.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("open %s: %w", cfg.Database, err)
		}
		defer database.Close()

		s := readstats.NewService(database, nil, nil, os.Stdout)
		return s.Summary(cmd.Context())
	},
}
