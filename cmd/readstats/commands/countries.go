package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var countriesUser int64

func init() {
	countriesCmd.Flags().Int64VarP(&countriesUser, "user", "u", 0, "Look up this user only.")
	rootCmd.AddCommand(countriesCmd)
}

var countriesCmd = &cobra.Command{
	Use:   "countries [--user <id>]",
	Short: "Fills in the country of users whose country is unknown.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		s, err := openSession(cmd.Context(), cfg, os.Stdout, false)
		if err != nil {
			return err
		}
		defer s.close()
		return s.service.Countries(cmd.Context(), countriesUser)
	},
}
