package commands

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(userstatsCmd)
}

var userstatsCmd = &cobra.Command{
	Use:   "userstats",
	Short: "Reports who started or stopped following or favoriting you.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out, closeOut, err := reportWriter(cfg)
		if err != nil {
			return err
		}
		defer closeOut()

		s, err := openSession(cmd.Context(), cfg, out, false)
		if err != nil {
			return err
		}
		defer s.close()
		return s.service.Owner(cmd.Context())
	},
}
