package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var commentsStory int64

func init() {
	commentsCmd.Flags().Int64VarP(&commentsStory, "story", "s", 0, "Read the reviews of this story only.")
	rootCmd.AddCommand(commentsCmd)
}

var commentsCmd = &cobra.Command{
	Use:   "comments [--story <id>]",
	Short: "Stores the reviews left on your stories.",
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
		return s.service.Comments(cmd.Context(), commentsStory)
	},
}
