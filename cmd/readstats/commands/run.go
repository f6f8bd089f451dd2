package commands

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"readstats/lib/mailer"
	"readstats/services/readstats"

	"github.com/spf13/cobra"
)

var (
	runOpts readstats.Options
	runAO3  bool
	runMail bool
)

func init() {
	flags := runCmd.Flags()
	flags.BoolVarP(&runOpts.CatchUp, "catchup", "c", false, "Store counts that start from zero without reporting them.")
	flags.BoolVarP(&runOpts.RecheckChapters, "chapters", "C", false, "Check the chapters of every story, not only the changed ones.")
	flags.BoolVar(&runOpts.SkipMonthly, "legacy-only", false, "Only reconcile the all-time story table.")
	flags.BoolVar(&runAO3, "ao3", false, "Also reconcile the works of the configured AO3 user.")
	flags.BoolVar(&runMail, "mail", false, "E-mail the report when mail is configured.")
	rootCmd.AddCommand(runCmd)
}

// runOnce is a single invocation of the legacy and monthly phases. The
// report goes to the configured writers and, when asked, by e-mail.
func runOnce(ctx context.Context, cfg Config, opts readstats.Options, mail bool) error {
	out, closeOut, err := reportWriter(cfg)
	if err != nil {
		return err
	}
	defer closeOut()

	var captured bytes.Buffer
	if mail {
		out = io.MultiWriter(out, &captured)
	}

	s, err := openSession(ctx, cfg, out, opts.AO3User != "")
	if err != nil {
		return err
	}
	defer s.close()

	started := time.Now()
	runErr := s.service.Run(ctx, opts)
	slog.InfoContext(ctx, "run finished", "seconds", time.Since(started).Seconds())

	if mail && cfg.Mail.Enabled() {
		if err := mailer.Send(ctx, cfg.Mail, started, captured.String()); err != nil {
			slog.ErrorContext(ctx, "failed to send report", "err", err)
		}
	}
	return runErr
}

var runCmd = &cobra.Command{
	Use:   "run [--catchup] [--chapters] [--ao3] [--mail]",
	Short: "Fetches the current statistics and reports what changed since the last run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		opts := runOpts
		if runAO3 {
			opts.AO3User = cfg.Ao3User
		}
		return runOnce(cmd.Context(), cfg, opts, runMail)
	},
}
