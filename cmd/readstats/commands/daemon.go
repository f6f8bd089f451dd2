package commands

import (
	"log/slog"
	"time"

	"readstats/lib/chrono"
	"readstats/lib/telemetry"
	"readstats/lib/timezone"
	"readstats/services/readstats"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Runs on the configured schedule and e-mails each report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		loc, err := timezone.Load(cfg.Timezone)
		if err != nil {
			return err
		}
		telemetry.InstrumentPerfStats(ctx)

		opts := readstats.Options{AO3User: cfg.Ao3User}
		cron := chrono.NewStandardCron(slog.Default(), loc)
		err = cron.Cron(cfg.Schedule, func() {
			if err := runOnce(ctx, cfg, opts, true); err != nil {
				slog.ErrorContext(ctx, "scheduled run failed", "err", err)
			}
			slog.InfoContext(ctx, "next run", "at", cron.Next().Format(time.DateTime))
		})
		if err != nil {
			cron.Stop()
			return err
		}
		slog.InfoContext(ctx, "waiting for the first run", "schedule", cfg.Schedule, "at", cron.Next().Format(time.DateTime))

		<-ctx.Done()
		slog.InfoContext(ctx, "stopping, waiting for a running job")
		<-cron.Stop().Done()
		return nil
	},
}
