// Package chrono runs jobs on a cron schedule.
package chrono

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// CronAPI is the interface that anything depending on things to happen on a cron job should use.
type CronAPI interface {
	Cron(spec string, callback func()) error
}

// StandardCron is the standard implementation of CronAPI using `github.com/robfig/cron/v3`
type StandardCron struct {
	cron *cron.Cron
}

// NewStandardCron is the constructor of StandardCron. A run that is still
// going when its next tick fires makes that tick a no-op.
func NewStandardCron(logger *slog.Logger, location *time.Location) StandardCron {
	if location == nil {
		location = time.Local
	}
	l := cronLogger{logger: logger}
	cronner := cron.New(
		cron.WithLogger(l),
		cron.WithLocation(location),
		cron.WithChain(cron.SkipIfStillRunning(l)),
	)
	cronner.Start()

	return StandardCron{
		cron: cronner,
	}
}

func (s StandardCron) Cron(spec string, callback func()) error {
	_, err := s.cron.AddFunc(spec, callback)
	return err
}

// Next is when the earliest scheduled job fires next.
func (s StandardCron) Next() time.Time {
	var next time.Time
	for _, entry := range s.cron.Entries() {
		if next.IsZero() || entry.Next.Before(next) {
			next = entry.Next
		}
	}
	return next
}

// Stop halts scheduling, the returned context is done once running jobs
// have finished.
func (s StandardCron) Stop() context.Context {
	return s.cron.Stop()
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i < len(keysAndValues)/2; i++ {
		idx := i * 2
		params = append(params, slog.Any(fmt.Sprint(keysAndValues[idx]), keysAndValues[idx+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(fmt.Sprintf("cron: %s", msg), l.formatParams(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(
		fmt.Sprintf("cron: %s", msg),
		append(l.formatParams(keysAndValues), "err", err)...,
	)
}
