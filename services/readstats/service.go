// Package readstats runs the fetch, extract and reconcile passes over a
// content owner's readership statistics.
package readstats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"readstats/lib/scraper"
	"readstats/lib/telemetry"
	"readstats/services/readstats/db"
	"readstats/services/readstats/report"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("readstats.services.readstats")

type Options struct {
	// report every zero baseline as a silent catch-up, on every pass
	CatchUp bool
	// check the chapters of every item, not only the changed ones
	RecheckChapters bool
	SkipMonthly     bool
	// AO3 works of this user are reconciled too when set
	AO3User string
}

type Service struct {
	qry    *db.Queries
	makeTx db.MakeTx
	ff     scraper.Fetcher
	ao3    scraper.Fetcher
	out    io.Writer
	now    func() time.Time
}

// NewService wires the store and the fetchers, ao3 may be nil when the
// archive is never read. Change reports are written to out.
func NewService(database *sql.DB, ff, ao3 scraper.Fetcher, out io.Writer) Service {
	return Service{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		ff:     ff,
		ao3:    ao3,
		out:    out,
		now:    time.Now,
	}
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Run is one full invocation: the legacy phase, then the monthly phase,
// then AO3 works. Each phase commits on its own. The collected report is
// printed even when a phase fails.
func (s Service) Run(ctx context.Context, opts Options) error {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	slog.InfoContext(ctx, "run started", "time", s.now().Format(time.DateTime))
	rep := report.New[string](s.out)

	done := telemetry.TimePhase(ctx, "legacy")
	err := s.Legacy(ctx, rep)
	done(err)
	if err == nil && !opts.SkipMonthly {
		done = telemetry.TimePhase(ctx, "monthly")
		err = s.Monthly(ctx, rep, opts)
		done(err)
	}
	if flushErr := rep.Flush(); flushErr != nil && err == nil {
		err = flushErr
	}
	if err != nil {
		return fail(span, err)
	}

	if opts.AO3User != "" {
		done := telemetry.TimePhase(ctx, "ao3")
		err := s.AO3(ctx, opts.AO3User)
		done(err)
		if err != nil {
			return fail(span, err)
		}
	}
	return nil
}

// skippable reports whether err only spoils the page being read.
func skippable(err error) bool {
	return errors.Is(err, scraper.ErrStructureMismatch)
}

func (s Service) begin(ctx context.Context) (*db.Queries, func() error, func() error, error) {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("begin transaction: %w", err)
	}
	return tx, discard, commit, nil
}
