package readstats

import (
	"context"
	"errors"
	"fmt"

	"readstats/lib/scrapers/ao3"
	"readstats/services/readstats/reconcile"
	"readstats/services/readstats/report"

	"go.opentelemetry.io/otel/attribute"
)

var errNoAO3Fetcher = errors.New("no archive fetcher configured")

// AO3 reconciles the works listing of user against the stored works.
func (s Service) AO3(ctx context.Context, user string) error {
	ctx, span := tracer.Start(ctx, "AO3")
	defer span.End()
	span.SetAttributes(attribute.String("user", user))

	if s.ao3 == nil {
		return fail(span, errNoAO3Fetcher)
	}
	works, err := ao3.AllWorks(ctx, s.ao3, user)
	if err != nil {
		return fail(span, fmt.Errorf("works of %s: %w", user, err))
	}

	tx, discard, commit, err := s.begin(ctx)
	if err != nil {
		return fail(span, err)
	}
	defer discard()

	rep := report.New[string](s.out)
	for _, work := range works {
		stored, err := tx.GetOrCreateAo3Work(ctx, work.Title)
		if err != nil {
			return fail(span, err)
		}
		changed := reconcile.CompareAll(rep, work.Title, reconcile.ItemLabel(work.Title), []reconcile.Field{
			{Name: "hits", Current: work.Hits, Stored: &stored.Hits},
			{Name: "kudos", Current: work.Kudos, Stored: &stored.Kudos},
			{Name: "comments", Current: work.Comments, Stored: &stored.Comments},
			{Name: "bookmarks", Current: work.Bookmarks, Stored: &stored.Bookmarks},
		}, false)
		if stored.Ref != work.Ref {
			stored.Ref = work.Ref
			changed = true
		}
		if changed {
			if err := tx.UpdateAo3Work(ctx, stored); err != nil {
				return fail(span, err)
			}
		}
	}

	if err := commit(); err != nil {
		return fail(span, err)
	}
	return rep.Flush()
}
