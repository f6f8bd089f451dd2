package readstats

import (
	"context"
	"fmt"
	"log/slog"

	"readstats/lib/scrapers/fanfiction"
	"readstats/services/readstats/reconcile"
	"readstats/services/readstats/report"
)

// Owner reconciles the users who favorited or follow the account owner.
// Lines are printed under OwnerKey once both lists are stored.
func (s Service) Owner(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Owner")
	defer span.End()

	rep := report.New[string](s.out)

	tx, discard, commit, err := s.begin(ctx)
	if err != nil {
		return fail(span, err)
	}
	defer discard()

	for _, part := range []fanfiction.Part{fanfiction.PartFavorites, fanfiction.PartFollows} {
		doc, err := fanfiction.OwnerPart(ctx, s.ff, part)
		if err != nil {
			return fail(span, fmt.Errorf("owner %s list: %w", noun(part), err))
		}
		rows, err := fanfiction.UserRows(ctx, doc)
		if skippable(err) {
			slog.WarnContext(ctx, "skipping owner list", "part", part, "err", err)
			continue
		}
		if err != nil {
			return fail(span, fmt.Errorf("owner %s list: %w", noun(part), err))
		}

		scope := ownerScope{qry: tx, part: part, now: s.now().Unix()}
		_, err = reconcile.Membership(ctx, tx, scope, rep, OwnerKey, "", noun(part), members(rows))
		if err != nil {
			return fail(span, err)
		}
	}

	if err := commit(); err != nil {
		return fail(span, err)
	}
	return rep.Flush()
}
