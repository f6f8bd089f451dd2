package readstats

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"readstats/lib/scrapers/fanfiction"
	"readstats/services/readstats/db"
	"readstats/services/readstats/reconcile"

	"go.opentelemetry.io/otel/attribute"
)

// Legacy reconciles the all-time story table, keeps the item catalogue
// in step with it and refreshes the favorite and follow lists whose
// counts drifted.
func (s Service) Legacy(ctx context.Context, rep reconcile.Reporter) error {
	ctx, span := tracer.Start(ctx, "Legacy")
	defer span.End()

	doc, err := fanfiction.Legacy(ctx, s.ff)
	if err != nil {
		return fail(span, fmt.Errorf("legacy page: %w", err))
	}
	rows, err := fanfiction.LegacyRows(ctx, doc)
	if skippable(err) {
		slog.WarnContext(ctx, "skipping legacy table", "err", err)
		return nil
	}
	if err != nil {
		return fail(span, fmt.Errorf("legacy page: %w", err))
	}
	span.SetAttributes(attribute.Int("rows", len(rows)))

	tx, discard, commit, err := s.begin(ctx)
	if err != nil {
		return fail(span, err)
	}
	defer discard()

	if err := syncCatalogue(ctx, tx, rows); err != nil {
		return fail(span, err)
	}

	stored := make(map[int64]db.Legacy, len(rows))
	for _, row := range rows {
		legacy, err := tx.GetOrCreateLegacy(ctx, row.Ref)
		if err != nil {
			return fail(span, err)
		}
		changed := reconcile.CompareAll(rep, row.Title, reconcile.LegacyLabel(row.Title), []reconcile.Field{
			{Name: "chapters", Current: row.Chapters, Stored: &legacy.Chapters},
			{Name: "reviews", Current: row.Reviews, Stored: &legacy.Reviews},
			{Name: "views", Current: row.Views, Stored: &legacy.Views},
			{Name: "communities", Current: row.Communities, Stored: &legacy.Communities},
			{Name: "favorites", Current: row.Favorites, Stored: &legacy.Favorites},
			{Name: "follows", Current: row.Follows, Stored: &legacy.Follows},
		}, false)
		if changed {
			if err := tx.UpdateLegacy(ctx, legacy); err != nil {
				return fail(span, err)
			}
		}
		stored[row.Ref] = legacy
	}

	if err := s.refreshDrifted(ctx, tx, rep, rows, stored); err != nil {
		return fail(span, err)
	}

	if err := commit(); err != nil {
		return fail(span, err)
	}
	return nil
}

// syncCatalogue adds unseen items and follows title changes. An empty
// catalogue is filled in one go.
func syncCatalogue(ctx context.Context, tx *db.Queries, rows []fanfiction.LegacyRow) error {
	items, err := tx.ListItems(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		slog.DebugContext(ctx, "filling empty item catalogue", "count", len(rows))
		for _, row := range rows {
			err := tx.CreateItem(ctx, db.CreateItemParams{Ref: row.Ref, Title: row.Title})
			if err != nil {
				return err
			}
		}
		return nil
	}

	known := make(map[int64]string, len(items))
	for _, item := range items {
		known[item.Ref] = item.Title
	}
	for _, row := range rows {
		if err := syncItem(ctx, tx, known, row.Ref, row.Title); err != nil {
			return err
		}
	}
	return nil
}

func syncItem(ctx context.Context, tx *db.Queries, known map[int64]string, ref int64, title string) error {
	old, ok := known[ref]
	switch {
	case !ok:
		slog.InfoContext(ctx, "new story", "title", title, "ref", ref)
		if err := tx.CreateItem(ctx, db.CreateItemParams{Ref: ref, Title: title}); err != nil {
			return err
		}
	case title != "" && old != title:
		slog.InfoContext(ctx, "changed title", "old", old, "new", title, "ref", ref)
		if err := tx.UpdateItemTitle(ctx, db.UpdateItemTitleParams{Ref: ref, Title: title}); err != nil {
			return err
		}
	default:
		return nil
	}
	known[ref] = title
	return nil
}

// ensureItem makes sure ref is in the catalogue with title.
func ensureItem(ctx context.Context, tx *db.Queries, ref int64, title string) error {
	item, err := tx.GetItem(ctx, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return syncItem(ctx, tx, map[int64]string{}, ref, title)
	}
	if err != nil {
		return err
	}
	return syncItem(ctx, tx, map[int64]string{ref: item.Title}, ref, title)
}

func (s Service) refreshDrifted(
	ctx context.Context,
	tx *db.Queries,
	rep reconcile.Reporter,
	rows []fanfiction.LegacyRow,
	stored map[int64]db.Legacy,
) error {
	favCounts, err := tx.CountFavorites(ctx)
	if err != nil {
		return err
	}
	followCounts, err := tx.CountFollows(ctx)
	if err != nil {
		return err
	}
	favs := db.CountsByItem(favCounts)
	follows := db.CountsByItem(followCounts)

	sorted := slices.Clone(rows)
	slices.SortFunc(sorted, func(a, b fanfiction.LegacyRow) int {
		return cmp.Compare(a.Ref, b.Ref)
	})

	var favsDrifted, followsDrifted []fanfiction.LegacyRow
	for _, row := range sorted {
		legacy := stored[row.Ref]
		if legacy.Favorites != favs[row.Ref] {
			favsDrifted = append(favsDrifted, row)
		}
		if legacy.Follows != follows[row.Ref] {
			followsDrifted = append(followsDrifted, row)
		}
	}

	for _, row := range favsDrifted {
		err := s.refreshMembership(ctx, tx, rep, row.Ref, row.Title, fanfiction.PartFavorites)
		if err != nil {
			return err
		}
	}
	for _, row := range followsDrifted {
		err := s.refreshMembership(ctx, tx, rep, row.Ref, row.Title, fanfiction.PartFollows)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s Service) refreshMembership(
	ctx context.Context,
	tx *db.Queries,
	rep reconcile.Reporter,
	ref int64,
	title string,
	part fanfiction.Part,
) error {
	doc, err := fanfiction.LegacyPart(ctx, s.ff, ref, part)
	if err != nil {
		return fmt.Errorf("%s list of '%s': %w", noun(part), title, err)
	}
	rows, err := fanfiction.UserRows(ctx, doc)
	if skippable(err) {
		slog.WarnContext(ctx, "skipping user list", "title", title, "part", part, "err", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s list of '%s': %w", noun(part), title, err)
	}

	scope := itemScope{qry: tx, ref: ref, part: part, now: s.now().Unix()}
	result, err := reconcile.Membership(
		ctx, tx, scope, rep,
		title, reconcile.ItemLabel(title), noun(part),
		members(rows),
	)
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "membership refreshed",
		"title", title,
		"part", part,
		"added", len(result.Added),
		"removed", len(result.Removed),
	)
	return nil
}
