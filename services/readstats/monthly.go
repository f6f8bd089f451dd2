package readstats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"readstats/lib/scraper"
	"readstats/lib/scrapers/fanfiction"
	"readstats/services/readstats/db"
	"readstats/services/readstats/period"
	"readstats/services/readstats/reconcile"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// Flusher prints the lines of one key of a report.
type Flusher interface {
	reconcile.Reporter
	FlushKey(key string) error
}

const monthlyPrefix = "'Monthly' "

func toPeriod(p db.Period) period.Period {
	return period.Period{ID: p.ID, Year: int(p.Year), Month: int(p.Month)}
}

func toMonth(p period.Period) fanfiction.Month {
	return fanfiction.Month{Year: p.Year, Month: p.Month}
}

// Monthly reads the current monthly report and reconciles every period
// the transition plan asks for.
func (s Service) Monthly(ctx context.Context, rep Flusher, opts Options) error {
	ctx, span := tracer.Start(ctx, "Monthly")
	defer span.End()

	var observed period.Period
	doc, fetchErr := fanfiction.StoryEyes(ctx, s.ff, nil)
	if fetchErr == nil {
		caption, err := fanfiction.Caption(ctx, doc)
		if err != nil {
			return fail(span, fmt.Errorf("monthly report: %w", err))
		}
		observed = period.Period{Year: caption.Period.Year, Month: caption.Period.Month}
	}

	tx, discard, commit, err := s.begin(ctx)
	if err != nil {
		return fail(span, err)
	}
	defer discard()

	var last *period.Period
	stored, err := tx.GetLastPeriod(ctx)
	switch {
	case err == nil:
		p := toPeriod(stored)
		last = &p
	case !errors.Is(err, sql.ErrNoRows):
		return fail(span, err)
	}

	plan := period.NewPlan(last, observed, doc, fetchErr)
	span.SetAttributes(attribute.String("state", plan.State.String()))

	switch plan.State {
	case period.FetchFailure:
		return fail(span, fmt.Errorf("monthly report: %w", plan.Err))
	case period.Regressed:
		slog.WarnContext(ctx, "monthly report is older than the last stored period",
			"observed", plan.Observed.String(),
			"last", last.String(),
		)
		return nil
	case period.Bootstrap:
		slog.InfoContext(ctx, "no stored period, recording the current one", "period", plan.Observed.String())
		err := tx.CreatePeriod(ctx, db.Period{
			ID:    plan.Observed.ID,
			Year:  int64(plan.Observed.Year),
			Month: int64(plan.Observed.Month),
		})
		if err != nil {
			return fail(span, err)
		}
		return commit()
	case period.Crossover:
		slog.InfoContext(ctx, "month changed, catching up", "last", last.String(), "observed", plan.Observed.String())
	}

	for _, task := range plan.Tasks {
		if task.New {
			err := tx.CreatePeriod(ctx, db.Period{
				ID:    task.Period.ID,
				Year:  int64(task.Period.Year),
				Month: int64(task.Period.Month),
			})
			if err != nil {
				return fail(span, err)
			}
		}

		doc := task.Doc
		if doc == nil {
			month := toMonth(task.Period)
			doc, err = fanfiction.StoryEyes(ctx, s.ff, &month)
			if err != nil {
				return fail(span, fmt.Errorf("monthly report for %s: %w", task.Period, err))
			}
		}

		catchUp := task.CatchUp || opts.CatchUp
		err := s.reconcilePeriod(ctx, tx, rep, task.Period, doc, catchUp, opts.RecheckChapters)
		if skippable(err) {
			slog.WarnContext(ctx, "skipping period", "period", task.Period.String(), "err", err)
			continue
		}
		if err != nil {
			return fail(span, err)
		}
	}

	if err := commit(); err != nil {
		return fail(span, err)
	}
	return nil
}

func (s Service) reconcilePeriod(
	ctx context.Context,
	tx *db.Queries,
	rep Flusher,
	p period.Period,
	doc *goquery.Document,
	catchUp, recheck bool,
) error {
	ctx, span := tracer.Start(ctx, "reconcilePeriod")
	defer span.End()
	span.SetAttributes(
		attribute.String("period", p.String()),
		attribute.Bool("catch_up", catchUp),
	)

	caption, err := fanfiction.Caption(ctx, doc)
	if err != nil {
		return err
	}
	if caption.Period != toMonth(p) {
		return fmt.Errorf(
			"%w: page is for %s, expected %s",
			scraper.ErrStructureMismatch, caption.Period, toMonth(p),
		)
	}
	slog.InfoContext(ctx, "monthly totals",
		"period", p.String(),
		"views", caption.Views,
		"visitors", caption.Visitors,
	)

	byDate, err := fanfiction.Chart(ctx, doc, fanfiction.ChartByDate)
	if err != nil {
		return err
	}
	if len(byDate) > 0 {
		slog.InfoContext(ctx, "daily totals",
			"date", byDate[0].Label,
			"views", byDate[0].Views,
			"visitors", byDate[0].Visitors,
		)
	}
	byCountry, err := fanfiction.Chart(ctx, doc, fanfiction.ChartByCountry)
	if err != nil {
		return err
	}
	items, err := fanfiction.ItemRows(ctx, doc)
	if err != nil {
		return err
	}

	totals, err := tx.GetOrCreatePeriodTotal(ctx, p.ID)
	if err != nil {
		return err
	}
	if reconcile.CompareAll(rep, reconcile.MonthlyKey, monthlyPrefix,
		reconcile.Counts(caption.Views, caption.Visitors, &totals.Views, &totals.Visitors),
		catchUp,
	) {
		if err := tx.UpdatePeriodTotal(ctx, totals); err != nil {
			return err
		}
	}

	for _, c := range byCountry {
		row, err := tx.GetOrCreatePeriodCategory(ctx, db.PeriodCategoryKey{PeriodID: p.ID, Label: c.Label})
		if err != nil {
			return err
		}
		if reconcile.CompareAll(rep, reconcile.MonthlyKey, reconcile.CountryLabel(c.Label),
			reconcile.Counts(c.Views, c.Visitors, &row.Views, &row.Visitors),
			catchUp,
		) {
			if err := tx.UpdatePeriodCategory(ctx, row); err != nil {
				return err
			}
		}
	}
	if err := rep.FlushKey(reconcile.MonthlyKey); err != nil {
		return err
	}

	flagged, err := reconcileItems(ctx, tx, rep, p, items, catchUp, recheck)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("flagged", len(flagged)))

	for _, item := range flagged {
		err := s.reconcileChapters(ctx, tx, rep, p, item, catchUp)
		if skippable(err) {
			slog.WarnContext(ctx, "skipping chapters", "title", item.Title, "err", err)
		} else if err != nil {
			return err
		}
		if err := rep.FlushKey(item.Title); err != nil {
			return err
		}
	}
	return nil
}

// reconcileItems compares the per-item totals of a period and returns
// the items that need a chapter level check, ordered by title.
func reconcileItems(
	ctx context.Context,
	tx *db.Queries,
	rep reconcile.Reporter,
	p period.Period,
	items []fanfiction.ItemRow,
	catchUp, recheck bool,
) ([]fanfiction.ItemRow, error) {
	var flagged []fanfiction.ItemRow
	for _, item := range items {
		if err := ensureItem(ctx, tx, item.Ref, item.Title); err != nil {
			return nil, err
		}
		row, err := tx.GetOrCreatePeriodItem(ctx, db.PeriodItemKey{PeriodID: p.ID, ItemRef: item.Ref})
		if err != nil {
			return nil, err
		}
		changed := reconcile.CompareAll(rep, item.Title, reconcile.ItemLabel(item.Title),
			reconcile.Counts(item.Views, item.Visitors, &row.Views, &row.Visitors),
			catchUp,
		)
		if changed {
			if err := tx.UpdatePeriodItem(ctx, row); err != nil {
				return nil, err
			}
		}
		if changed || recheck {
			flagged = append(flagged, item)
		}
	}
	slices.SortStableFunc(flagged, func(a, b fanfiction.ItemRow) int {
		return strings.Compare(a.Title, b.Title)
	})
	return flagged, nil
}

func (s Service) reconcileChapters(
	ctx context.Context,
	tx *db.Queries,
	rep reconcile.Reporter,
	p period.Period,
	item fanfiction.ItemRow,
	catchUp bool,
) error {
	ctx, span := tracer.Start(ctx, "reconcileChapters")
	defer span.End()
	span.SetAttributes(attribute.Int64("ref", item.Ref))

	doc, err := fanfiction.StoryChapters(ctx, s.ff, item.Ref, toMonth(p))
	if err != nil {
		return fail(span, fmt.Errorf("chapters of '%s': %w", item.Title, err))
	}
	byCountry, err := fanfiction.Chart(ctx, doc, fanfiction.ChartByCountry)
	if err != nil {
		return fmt.Errorf("chapters of '%s': %w", item.Title, err)
	}
	chapters, err := fanfiction.ChapterRows(ctx, doc)
	if err != nil {
		return fmt.Errorf("chapters of '%s': %w", item.Title, err)
	}

	for _, c := range byCountry {
		row, err := tx.GetOrCreatePeriodItemCategory(ctx, db.PeriodItemCategoryKey{
			PeriodID: p.ID,
			ItemRef:  item.Ref,
			Label:    c.Label,
		})
		if err != nil {
			return err
		}
		if reconcile.CompareAll(rep, item.Title, reconcile.CountryLabel(c.Label),
			reconcile.Counts(c.Views, c.Visitors, &row.Views, &row.Visitors),
			catchUp,
		) {
			if err := tx.UpdatePeriodItemCategory(ctx, row); err != nil {
				return err
			}
		}
	}

	for _, chapter := range chapters {
		if err := syncChapter(ctx, tx, item.Ref, chapter); err != nil {
			return err
		}

		row, err := tx.GetOrCreatePeriodChapter(ctx, db.PeriodChapterKey{
			PeriodID: p.ID,
			ItemRef:  item.Ref,
			Chapter:  chapter.Number,
		})
		if err != nil {
			return err
		}
		changed := reconcile.CompareAll(rep, item.Title, reconcile.ChapterLabel(chapter.Number, chapter.Title),
			reconcile.Counts(chapter.Views, chapter.Visitors, &row.Views, &row.Visitors),
			catchUp,
		)
		if !changed {
			continue
		}
		if err := tx.UpdatePeriodChapter(ctx, row); err != nil {
			return err
		}
		if err := s.reconcileChapterCountries(ctx, tx, rep, p, item, chapter, catchUp); err != nil {
			return err
		}
	}
	return nil
}

// syncChapter keeps the chapter catalogue in step with the chapter table.
func syncChapter(ctx context.Context, tx *db.Queries, itemRef int64, chapter fanfiction.ChapterRow) error {
	current := db.Chapter{
		ChapterRef: chapter.ChapterRef,
		ItemRef:    itemRef,
		Number:     chapter.Number,
		Title:      chapter.Title,
		Words:      chapter.Words,
	}
	stored, err := tx.GetOrCreateChapter(ctx, current)
	if err != nil {
		return err
	}
	if stored == current {
		return nil
	}
	if chapter.Title != "" && stored.Title != chapter.Title {
		slog.InfoContext(ctx, "chapter title changed", "old", stored.Title, "new", chapter.Title)
	}
	if chapter.Title == "" {
		current.Title = stored.Title
	}
	return tx.UpdateChapter(ctx, current)
}

func (s Service) reconcileChapterCountries(
	ctx context.Context,
	tx *db.Queries,
	rep reconcile.Reporter,
	p period.Period,
	item fanfiction.ItemRow,
	chapter fanfiction.ChapterRow,
	catchUp bool,
) error {
	doc, err := fanfiction.Chapter(ctx, s.ff, chapter.ChapterRef, toMonth(p))
	if err != nil {
		return fmt.Errorf("chapter %d of '%s': %w", chapter.Number, item.Title, err)
	}
	byCountry, err := fanfiction.Chart(ctx, doc, fanfiction.ChartByCountry)
	if err != nil {
		return fmt.Errorf("chapter %d of '%s': %w", chapter.Number, item.Title, err)
	}

	for _, c := range byCountry {
		row, err := tx.GetOrCreatePeriodChapterCategory(ctx, db.PeriodChapterCategoryKey{
			PeriodID: p.ID,
			ItemRef:  item.Ref,
			Chapter:  chapter.Number,
			Label:    c.Label,
		})
		if err != nil {
			return err
		}
		if reconcile.CompareAll(rep, item.Title,
			reconcile.ChapterCountryLabel(chapter.Number, chapter.Title, c.Label),
			reconcile.Counts(c.Views, c.Visitors, &row.Views, &row.Visitors),
			catchUp,
		) {
			if err := tx.UpdatePeriodChapterCategory(ctx, row); err != nil {
				return err
			}
		}
	}
	return nil
}
