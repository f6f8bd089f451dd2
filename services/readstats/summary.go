package readstats

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

var ErrNoPeriod = errors.New("no period stored yet")

func (s Service) newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(s.out)
	return t
}

// Summary prints the stored totals of the latest period, by country and
// by item.
func (s Service) Summary(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Summary")
	defer span.End()

	last, err := s.qry.GetLastPeriod(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return fail(span, ErrNoPeriod)
	}
	if err != nil {
		return fail(span, err)
	}
	p := toPeriod(last)

	totals, err := s.qry.GetPeriodTotal(ctx, p.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fail(span, err)
	}
	categories, err := s.qry.ListPeriodCategories(ctx, p.ID)
	if err != nil {
		return fail(span, err)
	}
	items, err := s.qry.ListPeriodItems(ctx, p.ID)
	if err != nil {
		return fail(span, err)
	}

	t := s.newTable()
	t.SetTitle(fmt.Sprintf("Totals for %s", p))
	t.AppendHeader(table.Row{"Country", "Views", "Visitors"})
	for _, c := range categories {
		t.AppendRow(table.Row{c.Label, c.Views, c.Visitors})
	}
	t.AppendFooter(table.Row{"Total", totals.Views, totals.Visitors})
	t.Render()

	t = s.newTable()
	t.AppendHeader(table.Row{"Ref", "Title", "Views", "Visitors"})
	for _, item := range items {
		t.AppendRow(table.Row{item.ItemRef, item.Title, item.Views, item.Visitors})
	}
	t.Render()
	return nil
}
