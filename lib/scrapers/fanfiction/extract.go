package fanfiction

import (
	"context"
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"readstats/lib/htmlutil"
	"readstats/lib/scraper"
	"readstats/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/html"
)

var tracer = otel.Tracer("readstats.lib.scrapers.fanfiction")

var (
	ErrStructureMismatch = scraper.ErrStructureMismatch
	ErrMalformedNumber   = textutil.ErrMalformedNumber
)

var (
	storyIdPattern     = regexp.MustCompile(`storyid=([0-9]+)`)
	storyTextIdPattern = regexp.MustCompile(`storytextid=([0-9]+)`)
	userIdPattern      = regexp.MustCompile(`/u/([0-9]+)/`)
	captionPattern     = regexp.MustCompile(`For the month of (\d+)-(\d+), there have been a total of\s+([0-9,]+) Views and\s([0-9,]+) Visitors`)
	chartDataPattern   = regexp.MustCompile(`setDataXML\("(.*)"\);`)
)

const (
	statsTable = "table#gui_table1i"
	itemsTable = "table#gui_table2i"
)

type PeriodCaption struct {
	Period   Month
	Views    int64
	Visitors int64
}

type ItemRow struct {
	Ref      int64
	Title    string
	Words    int64
	Views    int64
	Visitors int64
}

type CategoryCount struct {
	Label    string
	Views    int64
	Visitors int64
}

type ChapterRow struct {
	ChapterRef int64
	Number     int64
	Title      string
	Words      int64
	Views      int64
	Visitors   int64
}

type LegacyRow struct {
	Ref         int64
	Title       string
	Words       int64
	Chapters    int64
	Reviews     int64
	Views       int64
	Communities int64
	Favorites   int64
	Follows     int64
}

type UserRow struct {
	Id        int64
	Alias     string
	DateAdded string
}

// numbers collects the first parse failure so a row can be read field by
// field and checked once.
type numbers struct {
	err error
}

func (n *numbers) parse(text string) int64 {
	if n.err != nil {
		return 0
	}
	v, err := textutil.ParseCount(text)
	if err != nil {
		n.err = err
	}
	return v
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Caption reads the period and its totals out of the report caption.
func Caption(ctx context.Context, doc *goquery.Document) (PeriodCaption, error) {
	_, span := tracer.Start(ctx, "Caption")
	defer span.End()

	for _, td := range doc.Find(statsTable + " > tbody > tr > td").Nodes {
		text := htmlutil.GetText(td)
		if !strings.Contains(text, "month") {
			continue
		}
		match := captionPattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}

		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		var n numbers
		caption := PeriodCaption{
			Period:   Month{Year: year, Month: month},
			Views:    n.parse(match[3]),
			Visitors: n.parse(match[4]),
		}
		if n.err != nil {
			return PeriodCaption{}, fail(span, n.err)
		}
		span.SetAttributes(attribute.String("period", caption.Period.String()))
		return caption, nil
	}

	return PeriodCaption{}, fail(span, fmt.Errorf("%w: no period caption", ErrStructureMismatch))
}

// rowsWithAnchors pairs each row of a stats table with the hyperlink in
// it, the two lists must line up one to one.
func rowsWithAnchors(doc *goquery.Document, table string) ([]*html.Node, []string, error) {
	rows := doc.Find(table + " > tbody > tr").Nodes
	anchors := doc.Find(table + " > tbody > tr > td > a").Nodes
	if len(rows) != len(anchors) {
		return nil, nil, fmt.Errorf(
			"%w: %d rows but %d links in %s",
			ErrStructureMismatch, len(rows), len(anchors), table,
		)
	}
	hrefs := make([]string, len(anchors))
	for i, a := range anchors {
		hrefs[i] = htmlutil.Attr(a, "href")
	}
	return rows, hrefs, nil
}

func shortRow(table string, idx, got, want int) error {
	return fmt.Errorf(
		"%w: row %d of %s has %d columns, expected %d",
		ErrStructureMismatch, idx, table, got, want,
	)
}

// ItemRows reads the per-story totals table of the monthly report.
func ItemRows(ctx context.Context, doc *goquery.Document) ([]ItemRow, error) {
	_, span := tracer.Start(ctx, "ItemRows")
	defer span.End()

	rows, hrefs, err := rowsWithAnchors(doc, itemsTable)
	if err != nil {
		return nil, fail(span, err)
	}

	out := make([]ItemRow, 0, len(rows))
	for i, row := range rows {
		cols := htmlutil.RowColumns(row)
		if len(cols) < 5 {
			return nil, fail(span, shortRow(itemsTable, i, len(cols), 5))
		}
		var n numbers
		item := ItemRow{
			Ref:      htmlutil.IdFromHref(storyIdPattern, hrefs[i]),
			Title:    textutil.Column(cols, 1),
			Words:    n.parse(cols[2]),
			Views:    n.parse(cols[3]),
			Visitors: n.parse(cols[4]),
		}
		if n.err != nil {
			return nil, fail(span, fmt.Errorf("item row %d: %w", i, n.err))
		}
		out = append(out, item)
	}
	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

// ChapterRows reads the per-chapter totals table of one story.
func ChapterRows(ctx context.Context, doc *goquery.Document) ([]ChapterRow, error) {
	_, span := tracer.Start(ctx, "ChapterRows")
	defer span.End()

	rows, hrefs, err := rowsWithAnchors(doc, itemsTable)
	if err != nil {
		return nil, fail(span, err)
	}

	out := make([]ChapterRow, 0, len(rows))
	for i, row := range rows {
		cols := htmlutil.RowColumns(row)
		if len(cols) < 6 {
			return nil, fail(span, shortRow(itemsTable, i, len(cols), 6))
		}
		var n numbers
		chapter := ChapterRow{
			ChapterRef: htmlutil.IdFromHref(storyTextIdPattern, hrefs[i]),
			Number:     n.parse(cols[1]),
			Title:      textutil.Column(cols, 2),
			Words:      n.parse(cols[3]),
			Views:      n.parse(cols[4]),
			Visitors:   n.parse(cols[5]),
		}
		if n.err != nil {
			return nil, fail(span, fmt.Errorf("chapter row %d: %w", i, n.err))
		}
		out = append(out, chapter)
	}
	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

// LegacyRows reads the all-time story table.
func LegacyRows(ctx context.Context, doc *goquery.Document) ([]LegacyRow, error) {
	_, span := tracer.Start(ctx, "LegacyRows")
	defer span.End()

	var out []LegacyRow
	for i, row := range doc.Find(statsTable + " > tbody > tr").Nodes {
		cells := goquery.NewDocumentFromNode(row).Find("td").Nodes
		if len(cells) == 0 {
			continue
		}
		if len(cells) < 8 {
			return nil, fail(span, shortRow(statsTable, i, len(cells), 8))
		}

		href := goquery.NewDocumentFromNode(cells[0]).Find("a").AttrOr("href", "")
		text := func(idx int) string {
			return htmlutil.GetText(cells[idx])
		}
		var n numbers
		legacy := LegacyRow{
			Ref:         htmlutil.IdFromHref(storyIdPattern, href),
			Title:       strings.TrimSpace(text(0)),
			Words:       n.parse(text(1)),
			Chapters:    n.parse(text(2)),
			Reviews:     n.parse(text(3)),
			Views:       n.parse(text(4)),
			Communities: n.parse(text(5)),
			Favorites:   n.parse(text(6)),
			Follows:     n.parse(text(7)),
		}
		if n.err != nil {
			return nil, fail(span, fmt.Errorf("legacy row %d: %w", i, n.err))
		}
		out = append(out, legacy)
	}
	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

// UserRows reads a favorites or follows listing.
func UserRows(ctx context.Context, doc *goquery.Document) ([]UserRow, error) {
	_, span := tracer.Start(ctx, "UserRows")
	defer span.End()

	rows, hrefs, err := rowsWithAnchors(doc, statsTable)
	if err != nil {
		return nil, fail(span, err)
	}

	out := make([]UserRow, 0, len(rows))
	for i, row := range rows {
		cols := htmlutil.RowColumns(row)
		if len(cols) < 3 {
			return nil, fail(span, shortRow(statsTable, i, len(cols), 3))
		}
		out = append(out, UserRow{
			Id:        htmlutil.IdFromHref(userIdPattern, hrefs[i]),
			Alias:     textutil.Column(cols, 1),
			DateAdded: textutil.Column(cols, 2),
		})
	}
	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

// UserCountry reads the flag title off a user profile, "" when the
// user shows no flag.
func UserCountry(ctx context.Context, doc *goquery.Document) string {
	_, span := tracer.Start(ctx, "UserCountry")
	defer span.End()

	return doc.Find(`table img[align="ABSMIDDLE"]`).First().AttrOr("title", "")
}

const (
	ChartByDate    = 0
	ChartByCountry = 1
)

type chartXml struct {
	Groups []chartGroup `xml:",any"`
}

type chartGroup struct {
	Items []chartItem `xml:",any"`
}

type chartItem struct {
	Label string `xml:"label,attr"`
	Value string `xml:"value,attr"`
}

// Chart reads the index-th embedded chart on the page. Charts list
// category labels first, then a views series, then a visitors series.
// A page without that chart yields no counts, a chart script without
// data is a structure mismatch.
func Chart(ctx context.Context, doc *goquery.Document, index int) ([]CategoryCount, error) {
	_, span := tracer.Start(ctx, "Chart")
	defer span.End()
	span.SetAttributes(attribute.Int("index", index))

	var scripts []*html.Node
	for _, script := range doc.Find("script").Nodes {
		if strings.Contains(htmlutil.GetText(script), "new FusionChart") {
			scripts = append(scripts, script)
		}
	}
	if index >= len(scripts) {
		return nil, nil
	}

	match := chartDataPattern.FindStringSubmatch(htmlutil.GetText(scripts[index]))
	if match == nil {
		return nil, fail(span, fmt.Errorf("%w: chart %d has no data", ErrStructureMismatch, index))
	}

	var chart chartXml
	err := xml.Unmarshal([]byte(strings.ReplaceAll(match[1], `\`, "")), &chart)
	if err != nil {
		return nil, fail(span, fmt.Errorf("%w: chart %d: %w", ErrStructureMismatch, index, err))
	}
	if len(chart.Groups) < 3 {
		return nil, fail(span, fmt.Errorf(
			"%w: chart %d has %d series", ErrStructureMismatch, index, len(chart.Groups),
		))
	}

	labels := chart.Groups[0].Items
	views := chart.Groups[1].Items
	visitors := chart.Groups[2].Items
	if len(labels) != len(views) || len(labels) != len(visitors) {
		return nil, fail(span, fmt.Errorf(
			"%w: chart %d has %d labels, %d views, %d visitors",
			ErrStructureMismatch, index, len(labels), len(views), len(visitors),
		))
	}

	out := make([]CategoryCount, len(labels))
	var n numbers
	for i := range labels {
		out[i] = CategoryCount{
			Label:    labels[i].Label,
			Views:    n.parse(views[i].Value),
			Visitors: n.parse(visitors[i].Value),
		}
	}
	if n.err != nil {
		return nil, fail(span, fmt.Errorf("chart %d: %w", index, n.err))
	}
	return out, nil
}
