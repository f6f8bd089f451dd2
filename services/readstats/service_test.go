package readstats

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"readstats/lib/scraper"
	"readstats/lib/testutil"
	"readstats/lib/textutil"
	"readstats/services/readstats/db"
	"readstats/services/readstats/report"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const storyEyes = `<html><head>
<script type="text/javascript">
var chart1 = new FusionCharts("/static/fcharts/MSLine.swf", "c1", "100%", "250", "0", "1");
chart1.setDataXML("<graph><categories><category label='08-01' /></categories><dataset><set value='1,210' /></dataset><dataset><set value='705' /></dataset></graph>");
</script>
<script type="text/javascript">
var chart2 = new FusionCharts("/static/fcharts/MSBar2D.swf", "c2", "100%", "250", "0", "1");
chart2.setDataXML("<graph><categories><category label='United States' /><category label='Germany' /></categories><dataset><set value='900' /><set value='310' /></dataset><dataset><set value='450' /><set value='255' /></dataset></graph>");
</script>
</head><body>
<table id="gui_table1i"><tbody>
<tr><td>For the month of 2016-08, there have been a total of 1,210 Views and 705 Visitors.</td></tr>
</tbody></table>
<table id="gui_table2i"><tbody>
<tr>
<td><a href="/stats/story_eyes_story.php?storyid=42&amp;month=08&amp;year=2016">The Long Road</a></td>
<td>12,000</td>
<td>100</td>
<td>90</td>
</tr>
<tr>
<td><a href="/stats/story_eyes_story.php?storyid=7&amp;month=08&amp;year=2016">Aftermath</a></td>
<td>3,500</td>
<td>1,110</td>
<td>615</td>
</tr>
</tbody></table>
</body></html>`

const emptyChapters = `<html><body><table id="gui_table2i"><tbody></tbody></table></body></html>`

const chapters = `<html><body>
<table id="gui_table2i"><tbody>
<tr>
<td>1</td>
<td><a href="/stats/story_eyes_chapter.php?storytextid=1001">Beginnings</a></td>
<td>4,000</td>
<td>60</td>
<td>50</td>
</tr>
</tbody></table>
</body></html>`

const chapterCountries = `<html><head>
<script type="text/javascript">
var chart1 = new FusionCharts("/static/fcharts/MSBar2D.swf", "c1", "100%", "250", "0", "1");
chart1.setDataXML("<graph><categories><category label='Germany' /></categories><dataset><set value='60' /></dataset><dataset><set value='50' /></dataset></graph>");
</script>
<script type="text/javascript">
var chart2 = new FusionCharts("/static/fcharts/MSBar2D.swf", "c2", "100%", "250", "0", "1");
chart2.setDataXML("<graph><categories><category label='Germany' /></categories><dataset><set value='60' /></dataset><dataset><set value='50' /></dataset></graph>");
</script>
</head><body></body></html>`

const users = `<html><body>
<table id="gui_table1i"><tbody>
<tr>
<td><a href="/u/555/Reader-One">Reader One</a></td>
<td>08-14-16</td>
</tr>
<tr>
<td><a href="/u/777/">New User</a></td>
<td>08-15-16</td>
</tr>
</tbody></table>
</body></html>`

const noUsers = `<html><body><table id="gui_table1i"><tbody></tbody></table></body></html>`

const profile = `<html><body>
<table><tr><td><img src="/static/flags/de.png" align="ABSMIDDLE" title="Germany"> Joined</td></tr></table>
</body></html>`

const reviews = `<html><body>
<table><tbody>
<tr><td style="padding-top:10px;padding-bottom:10px">
<a href="/u/555/Reader-One">Reader One</a> <small style="color:gray">chapter 2 . <span data-xutime="1471219200">Aug 15</span></small>
<div style="margin-top:5px">Loved it.</div>
</td></tr>
<tr><td style="padding-top:10px;padding-bottom:10px">
Guest <small style="color:gray"><span data-xutime="1471305600">Aug 16</span></small>
<div style="margin-top:5px">More please!</div>
</td></tr>
</tbody></table>
<center><a href="/r/42/0/2/">Next &#187;</a></center>
</body></html>`

const noReviews = `<html><body><p>No Reviews found.</p></body></html>`

const works = `<html><body>
<ol class="pagination actions"><li><a href="/users/writer/works?page=1">1</a></li></ol>
<div class="header module">
<h4 class="heading"><a href="/works/1111">Salt and Stone</a> by <a href="/users/writer">writer</a></h4>
</div>
<dl class="stats">
<dt>Comments:</dt><dd class="comments">12</dd>
<dt>Kudos:</dt><dd class="kudos">1,024</dd>
<dt>Bookmarks:</dt><dd class="bookmarks">30</dd>
<dt>Hits:</dt><dd class="hits">20,001</dd>
</dl>
</body></html>`

const legacyTable = `<html><body>
<table id="gui_table1i"><tbody>
<tr><th>Story</th><th>Words</th></tr>
<tr>
<td><a href="/s/42/1/?storyid=42">The Long Road</a></td>
<td>12,000</td>
<td>2</td>
<td>17</td>
<td>5,432</td>
<td>1</td>
<td>2</td>
<td>2</td>
</tr>
</tbody></table>
</body></html>`

type fakeFetcher struct {
	pages    map[string]string
	requests []string
}

func pageKey(path string, params url.Values) string {
	if len(params) == 0 {
		return path
	}
	return path + "?" + params.Encode()
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string, params url.Values) (*goquery.Document, error) {
	key := pageKey(path, params)
	f.requests = append(f.requests, key)
	body, ok := f.pages[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s returned 403 Forbidden", scraper.ErrAuthRequired, key)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(body))
}

func (f *fakeFetcher) requested(key string) bool {
	for _, r := range f.requests {
		if r == key {
			return true
		}
	}
	return false
}

func setup(t *testing.T, pages map[string]string) (Service, *fakeFetcher, *bytes.Buffer) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "readstats",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	f := &fakeFetcher{pages: pages}
	out := &bytes.Buffer{}
	s := NewService(res.DB, f, f, out)
	s.now = func() time.Time {
		return time.Date(2016, 8, 20, 12, 0, 0, 0, time.UTC)
	}
	return s, f, out
}

// seedAugust stores period 1 with every count matching the storyEyes
// fixture except item 42, which is at 80 views and 90 visitors.
func seedAugust(t *testing.T, s Service) {
	ctx := context.Background()
	qry := s.qry

	require.NoError(t, qry.CreatePeriod(ctx, db.Period{ID: 1, Year: 2016, Month: 8}))
	require.NoError(t, qry.CreateItem(ctx, db.CreateItemParams{Ref: 42, Title: "The Long Road"}))
	require.NoError(t, qry.CreateItem(ctx, db.CreateItemParams{Ref: 7, Title: "Aftermath"}))

	_, err := qry.GetOrCreatePeriodTotal(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, qry.UpdatePeriodTotal(ctx, db.PeriodTotal{PeriodID: 1, Views: 1210, Visitors: 705}))

	for _, c := range []db.PeriodCategory{
		{PeriodID: 1, Label: "United States", Views: 900, Visitors: 450},
		{PeriodID: 1, Label: "Germany", Views: 310, Visitors: 255},
	} {
		_, err := qry.GetOrCreatePeriodCategory(ctx, db.PeriodCategoryKey{PeriodID: 1, Label: c.Label})
		require.NoError(t, err)
		require.NoError(t, qry.UpdatePeriodCategory(ctx, c))
	}
	for _, item := range []db.PeriodItem{
		{PeriodID: 1, ItemRef: 42, Views: 80, Visitors: 90},
		{PeriodID: 1, ItemRef: 7, Views: 1110, Visitors: 615},
	} {
		_, err := qry.GetOrCreatePeriodItem(ctx, db.PeriodItemKey{PeriodID: 1, ItemRef: item.ItemRef})
		require.NoError(t, err)
		require.NoError(t, qry.UpdatePeriodItem(ctx, item))
	}
}

func TestMonthlySteadyState(t *testing.T) {
	s, f, out := setup(t, map[string]string{
		"/stats/story_eyes.php": storyEyes,
		"/stats/story_eyes_story.php?month=08&storyid=42&year=2016": emptyChapters,
	})
	seedAugust(t, s)
	ctx := context.Background()

	rep := report.New[string](out)
	require.NoError(t, s.Monthly(ctx, rep, Options{}))

	require.Equal(t, []string{"The Long Road"}, rep.Keys())
	require.Equal(t, []string{"'The Long Road' views 80 to 100 (delta 20)"}, rep.Lines("The Long Road"))
	require.Equal(t, "'The Long Road' views 80 to 100 (delta 20)\n", out.String())

	require.True(t, f.requested("/stats/story_eyes_story.php?month=08&storyid=42&year=2016"))
	require.False(t, f.requested("/stats/story_eyes_story.php?month=08&storyid=7&year=2016"))

	row, err := s.qry.GetPeriodItem(ctx, db.PeriodItemKey{PeriodID: 1, ItemRef: 42})
	require.NoError(t, err)
	require.Equal(t, db.PeriodItem{PeriodID: 1, ItemRef: 42, Views: 100, Visitors: 90}, row)

	// a second pass over the same page has nothing left to report
	again := report.New[string](out)
	require.NoError(t, s.Monthly(ctx, again, Options{}))
	require.Zero(t, again.Len())
}

func TestMonthlyChapters(t *testing.T) {
	s, f, out := setup(t, map[string]string{
		"/stats/story_eyes.php": storyEyes,
		"/stats/story_eyes_story.php?month=08&storyid=42&year=2016":         chapters,
		"/stats/story_eyes_chapter.php?month=08&storytextid=1001&year=2016": chapterCountries,
	})
	seedAugust(t, s)
	ctx := context.Background()

	rep := report.New[string](out)
	require.NoError(t, s.Monthly(ctx, rep, Options{}))

	expected := []string{
		"'The Long Road' views 80 to 100 (delta 20)",
		"chapter 1: 'Beginnings' views 0 to 60 (delta 60)",
		"chapter 1: 'Beginnings' visitors 0 to 50 (delta 50)",
		"chapter 1: 'Beginnings' for 'Germany' views 0 to 60 (delta 60)",
		"chapter 1: 'Beginnings' for 'Germany' visitors 0 to 50 (delta 50)",
	}
	if diff := cmp.Diff(expected, rep.Lines("The Long Road")); diff != "" {
		t.Fatal(diff)
	}
	require.True(t, f.requested("/stats/story_eyes_chapter.php?month=08&storytextid=1001&year=2016"))

	chapter, err := s.qry.GetChapter(ctx, 1001)
	require.NoError(t, err)
	require.Equal(t, db.Chapter{ChapterRef: 1001, ItemRef: 42, Number: 1, Title: "Beginnings", Words: 4000}, chapter)
}

func TestMonthlyRecheckChapters(t *testing.T) {
	s, f, out := setup(t, map[string]string{
		"/stats/story_eyes.php": storyEyes,
		"/stats/story_eyes_story.php?month=08&storyid=42&year=2016": emptyChapters,
		"/stats/story_eyes_story.php?month=08&storyid=7&year=2016":  emptyChapters,
	})
	seedAugust(t, s)

	rep := report.New[string](out)
	require.NoError(t, s.Monthly(context.Background(), rep, Options{RecheckChapters: true}))

	// chapter pages are read in title order
	require.Equal(t, []string{
		"/stats/story_eyes.php",
		"/stats/story_eyes_story.php?month=08&storyid=7&year=2016",
		"/stats/story_eyes_story.php?month=08&storyid=42&year=2016",
	}, f.requests)
}

func TestMonthlyBootstrap(t *testing.T) {
	s, f, out := setup(t, map[string]string{
		"/stats/story_eyes.php": storyEyes,
	})
	ctx := context.Background()

	rep := report.New[string](out)
	require.NoError(t, s.Monthly(ctx, rep, Options{}))
	require.Zero(t, rep.Len())
	require.Equal(t, []string{"/stats/story_eyes.php"}, f.requests)

	last, err := s.qry.GetLastPeriod(ctx)
	require.NoError(t, err)
	require.Equal(t, db.Period{ID: 1, Year: 2016, Month: 8}, last)
}

func TestMonthlyCrossover(t *testing.T) {
	july := strings.Replace(storyEyes, "2016-08", "2016-07", 1)
	s, f, out := setup(t, map[string]string{
		"/stats/story_eyes.php":                                     storyEyes,
		"/stats/story_eyes.php?month=07&year=2016":                  july,
		"/stats/story_eyes_story.php?month=07&storyid=42&year=2016": emptyChapters,
		"/stats/story_eyes_story.php?month=07&storyid=7&year=2016":  emptyChapters,
		"/stats/story_eyes_story.php?month=08&storyid=42&year=2016": emptyChapters,
		"/stats/story_eyes_story.php?month=08&storyid=7&year=2016":  emptyChapters,
	})
	ctx := context.Background()
	require.NoError(t, s.qry.CreatePeriod(ctx, db.Period{ID: 1, Year: 2016, Month: 7}))

	rep := report.New[string](out)
	require.NoError(t, s.Monthly(ctx, rep, Options{}))

	periods, err := s.qry.ListPeriods(ctx)
	require.NoError(t, err)
	require.Equal(t, []db.Period{
		{ID: 1, Year: 2016, Month: 7},
		{ID: 2, Year: 2016, Month: 8},
	}, periods)

	// july started from zero and is caught up silently, august is reported
	july1, err := s.qry.GetPeriodTotal(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, db.PeriodTotal{PeriodID: 1, Views: 1210, Visitors: 705}, july1)
	require.Equal(t, []string{
		"'Monthly' views 0 to 1210 (delta 1210)",
		"'Monthly' visitors 0 to 705 (delta 705)",
		"country 'United States': views 0 to 900 (delta 900)",
		"country 'United States': visitors 0 to 450 (delta 450)",
		"country 'Germany': views 0 to 310 (delta 310)",
		"country 'Germany': visitors 0 to 255 (delta 255)",
	}, rep.Lines("Monthly"))

	require.Equal(t, "/stats/story_eyes.php?month=07&year=2016", f.requests[1])
}

func TestMonthlyFetchFailure(t *testing.T) {
	s, _, out := setup(t, map[string]string{})
	rep := report.New[string](out)
	err := s.Monthly(context.Background(), rep, Options{})
	require.ErrorIs(t, err, scraper.ErrAuthRequired)
}

func TestMonthlyCrossoverRefetchFails(t *testing.T) {
	s, f, out := setup(t, map[string]string{
		"/stats/story_eyes.php": storyEyes,
	})
	ctx := context.Background()
	require.NoError(t, s.qry.CreatePeriod(ctx, db.Period{ID: 1, Year: 2016, Month: 7}))

	rep := report.New[string](out)
	err := s.Monthly(ctx, rep, Options{})
	require.ErrorIs(t, err, scraper.ErrAuthRequired)
	require.Equal(t, "/stats/story_eyes.php?month=07&year=2016", f.requests[1])

	periods, err := s.qry.ListPeriods(ctx)
	require.NoError(t, err)
	require.Equal(t, []db.Period{{ID: 1, Year: 2016, Month: 7}}, periods)
	_, err = s.qry.GetPeriodTotal(ctx, 1)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMonthlyMalformedNumberIsFatal(t *testing.T) {
	s, _, out := setup(t, map[string]string{
		"/stats/story_eyes.php": storyEyes,
		"/stats/story_eyes_story.php?month=08&storyid=42&year=2016": strings.Replace(chapters, "<td>60</td>", "<td>6O</td>", 1),
	})
	seedAugust(t, s)
	ctx := context.Background()

	rep := report.New[string](out)
	err := s.Monthly(ctx, rep, Options{})
	require.ErrorIs(t, err, textutil.ErrMalformedNumber)

	// the item total was already compared when the chapter page failed
	row, err := s.qry.GetPeriodItem(ctx, db.PeriodItemKey{PeriodID: 1, ItemRef: 42})
	require.NoError(t, err)
	require.Equal(t, db.PeriodItem{PeriodID: 1, ItemRef: 42, Views: 80, Visitors: 90}, row)
	_, err = s.qry.GetChapter(ctx, 1001)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMonthlyStructureMismatchSkipsItem(t *testing.T) {
	s, _, out := setup(t, map[string]string{
		"/stats/story_eyes.php": storyEyes,
		"/stats/story_eyes_story.php?month=08&storyid=42&year=2016": `<html><body>
<table id="gui_table2i"><tbody><tr><td>1</td><td>Beginnings</td></tr></tbody></table>
</body></html>`,
	})
	seedAugust(t, s)

	rep := report.New[string](out)
	require.NoError(t, s.Monthly(context.Background(), rep, Options{}))
	require.Equal(t, []string{"'The Long Road' views 80 to 100 (delta 20)"}, rep.Lines("The Long Road"))
}

func TestLegacy(t *testing.T) {
	s, _, out := setup(t, map[string]string{
		"/stats/story.php":                       legacyTable,
		"/stats/part.php?part=favs&storyid=42":   users,
		"/stats/part.php?part=alerts&storyid=42": users,
	})
	ctx := context.Background()

	rep := report.New[string](out)
	require.NoError(t, s.Legacy(ctx, rep))

	expected := []string{
		"'The Long Road' legacy chapters 0 to 2 (delta 2)",
		"'The Long Road' legacy reviews 0 to 17 (delta 17)",
		"'The Long Road' legacy views 0 to 5432 (delta 5432)",
		"'The Long Road' legacy communities 0 to 1 (delta 1)",
		"'The Long Road' legacy favorites 0 to 2 (delta 2)",
		"'The Long Road' legacy follows 0 to 2 (delta 2)",
		"'The Long Road' fav added 'Reader One' from 'Unknown' (555)",
		"'The Long Road' fav added 'New User' from 'Unknown' (777)",
		"'The Long Road' follow added 'Reader One' from 'Unknown' (555)",
		"'The Long Road' follow added 'New User' from 'Unknown' (777)",
	}
	if diff := cmp.Diff(expected, rep.Lines("The Long Road")); diff != "" {
		t.Fatal(diff)
	}

	item, err := s.qry.GetItem(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "The Long Road", item.Title)

	favs, err := s.qry.ListFavorites(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, []int64{555, 777}, favs)

	// counts and member rows agree now, so no list is read again
	again := report.New[string](out)
	require.NoError(t, s.Legacy(ctx, again))
	require.Zero(t, again.Len())
}

func TestLegacyTitleChange(t *testing.T) {
	s, f, out := setup(t, map[string]string{
		"/stats/story.php":                       legacyTable,
		"/stats/part.php?part=favs&storyid=42":   users,
		"/stats/part.php?part=alerts&storyid=42": users,
	})
	ctx := context.Background()
	require.NoError(t, s.qry.CreateItem(ctx, db.CreateItemParams{Ref: 42, Title: "Long Road"}))
	require.NoError(t, s.qry.CreateItem(ctx, db.CreateItemParams{Ref: 7, Title: "Aftermath"}))

	rep := report.New[string](out)
	require.NoError(t, s.Legacy(ctx, rep))

	item, err := s.qry.GetItem(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "The Long Road", item.Title)
	require.Empty(t, rep.Lines("Long Road"))
	require.Equal(t, "/stats/story.php", f.requests[0])
}

func TestLegacyMembershipFetchFails(t *testing.T) {
	s, _, out := setup(t, map[string]string{
		"/stats/story.php": legacyTable,
	})
	ctx := context.Background()

	rep := report.New[string](out)
	err := s.Legacy(ctx, rep)
	require.ErrorIs(t, err, scraper.ErrAuthRequired)

	items, err := s.qry.ListItems(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
	_, err = s.qry.GetLegacy(ctx, 42)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestOwner(t *testing.T) {
	s, _, out := setup(t, map[string]string{
		"/stats/user.php?action=favs":   users,
		"/stats/user.php?action=alerts": noUsers,
	})
	ctx := context.Background()

	require.NoError(t, s.Owner(ctx))
	require.Equal(t, "Me\n"+
		"fav added 'Reader One' from 'Unknown' (555)\n"+
		"fav added 'New User' from 'Unknown' (777)\n"+
		report.Divider+"\n", out.String())

	favs, err := s.qry.ListOwnerFavorites(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{555, 777}, favs)

	out.Reset()
	require.NoError(t, s.Owner(ctx))
	require.Equal(t, report.Divider+"\n", out.String())
}

func TestCountries(t *testing.T) {
	s, _, out := setup(t, map[string]string{
		"/u/555": profile,
	})
	ctx := context.Background()
	_, err := s.qry.GetOrCreateUser(ctx, 555, db.DefaultCountry, "")
	require.NoError(t, err)
	require.NoError(t, s.qry.AddAlias(ctx, 555, "Reader One"))

	require.NoError(t, s.Countries(ctx, 0))
	require.Equal(t, "Updating user 'Reader One' (555) with country 'Germany'\n", out.String())

	user, err := s.qry.GetUser(ctx, 555)
	require.NoError(t, err)
	require.Equal(t, "Germany", user.Country)

	// nothing is left unknown
	out.Reset()
	require.NoError(t, s.Countries(ctx, 0))
	require.Empty(t, out.String())
}

func TestCountriesStopsOnFetchError(t *testing.T) {
	s, _, _ := setup(t, map[string]string{})
	err := s.Countries(context.Background(), 555)
	require.ErrorIs(t, err, scraper.ErrAuthRequired)
}

func TestComments(t *testing.T) {
	s, f, out := setup(t, map[string]string{
		"/r/42/":     reviews,
		"/r/42/0/2/": noReviews,
	})
	ctx := context.Background()
	require.NoError(t, s.qry.CreateItem(ctx, db.CreateItemParams{Ref: 42, Title: "The Long Road"}))

	require.NoError(t, s.Comments(ctx, 0))
	require.Equal(t, []string{"/r/42/", "/r/42/0/2/"}, f.requests)
	require.Equal(t, "'The Long Road': 2 total comments, 2 new\n", out.String())

	count, err := s.qry.CountComments(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	alias, err := s.qry.FirstAlias(ctx, 555)
	require.NoError(t, err)
	require.Equal(t, "Reader One", alias)

	out.Reset()
	require.NoError(t, s.Comments(ctx, 42))
	require.Equal(t, "'The Long Road': 2 total comments, 0 new\n", out.String())
}

func TestAO3(t *testing.T) {
	s, _, out := setup(t, map[string]string{
		"/users/writer/works": works,
	})
	ctx := context.Background()

	require.NoError(t, s.AO3(ctx, "writer"))
	require.Equal(t, []string{
		"'Salt and Stone' hits 0 to 20001 (delta 20001)",
		"'Salt and Stone' kudos 0 to 1024 (delta 1024)",
		"'Salt and Stone' comments 0 to 12 (delta 12)",
		"'Salt and Stone' bookmarks 0 to 30 (delta 30)",
		report.Divider,
	}, strings.Split(strings.TrimSpace(out.String()), "\n"))

	work, err := s.qry.GetAo3Work(ctx, "Salt and Stone")
	require.NoError(t, err)
	require.Equal(t, int64(1111), work.Ref)
}

func TestSummary(t *testing.T) {
	s, _, out := setup(t, nil)
	ctx := context.Background()

	require.ErrorIs(t, s.Summary(ctx), ErrNoPeriod)

	seedAugust(t, s)
	require.NoError(t, s.Summary(ctx))
	require.Contains(t, out.String(), "Totals for 08/2016")
	require.Contains(t, out.String(), "The Long Road")
	require.Contains(t, out.String(), "1210")
}
