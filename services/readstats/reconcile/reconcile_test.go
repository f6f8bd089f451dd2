package reconcile

import (
	"context"
	"slices"
	"testing"

	"readstats/lib/testutil"
	"readstats/services/readstats/db"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	lines map[string][]string
}

func newRecorder() *recorder {
	return &recorder{lines: map[string][]string{}}
}

func (r *recorder) Record(key, line string) {
	r.lines[key] = append(r.lines[key], line)
}

func (r *recorder) count() int {
	n := 0
	for _, lines := range r.lines {
		n += len(lines)
	}
	return n
}

func TestCompareUnchanged(t *testing.T) {
	r := newRecorder()
	row := db.PeriodItem{PeriodID: 1, ItemRef: 42, Views: 100, Visitors: 90}
	before := row

	changed := CompareAll(r, "The Long Road", ItemLabel("The Long Road"),
		Counts(100, 90, &row.Views, &row.Visitors), false)
	require.False(t, changed)
	require.Equal(t, before, row)
	require.Zero(t, r.count())
}

func TestCompareOneLinePerField(t *testing.T) {
	r := newRecorder()
	row := db.PeriodItem{PeriodID: 1, ItemRef: 42, Views: 80, Visitors: 70}

	changed := CompareAll(r, "The Long Road", ItemLabel("The Long Road"),
		Counts(100, 90, &row.Views, &row.Visitors), false)
	require.True(t, changed)
	require.Equal(t, int64(100), row.Views)
	require.Equal(t, int64(90), row.Visitors)
	require.Equal(t, []string{
		"'The Long Road' views 80 to 100 (delta 20)",
		"'The Long Road' visitors 70 to 90 (delta 20)",
	}, r.lines["The Long Road"])

	changed = CompareAll(r, "The Long Road", ItemLabel("The Long Road"),
		Counts(100, 90, &row.Views, &row.Visitors), false)
	require.False(t, changed)
	require.Equal(t, 2, r.count())
}

func TestCompareDecrease(t *testing.T) {
	r := newRecorder()
	stored := int64(12)
	require.True(t, Compare(r, MonthlyKey, CountryLabel("Germany"), "views", 10, &stored, false))
	require.Equal(t, []string{"country 'Germany': views 12 to 10 (delta -2)"}, r.lines[MonthlyKey])
}

func TestCompareCatchUp(t *testing.T) {
	r := newRecorder()

	var fresh int64
	require.True(t, Compare(r, MonthlyKey, "'Monthly' ", "views", 500, &fresh, true))
	require.Equal(t, int64(500), fresh)
	require.Zero(t, r.count())

	seen := int64(400)
	require.True(t, Compare(r, MonthlyKey, "'Monthly' ", "views", 500, &seen, true))
	require.Equal(t, []string{"'Monthly' views 400 to 500 (delta 100)"}, r.lines[MonthlyKey])
}

func TestLabels(t *testing.T) {
	require.Equal(t, "'Story' legacy ", LegacyLabel("Story"))
	require.Equal(t, "chapter 3: 'Ch' ", ChapterLabel(3, "Ch"))
	require.Equal(t, "chapter 3: 'Ch' for 'France' ", ChapterCountryLabel(3, "Ch", "France"))
}

type setScope struct {
	ids map[int64]bool
}

func (s *setScope) Members(ctx context.Context) ([]int64, error) {
	var out []int64
	for id := range s.ids {
		out = append(out, id)
	}
	return out, nil
}

func (s *setScope) Add(ctx context.Context, id int64) error {
	s.ids[id] = true
	return nil
}

func (s *setScope) Remove(ctx context.Context, id int64) error {
	delete(s.ids, id)
	return nil
}

func (s *setScope) sorted() []int64 {
	out, _ := s.Members(context.Background())
	slices.Sort(out)
	return out
}

func TestMembership(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "reconcile",
		DbSchema: db.Schema,
	})
	defer cleanup()
	qry := db.New(res.DB)
	ctx := context.Background()

	// 10 already has a known alias, 20 will be dropped
	_, err := qry.GetOrCreateUser(ctx, 10, "Germany", "")
	require.NoError(t, err)
	require.NoError(t, qry.AddAlias(ctx, 10, "Old Name"))

	scope := &setScope{ids: map[int64]bool{10: true, 20: true}}
	r := newRecorder()
	web := []Member{
		{ID: 10, Alias: "Old Name"},
		{ID: 30, Alias: "Reader Three", DateAdded: "08-14-16"},
		{ID: 40, Alias: "New User"},
	}

	result, err := Membership(ctx, qry, scope, r, "The Long Road", ItemLabel("The Long Road"), "fav", web)
	require.NoError(t, err)
	require.Equal(t, []int64{30, 40}, result.Added)
	require.Equal(t, []int64{20}, result.Removed)
	require.Equal(t, []int64{10, 30, 40}, scope.sorted())

	expected := []string{
		"'The Long Road' fav added 'Reader Three' from 'Unknown' (30)",
		"'The Long Road' fav added 'New User' from 'Unknown' (40)",
		"'The Long Road' fav removed 'New User' from 'Unknown' (20)",
	}
	if diff := cmp.Diff(expected, r.lines["The Long Road"]); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, len(result.Added)+len(result.Removed), r.count())

	alias, err := qry.FirstAlias(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, "Reader Three", alias)
	alias, err = qry.FirstAlias(ctx, 40)
	require.NoError(t, err)
	require.Equal(t, "", alias)

	again, err := Membership(ctx, qry, scope, newRecorder(), "The Long Road", ItemLabel("The Long Road"), "fav", web)
	require.NoError(t, err)
	require.Empty(t, again.Added)
	require.Empty(t, again.Removed)
}

func TestOwnerMembershipLines(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "reconcile",
		DbSchema: db.Schema,
	})
	defer cleanup()
	qry := db.New(res.DB)

	scope := &setScope{ids: map[int64]bool{}}
	r := newRecorder()
	_, err := Membership(context.Background(), qry, scope, r, "Me", "", "follow", []Member{{ID: 5, Alias: "Fan"}})
	require.NoError(t, err)
	require.Equal(t, []string{"follow added 'Fan' from 'Unknown' (5)"}, r.lines["Me"])
}
