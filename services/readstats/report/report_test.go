package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFlushSortsKeys(t *testing.T) {
	var out strings.Builder
	r := New[string](&out)
	r.Record("Zebra", "'Zebra' views 1 to 2 (delta 1)")
	r.Record("Apple", "country 'Germany': views 3 to 5 (delta 2)")
	r.Record("Apple", "'Apple' visitors 1 to 2 (delta 1)")

	require.NoError(t, r.Flush())
	require.Equal(t, strings.Join([]string{
		"country 'Germany': views 3 to 5 (delta 2)",
		"'Apple' visitors 1 to 2 (delta 1)",
		"'Zebra' views 1 to 2 (delta 1)",
		Divider,
		"",
	}, "\n"), out.String())
	require.Equal(t, 2, r.Len())
}

func TestHeadingWhenKeyMissing(t *testing.T) {
	var out strings.Builder
	r := New[string](&out)
	r.Record("The Long Road", "country 'Germany': views 3 to 5 (delta 2)")

	require.NoError(t, r.Flush())
	require.Equal(t, "The Long Road\ncountry 'Germany': views 3 to 5 (delta 2)\n"+Divider+"\n", out.String())
}

func TestFlushTwicePrintsOnce(t *testing.T) {
	var out strings.Builder
	r := New[string](&out)
	r.Record("Monthly", "'Monthly' views 10 to 12 (delta 2)")

	require.NoError(t, r.FlushKey("Monthly"))
	require.NoError(t, r.Flush())
	require.NoError(t, r.Flush())

	require.Equal(t, 1, strings.Count(out.String(), "views 10 to 12"))
	require.Equal(t, 2, strings.Count(out.String(), Divider))
}

func TestLinesAfterFlushStillPrint(t *testing.T) {
	var out strings.Builder
	r := New[string](&out)
	r.Record("Story", "country 'France': views 1 to 2 (delta 1)")
	require.NoError(t, r.FlushKey("Story"))
	r.Record("Story", "chapter 1: 'One' views 1 to 2 (delta 1)")
	require.NoError(t, r.Flush())

	require.Equal(t, 1, strings.Count(out.String(), "Story\n"))
	require.Contains(t, out.String(), "chapter 1: 'One' views 1 to 2 (delta 1)")
}

func TestNumericKeys(t *testing.T) {
	var out strings.Builder
	r := New[int](&out)
	r.Record(10, "ten")
	r.Record(2, "Test line 2")
	r.Record(1, "one")

	require.NoError(t, r.Flush())
	require.Equal(t, []int{1, 2, 10}, r.Keys())
	require.Equal(t, "1\none\n2\nTest line 2\n10\nten\n"+Divider+"\n", out.String())
}

func TestHeadingNeedsQuotedKey(t *testing.T) {
	var out strings.Builder
	r := New[string](&out)
	r.Record("Me", "fav added 'Meg' from 'Mexico' (12)")
	r.Record("Monthly", "country 'Germany': views 3 to 5 (delta 2)")
	r.Record("Monthly", "'Monthly' views 10 to 12 (delta 2)")

	require.NoError(t, r.Flush())
	require.Equal(t, strings.Join([]string{
		"Me",
		"fav added 'Meg' from 'Mexico' (12)",
		"country 'Germany': views 3 to 5 (delta 2)",
		"'Monthly' views 10 to 12 (delta 2)",
		Divider,
		"",
	}, "\n"), out.String())
}
