package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"readstats/lib/telemetry"

	"github.com/stretchr/testify/require"
)

func newTestServer(t testing.TB) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/stats/story_eyes.php", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("funn")
		if err != nil || cookie.Value != "abc" {
			w.Write([]byte("<html><body>You must be logged in to view this page.</body></html>"))
			return
		}
		w.Write([]byte("<html><body><p id='month'>" + r.URL.Query().Get("month") + "</p></body></html>"))
	})
	mux.HandleFunc("/down", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte("late"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t testing.TB, baseUrl string, cookies []*http.Cookie) *Client {
	client, err := NewClient(ClientOptions{
		BaseUrl:         baseUrl,
		Cookies:         cookies,
		Delay:           time.Millisecond,
		Timeout:         100 * time.Millisecond,
		LoggedOutMarker: "You must be logged in",
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestFetch(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scraper")
	defer cleanup()

	server := newTestServer(t)
	client := newTestClient(t, server.URL, []*http.Cookie{{Name: "funn", Value: "abc", Path: "/"}})

	doc, err := client.Fetch(context.Background(), "/stats/story_eyes.php", url.Values{"month": {"08"}})
	require.NoError(t, err)
	require.Equal(t, "08", doc.Find("#month").Text())
}

func TestFetchErrors(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:scraper")
	defer cleanup()

	server := newTestServer(t)
	client := newTestClient(t, server.URL, nil)
	ctx := context.Background()

	_, err := client.Fetch(ctx, "/stats/story_eyes.php", nil)
	require.ErrorIs(t, err, ErrAuthRequired)

	_, err = client.Fetch(ctx, "/down", nil)
	require.ErrorIs(t, err, ErrAuthRequired)

	_, err = client.Fetch(ctx, "/slow", nil)
	require.ErrorIs(t, err, ErrTimeout)

	closed := httptest.NewServer(http.NotFoundHandler())
	closedUrl := closed.URL
	closed.Close()
	unreachable := newTestClient(t, closedUrl, nil)
	_, err = unreachable.Fetch(ctx, "/stats/story_eyes.php", nil)
	require.ErrorIs(t, err, ErrUnreachable)
}

func TestFetchPacing(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(ClientOptions{
		BaseUrl: server.URL,
		Delay:   150 * time.Millisecond,
	})
	require.NoError(t, err)
	defer client.Close()

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Fetch(context.Background(), "/down", nil)
		require.ErrorIs(t, err, ErrAuthRequired)
	}
	require.GreaterOrEqual(t, time.Since(start), 280*time.Millisecond)
}

type dumpedPages struct {
	lock  sync.Mutex
	pages map[string]string
}

func (d *dumpedPages) Write(id string, contents string) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.pages[id] = contents
}

func TestFetchWithDump(t *testing.T) {
	server := newTestServer(t)
	dump := &dumpedPages{pages: map[string]string{}}
	client, err := NewClient(ClientOptions{
		BaseUrl: server.URL,
		Cookies: []*http.Cookie{{Name: "funn", Value: "abc", Path: "/"}},
		Delay:   time.Millisecond,
		Dump:    dump,
	})
	require.NoError(t, err)
	defer client.Close()

	doc, err := client.Fetch(context.Background(), "/stats/story_eyes.php", url.Values{"month": {"08"}})
	require.NoError(t, err)
	require.Equal(t, "08", doc.Find("#month").Text())

	require.Len(t, dump.pages, 1)
	page, ok := dump.pages["0001_stats_story_eyes.php.txt"]
	require.True(t, ok)
	require.True(t, strings.Contains(page, "GET "+server.URL+"/stats/story_eyes.php?month=08"), page)
}

func TestFetchDelayPastDeadline(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(ClientOptions{
		BaseUrl: server.URL,
		Delay:   time.Hour,
	})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Fetch(context.Background(), "/down", nil)
	require.ErrorIs(t, err, ErrAuthRequired)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Fetch(ctx, "/down", nil)
	require.ErrorIs(t, err, ErrTimeout)
}
