package fanfiction

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"readstats/lib/scraper"

	"github.com/PuerkitoBio/goquery"
)

const (
	BaseUrl         = "https://www.fanfiction.net"
	LoggedOutMarker = "You must be logged in"
	CookieHost      = "fanfiction.net"
)

const (
	PageStoryEyes        = "/stats/story_eyes.php"
	PageStoryEyesStory   = "/stats/story_eyes_story.php"
	PageStoryEyesChapter = "/stats/story_eyes_chapter.php"
	PageLegacy           = "/stats/story.php"
	PageLegacyPart       = "/stats/part.php"
	PageUser             = "/stats/user.php"
)

// Month identifies a stats month in page requests.
type Month struct {
	Year  int
	Month int
}

func (m Month) String() string {
	return fmt.Sprintf("%02d/%d", m.Month, m.Year)
}

func (m Month) params() url.Values {
	return url.Values{
		"month": {fmt.Sprintf("%02d", m.Month)},
		"year":  {strconv.Itoa(m.Year)},
	}
}

// StoryEyes fetches the top-level monthly report. A nil month asks for
// the current month.
func StoryEyes(ctx context.Context, f scraper.Fetcher, month *Month) (*goquery.Document, error) {
	var params url.Values
	if month != nil {
		params = month.params()
	}
	return f.Fetch(ctx, PageStoryEyes, params)
}

// StoryChapters fetches the per-chapter table and charts for one story.
func StoryChapters(ctx context.Context, f scraper.Fetcher, ref int64, month Month) (*goquery.Document, error) {
	params := month.params()
	params.Set("storyid", strconv.FormatInt(ref, 10))
	return f.Fetch(ctx, PageStoryEyesStory, params)
}

// Chapter fetches the by-country breakdown of one chapter.
func Chapter(ctx context.Context, f scraper.Fetcher, chapterRef int64, month Month) (*goquery.Document, error) {
	params := month.params()
	params.Set("storytextid", strconv.FormatInt(chapterRef, 10))
	return f.Fetch(ctx, PageStoryEyesChapter, params)
}

func Legacy(ctx context.Context, f scraper.Fetcher) (*goquery.Document, error) {
	return f.Fetch(ctx, PageLegacy, nil)
}

type Part string

const (
	PartFavorites Part = "favs"
	PartFollows   Part = "alerts"
)

// LegacyPart fetches the users who favorited or follow one story.
func LegacyPart(ctx context.Context, f scraper.Fetcher, ref int64, part Part) (*goquery.Document, error) {
	return f.Fetch(ctx, PageLegacyPart, url.Values{
		"storyid": {strconv.FormatInt(ref, 10)},
		"part":    {string(part)},
	})
}

// OwnerPart fetches the users who favorited or follow the account owner.
func OwnerPart(ctx context.Context, f scraper.Fetcher, part Part) (*goquery.Document, error) {
	return f.Fetch(ctx, PageUser, url.Values{"action": {string(part)}})
}

func Profile(ctx context.Context, f scraper.Fetcher, userId int64) (*goquery.Document, error) {
	return f.Fetch(ctx, fmt.Sprintf("/u/%d", userId), nil)
}

// Reviews fetches the first review page of a story, later pages are
// reached through ReviewPage.Next.
func Reviews(ctx context.Context, f scraper.Fetcher, ref int64) (*goquery.Document, error) {
	return f.Fetch(ctx, fmt.Sprintf("/r/%d/", ref), nil)
}

// ReviewsAt fetches a later review page by the path found in
// ReviewPage.Next.
func ReviewsAt(ctx context.Context, f scraper.Fetcher, path string) (*goquery.Document, error) {
	return f.Fetch(ctx, path, nil)
}
