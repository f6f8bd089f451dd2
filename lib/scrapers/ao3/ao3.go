// Package ao3 reads the works listing of an Archive Of Our Own user.
package ao3

import (
	"context"
	"fmt"
	"net/url"
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
)

var tracer = otel.Tracer("readstats.lib.scrapers.ao3")

const BaseUrl = "https://archiveofourown.org"

var workIdPattern = regexp.MustCompile(`/works/([0-9]+)`)

type Work struct {
	Ref       int64
	Title     string
	Hits      int64
	Kudos     int64
	Comments  int64
	Bookmarks int64
}

func worksPath(user string) string {
	return fmt.Sprintf("/users/%s/works", url.PathEscape(user))
}

// WorksPage fetches one page of a user's works, page 0 or 1 is the
// landing page.
func WorksPage(ctx context.Context, f scraper.Fetcher, user string, page int) (*goquery.Document, error) {
	var params url.Values
	if page > 1 {
		params = url.Values{"page": {strconv.Itoa(page)}}
	}
	return f.Fetch(ctx, worksPath(user), params)
}

// PageNumbers lists the numbered pagination links, stopping at the first
// link that is not a page number.
func PageNumbers(doc *goquery.Document) []int {
	var pages []int
	for _, a := range doc.Find("ol.pagination.actions > li > a").Nodes {
		n, err := strconv.Atoi(strings.TrimSpace(htmlutil.GetText(a)))
		if err != nil {
			break
		}
		pages = append(pages, n)
	}
	return pages
}

// Works reads the work blurbs on one listing page.
func Works(ctx context.Context, doc *goquery.Document) ([]Work, error) {
	_, span := tracer.Start(ctx, "Works")
	defer span.End()

	headers := doc.Find(`div.header.module > h4.heading > a[href*="works"]`).Nodes
	stats := doc.Find("dl.stats")
	if len(headers) != stats.Length() {
		err := fmt.Errorf(
			"%w: %d work headers but %d stat blocks",
			scraper.ErrStructureMismatch, len(headers), stats.Length(),
		)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	works := make([]Work, 0, len(headers))
	for i, header := range headers {
		block := stats.Eq(i)
		count := func(class string) (int64, error) {
			dd := block.Find("dd." + class)
			if dd.Length() == 0 {
				return 0, nil
			}
			return textutil.ParseCount(dd.First().Text())
		}

		work := Work{
			Ref:   htmlutil.IdFromHref(workIdPattern, htmlutil.Attr(header, "href")),
			Title: strings.TrimSpace(htmlutil.GetText(header)),
		}
		var err error
		for _, field := range []struct {
			class string
			dest  *int64
		}{
			{"hits", &work.Hits},
			{"kudos", &work.Kudos},
			{"comments", &work.Comments},
			{"bookmarks", &work.Bookmarks},
		} {
			*field.dest, err = count(field.class)
			if err != nil {
				err = fmt.Errorf("work %q %s: %w", work.Title, field.class, err)
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
		}
		works = append(works, work)
	}

	span.SetAttributes(attribute.Int("count", len(works)))
	return works, nil
}

// AllWorks walks the landing page and every page it links to.
func AllWorks(ctx context.Context, f scraper.Fetcher, user string) ([]Work, error) {
	ctx, span := tracer.Start(ctx, "AllWorks")
	defer span.End()
	span.SetAttributes(attribute.String("user", user))

	doc, err := WorksPage(ctx, f, user, 1)
	if err != nil {
		return nil, err
	}
	works, err := Works(ctx, doc)
	if err != nil {
		return nil, err
	}

	for _, page := range PageNumbers(doc) {
		if page <= 1 {
			continue
		}
		doc, err := WorksPage(ctx, f, user, page)
		if err != nil {
			return nil, err
		}
		more, err := Works(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		works = append(works, more...)
	}
	return works, nil
}
