package fanfiction

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"readstats/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

var (
	reviewerIdPattern = regexp.MustCompile(`([0-9]+)`)
	chapterPattern    = regexp.MustCompile(`chapter\s+(\d+)`)
)

const (
	noReviews  = "No Reviews found."
	reviewCell = `td[style="padding-top:10px;padding-bottom:10px"]`
)

type CommentRow struct {
	Ref     int64
	Chapter int64
	Time    time.Time
	// 0 for guest reviews
	AuthorId   int64
	AuthorName string
	Text       string
}

type ReviewPage struct {
	Comments []CommentRow
	// path of the following page, "" on the last one
	Next string
}

// Comments reads one page of reviews left on story ref.
func Comments(ctx context.Context, doc *goquery.Document, ref int64) (ReviewPage, error) {
	ctx, span := tracer.Start(ctx, "Comments")
	defer span.End()
	span.SetAttributes(attribute.Int64("ref", ref))

	cells := doc.Find(reviewCell)
	if strings.TrimSpace(cells.First().Text()) == noReviews {
		return ReviewPage{}, nil
	}

	var page ReviewPage
	var err error
	cells.EachWithBreak(func(i int, td *goquery.Selection) bool {
		comment := CommentRow{Ref: ref, Chapter: 1}

		author := td.ChildrenFiltered("a").First()
		if author.Length() > 0 {
			comment.AuthorId = htmlutil.IdFromHref(reviewerIdPattern, author.AttrOr("href", ""))
			comment.AuthorName = strings.TrimSpace(author.Text())
		} else {
			comment.AuthorName = htmlutil.OwnText(td.Nodes[0])
		}

		small := td.Find(`small[style="color:gray"]`).First().Text()
		if match := chapterPattern.FindStringSubmatch(small); match != nil {
			comment.Chapter, _ = strconv.ParseInt(match[1], 10, 64)
		}

		stamp := td.Find("[data-xutime]").First().AttrOr("data-xutime", "")
		secs, parseErr := strconv.ParseInt(stamp, 10, 64)
		if parseErr != nil {
			err = fmt.Errorf("%w: review %d timestamp %q", ErrMalformedNumber, i, stamp)
			return false
		}
		comment.Time = time.Unix(secs, 0).UTC()
		comment.Text = strings.TrimSpace(td.Find(`div[style="margin-top:5px"]`).First().Text())

		page.Comments = append(page.Comments, comment)
		return true
	})
	if err != nil {
		return ReviewPage{}, fail(span, err)
	}

	for _, a := range htmlutil.GetAnchors(ctx, doc.Find("a")) {
		if strings.Contains(a.Name, "Next ") {
			page.Next = a.Href
			break
		}
	}

	span.SetAttributes(attribute.Int("count", len(page.Comments)))
	return page, nil
}
