package readstats

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"readstats/lib/scrapers/fanfiction"
	"readstats/services/readstats/db"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

// Comments stores the reviews of every catalogued item, or of itemRef
// alone when it is not 0. Items are walked in title order and each is
// committed on its own.
func (s Service) Comments(ctx context.Context, itemRef int64) error {
	ctx, span := tracer.Start(ctx, "Comments")
	defer span.End()

	items, err := s.qry.ListItems(ctx)
	if err != nil {
		return fail(span, err)
	}
	if itemRef != 0 {
		items = slices.DeleteFunc(items, func(i db.Item) bool {
			return i.Ref != itemRef
		})
		if len(items) == 0 {
			items = []db.Item{{Ref: itemRef, Title: fmt.Sprint(itemRef)}}
		}
	}

	for _, item := range items {
		if err := s.itemComments(ctx, item); err != nil {
			return fail(span, err)
		}
	}
	return nil
}

// reviewPages follows the Next links from the first review page. A path
// seen twice ends the walk.
func (s Service) reviewPages(ctx context.Context, ref int64) ([]fanfiction.CommentRow, error) {
	var all []fanfiction.CommentRow
	seen := map[string]bool{}

	var doc *goquery.Document
	var err error
	path := ""
	for {
		if path == "" {
			doc, err = fanfiction.Reviews(ctx, s.ff, ref)
		} else {
			doc, err = fanfiction.ReviewsAt(ctx, s.ff, path)
		}
		if err != nil {
			return nil, err
		}
		page, err := fanfiction.Comments(ctx, doc, ref)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Comments...)

		if page.Next == "" || seen[page.Next] {
			return all, nil
		}
		seen[page.Next] = true
		path = page.Next
	}
}

func (s Service) itemComments(ctx context.Context, item db.Item) error {
	ctx, span := tracer.Start(ctx, "itemComments")
	defer span.End()
	span.SetAttributes(attribute.Int64("ref", item.Ref))

	comments, err := s.reviewPages(ctx, item.Ref)
	if skippable(err) {
		slog.WarnContext(ctx, "skipping reviews", "title", item.Title, "err", err)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reviews of '%s': %w", item.Title, err)
	}

	tx, discard, commit, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer discard()

	// pages list the newest review first
	added := 0
	for i := len(comments) - 1; i >= 0; i-- {
		c := comments[i]
		if c.AuthorId != 0 {
			if _, err := tx.GetOrCreateUser(ctx, c.AuthorId, db.DefaultCountry, ""); err != nil {
				return err
			}
			alias, err := tx.FirstAlias(ctx, c.AuthorId)
			if err != nil {
				return err
			}
			if alias == "" && c.AuthorName != "" {
				if err := tx.AddAlias(ctx, c.AuthorId, c.AuthorName); err != nil {
					return err
				}
			}
		}

		inserted, err := tx.InsertComment(ctx, db.Comment{
			ItemRef:    item.Ref,
			Chapter:    c.Chapter,
			AuthorID:   c.AuthorId,
			AuthorName: c.AuthorName,
			Body:       c.Text,
			PostedAt:   c.Time.Unix(),
		})
		if err != nil {
			return err
		}
		if inserted {
			added++
		}
	}
	fmt.Fprintf(s.out, "'%s': %d total comments, %d new\n", item.Title, len(comments), added)
	return commit()
}
