package readstats

import (
	"context"
	"fmt"

	"readstats/lib/scrapers/fanfiction"
	"readstats/services/readstats/db"
)

// Countries looks up the profile of every user whose country is still
// unknown, or of userID alone when it is not 0, and stores the country
// shown there. Each lookup is committed as it completes.
func (s Service) Countries(ctx context.Context, userID int64) error {
	ctx, span := tracer.Start(ctx, "Countries")
	defer span.End()

	var ids []int64
	if userID != 0 {
		ids = []int64{userID}
	} else {
		users, err := s.qry.ListUsersWithCountry(ctx, db.DefaultCountry)
		if err != nil {
			return fail(span, err)
		}
		for _, u := range users {
			ids = append(ids, u.ID)
		}
	}

	for _, id := range ids {
		if err := s.updateCountry(ctx, id); err != nil {
			return fail(span, err)
		}
	}
	return nil
}

func (s Service) updateCountry(ctx context.Context, id int64) error {
	doc, err := fanfiction.Profile(ctx, s.ff, id)
	if err != nil {
		return fmt.Errorf("profile of user %d: %w", id, err)
	}
	country := fanfiction.UserCountry(ctx, doc)

	tx, discard, commit, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer discard()

	if _, err := tx.GetOrCreateUser(ctx, id, db.DefaultCountry, ""); err != nil {
		return err
	}
	alias, err := tx.FirstAlias(ctx, id)
	if err != nil {
		return err
	}
	if alias == "" {
		alias = fmt.Sprint(id)
	}
	fmt.Fprintf(s.out, "Updating user '%s' (%d) with country '%s'\n", alias, id, country)

	err = tx.UpdateUserCountry(ctx, db.UpdateUserCountryParams{Country: country, ID: id})
	if err != nil {
		return err
	}
	return commit()
}
