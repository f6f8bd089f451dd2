package reconcile

import (
	"context"
	"fmt"
	"slices"

	"readstats/services/readstats/db"
)

// Member is one user as shown on a favorites or follows listing.
type Member struct {
	ID        int64
	Alias     string
	DateAdded string
}

// Users is the user catalogue membership changes are resolved against.
type Users interface {
	GetOrCreateUser(ctx context.Context, id int64, country, dateAdded string) (db.User, error)
	FirstAlias(ctx context.Context, userID int64) (string, error)
	AddAlias(ctx context.Context, userID int64, name string) error
}

// Scope is one stored membership set.
type Scope interface {
	Members(ctx context.Context) ([]int64, error)
	Add(ctx context.Context, userID int64) error
	Remove(ctx context.Context, userID int64) error
}

type MembershipResult struct {
	Added   []int64
	Removed []int64
}

// Membership brings scope in line with the users seen on the web. Each
// added or removed user gets one line under key of the form
// "<prefix><noun> added 'alias' from 'country' (id)".
func Membership(
	ctx context.Context,
	users Users,
	scope Scope,
	r Reporter,
	key, prefix, noun string,
	web []Member,
) (MembershipResult, error) {
	stored, err := scope.Members(ctx)
	if err != nil {
		return MembershipResult{}, err
	}
	storedSet := make(map[int64]bool, len(stored))
	for _, id := range stored {
		storedSet[id] = true
	}
	webSet := make(map[int64]Member, len(web))
	for _, m := range web {
		webSet[m.ID] = m
	}

	var result MembershipResult
	for id := range webSet {
		if !storedSet[id] {
			result.Added = append(result.Added, id)
		}
	}
	for id := range storedSet {
		if _, ok := webSet[id]; !ok {
			result.Removed = append(result.Removed, id)
		}
	}
	slices.Sort(result.Added)
	slices.Sort(result.Removed)

	for _, id := range result.Added {
		member := webSet[id]
		line, err := describe(ctx, users, id, member.Alias, member.DateAdded)
		if err != nil {
			return MembershipResult{}, err
		}
		r.Record(key, fmt.Sprintf("%s%s added %s", prefix, noun, line))
		if err := scope.Add(ctx, id); err != nil {
			return MembershipResult{}, err
		}
	}
	for _, id := range result.Removed {
		line, err := describe(ctx, users, id, "", "")
		if err != nil {
			return MembershipResult{}, err
		}
		r.Record(key, fmt.Sprintf("%s%s removed %s", prefix, noun, line))
		if err := scope.Remove(ctx, id); err != nil {
			return MembershipResult{}, err
		}
	}
	return result, nil
}

// describe resolves the display alias of a user, storing the listing
// alias when the user has none yet.
func describe(ctx context.Context, users Users, id int64, webAlias, dateAdded string) (string, error) {
	user, err := users.GetOrCreateUser(ctx, id, db.DefaultCountry, dateAdded)
	if err != nil {
		return "", err
	}
	alias, err := users.FirstAlias(ctx, id)
	if err != nil {
		return "", err
	}
	if alias == "" {
		alias = webAlias
		if alias == "" {
			alias = db.NewUserAlias
		}
		if alias != db.NewUserAlias {
			if err := users.AddAlias(ctx, id, alias); err != nil {
				return "", err
			}
		}
	}
	return fmt.Sprintf("'%s' from '%s' (%d)", alias, user.Country, id), nil
}
