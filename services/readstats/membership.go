package readstats

import (
	"context"

	"readstats/lib/scrapers/fanfiction"
	"readstats/services/readstats/db"
	"readstats/services/readstats/reconcile"
)

// OwnerKey groups the lines about users following the owner.
const OwnerKey = "Me"

func noun(part fanfiction.Part) string {
	if part == fanfiction.PartFollows {
		return "follow"
	}
	return "fav"
}

type itemScope struct {
	qry  *db.Queries
	ref  int64
	part fanfiction.Part
	now  int64
}

func (s itemScope) Members(ctx context.Context) ([]int64, error) {
	if s.part == fanfiction.PartFollows {
		return s.qry.ListFollows(ctx, s.ref)
	}
	return s.qry.ListFavorites(ctx, s.ref)
}

func (s itemScope) Add(ctx context.Context, userID int64) error {
	arg := db.MembershipParams{ItemRef: s.ref, UserID: userID, AddedAt: s.now}
	if s.part == fanfiction.PartFollows {
		return s.qry.AddFollow(ctx, arg)
	}
	return s.qry.AddFavorite(ctx, arg)
}

func (s itemScope) Remove(ctx context.Context, userID int64) error {
	arg := db.MembershipParams{ItemRef: s.ref, UserID: userID}
	if s.part == fanfiction.PartFollows {
		return s.qry.RemoveFollow(ctx, arg)
	}
	return s.qry.RemoveFavorite(ctx, arg)
}

type ownerScope struct {
	qry  *db.Queries
	part fanfiction.Part
	now  int64
}

func (s ownerScope) Members(ctx context.Context) ([]int64, error) {
	if s.part == fanfiction.PartFollows {
		return s.qry.ListOwnerFollows(ctx)
	}
	return s.qry.ListOwnerFavorites(ctx)
}

func (s ownerScope) Add(ctx context.Context, userID int64) error {
	arg := db.MembershipParams{UserID: userID, AddedAt: s.now}
	if s.part == fanfiction.PartFollows {
		return s.qry.AddOwnerFollow(ctx, arg)
	}
	return s.qry.AddOwnerFavorite(ctx, arg)
}

func (s ownerScope) Remove(ctx context.Context, userID int64) error {
	if s.part == fanfiction.PartFollows {
		return s.qry.RemoveOwnerFollow(ctx, userID)
	}
	return s.qry.RemoveOwnerFavorite(ctx, userID)
}

func members(rows []fanfiction.UserRow) []reconcile.Member {
	out := make([]reconcile.Member, len(rows))
	for i, r := range rows {
		out[i] = reconcile.Member{ID: r.Id, Alias: r.Alias, DateAdded: r.DateAdded}
	}
	return out
}
