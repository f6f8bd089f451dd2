package db

import (
	"context"
	"time"
)

// The GetOrCreate helpers insert a zeroed row keyed by the natural key
// when none exists and then read the row back.

func (q *Queries) GetOrCreatePeriodTotal(ctx context.Context, periodID int64) (PeriodTotal, error) {
	if err := q.CreatePeriodTotal(ctx, periodID); err != nil {
		return PeriodTotal{}, err
	}
	return q.GetPeriodTotal(ctx, periodID)
}

func (q *Queries) GetOrCreatePeriodCategory(ctx context.Context, key PeriodCategoryKey) (PeriodCategory, error) {
	if err := q.CreatePeriodCategory(ctx, key); err != nil {
		return PeriodCategory{}, err
	}
	return q.GetPeriodCategory(ctx, key)
}

func (q *Queries) GetOrCreatePeriodItem(ctx context.Context, key PeriodItemKey) (PeriodItem, error) {
	if err := q.CreatePeriodItem(ctx, key); err != nil {
		return PeriodItem{}, err
	}
	return q.GetPeriodItem(ctx, key)
}

func (q *Queries) GetOrCreatePeriodItemCategory(ctx context.Context, key PeriodItemCategoryKey) (PeriodItemCategory, error) {
	if err := q.CreatePeriodItemCategory(ctx, key); err != nil {
		return PeriodItemCategory{}, err
	}
	return q.GetPeriodItemCategory(ctx, key)
}

func (q *Queries) GetOrCreatePeriodChapter(ctx context.Context, key PeriodChapterKey) (PeriodChapter, error) {
	if err := q.CreatePeriodChapter(ctx, key); err != nil {
		return PeriodChapter{}, err
	}
	return q.GetPeriodChapter(ctx, key)
}

func (q *Queries) GetOrCreatePeriodChapterCategory(ctx context.Context, key PeriodChapterCategoryKey) (PeriodChapterCategory, error) {
	if err := q.CreatePeriodChapterCategory(ctx, key); err != nil {
		return PeriodChapterCategory{}, err
	}
	return q.GetPeriodChapterCategory(ctx, key)
}

func (q *Queries) GetOrCreateLegacy(ctx context.Context, itemRef int64) (Legacy, error) {
	if err := q.CreateLegacy(ctx, itemRef); err != nil {
		return Legacy{}, err
	}
	return q.GetLegacy(ctx, itemRef)
}

// GetOrCreateChapter returns the stored chapter, creating it from
// current when it was never seen.
func (q *Queries) GetOrCreateChapter(ctx context.Context, current Chapter) (Chapter, error) {
	if err := q.CreateChapter(ctx, current); err != nil {
		return Chapter{}, err
	}
	return q.GetChapter(ctx, current.ChapterRef)
}

// GetOrCreateUser returns the stored user, a new user gets country.
func (q *Queries) GetOrCreateUser(ctx context.Context, id int64, country, dateAdded string) (User, error) {
	err := q.CreateUser(ctx, User{ID: id, Country: country, DateAdded: dateAdded})
	if err != nil {
		return User{}, err
	}
	return q.GetUser(ctx, id)
}

func (q *Queries) GetOrCreateAo3Work(ctx context.Context, title string) (Ao3Work, error) {
	if err := q.CreateAo3Work(ctx, title); err != nil {
		return Ao3Work{}, err
	}
	return q.GetAo3Work(ctx, title)
}

// AddAlias records name as a known alias of the user.
func (q *Queries) AddAlias(ctx context.Context, userID int64, name string) error {
	return q.CreateAlias(ctx, Alias{
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UnixNano(),
	})
}

// FirstAlias is the oldest alias known for the user, "" when there is
// none.
func (q *Queries) FirstAlias(ctx context.Context, userID int64) (string, error) {
	aliases, err := q.ListAliases(ctx, userID)
	if err != nil || len(aliases) == 0 {
		return "", err
	}
	return aliases[0].Name, nil
}

// CountsByItem flattens membership counts into a map keyed by item ref.
func CountsByItem(counts []MembershipCount) map[int64]int64 {
	out := make(map[int64]int64, len(counts))
	for _, c := range counts {
		out[c.ItemRef] = c.Count
	}
	return out
}
