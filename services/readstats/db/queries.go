package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}

// items

const listItems = `select ref, title from items order by title, ref`

func (q *Queries) ListItems(ctx context.Context) ([]Item, error) {
	rows, err := q.db.QueryContext(ctx, listItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Item
	for rows.Next() {
		var i Item
		if err := rows.Scan(&i.Ref, &i.Title); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getItem = `select ref, title from items where ref = ?`

func (q *Queries) GetItem(ctx context.Context, ref int64) (Item, error) {
	row := q.db.QueryRowContext(ctx, getItem, ref)
	var i Item
	err := row.Scan(&i.Ref, &i.Title)
	return i, err
}

const createItem = `insert or ignore into items(ref, title) values (?, ?)`

type CreateItemParams struct {
	Ref   int64
	Title string
}

func (q *Queries) CreateItem(ctx context.Context, arg CreateItemParams) error {
	_, err := q.db.ExecContext(ctx, createItem, arg.Ref, arg.Title)
	return err
}

const updateItemTitle = `update items set title = ? where ref = ?`

type UpdateItemTitleParams struct {
	Title string
	Ref   int64
}

func (q *Queries) UpdateItemTitle(ctx context.Context, arg UpdateItemTitleParams) error {
	_, err := q.db.ExecContext(ctx, updateItemTitle, arg.Title, arg.Ref)
	return err
}

// chapters

const getChapter = `select chapter_ref, item_ref, number, title, words from chapters where chapter_ref = ?`

func (q *Queries) GetChapter(ctx context.Context, chapterRef int64) (Chapter, error) {
	row := q.db.QueryRowContext(ctx, getChapter, chapterRef)
	var i Chapter
	err := row.Scan(&i.ChapterRef, &i.ItemRef, &i.Number, &i.Title, &i.Words)
	return i, err
}

const createChapter = `insert or ignore into chapters(chapter_ref, item_ref, number, title, words) values (?, ?, ?, ?, ?)`

func (q *Queries) CreateChapter(ctx context.Context, arg Chapter) error {
	_, err := q.db.ExecContext(ctx, createChapter,
		arg.ChapterRef,
		arg.ItemRef,
		arg.Number,
		arg.Title,
		arg.Words,
	)
	return err
}

const updateChapter = `update chapters set number = ?, title = ?, words = ? where chapter_ref = ?`

func (q *Queries) UpdateChapter(ctx context.Context, arg Chapter) error {
	_, err := q.db.ExecContext(ctx, updateChapter,
		arg.Number,
		arg.Title,
		arg.Words,
		arg.ChapterRef,
	)
	return err
}

const listChapters = `select chapter_ref, item_ref, number, title, words from chapters where item_ref = ? order by number`

func (q *Queries) ListChapters(ctx context.Context, itemRef int64) ([]Chapter, error) {
	rows, err := q.db.QueryContext(ctx, listChapters, itemRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Chapter
	for rows.Next() {
		var i Chapter
		if err := rows.Scan(&i.ChapterRef, &i.ItemRef, &i.Number, &i.Title, &i.Words); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// legacy

const legacyColumns = `item_ref, chapters, reviews, views, communities, favorites, follows`

func scanLegacy(scan func(...any) error) (Legacy, error) {
	var i Legacy
	err := scan(
		&i.ItemRef,
		&i.Chapters,
		&i.Reviews,
		&i.Views,
		&i.Communities,
		&i.Favorites,
		&i.Follows,
	)
	return i, err
}

const listLegacy = `select ` + legacyColumns + ` from legacy order by item_ref`

func (q *Queries) ListLegacy(ctx context.Context) ([]Legacy, error) {
	rows, err := q.db.QueryContext(ctx, listLegacy)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Legacy
	for rows.Next() {
		i, err := scanLegacy(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getLegacy = `select ` + legacyColumns + ` from legacy where item_ref = ?`

func (q *Queries) GetLegacy(ctx context.Context, itemRef int64) (Legacy, error) {
	return scanLegacy(q.db.QueryRowContext(ctx, getLegacy, itemRef).Scan)
}

const createLegacy = `insert or ignore into legacy(item_ref) values (?)`

func (q *Queries) CreateLegacy(ctx context.Context, itemRef int64) error {
	_, err := q.db.ExecContext(ctx, createLegacy, itemRef)
	return err
}

const updateLegacy = `update legacy set
    chapters = ?, reviews = ?, views = ?, communities = ?, favorites = ?, follows = ?
where item_ref = ?`

func (q *Queries) UpdateLegacy(ctx context.Context, arg Legacy) error {
	_, err := q.db.ExecContext(ctx, updateLegacy,
		arg.Chapters,
		arg.Reviews,
		arg.Views,
		arg.Communities,
		arg.Favorites,
		arg.Follows,
		arg.ItemRef,
	)
	return err
}

// periods

const getLastPeriod = `select id, year, month from periods order by id desc limit 1`

func (q *Queries) GetLastPeriod(ctx context.Context) (Period, error) {
	row := q.db.QueryRowContext(ctx, getLastPeriod)
	var i Period
	err := row.Scan(&i.ID, &i.Year, &i.Month)
	return i, err
}

const createPeriod = `insert into periods(id, year, month) values (?, ?, ?)`

func (q *Queries) CreatePeriod(ctx context.Context, arg Period) error {
	_, err := q.db.ExecContext(ctx, createPeriod, arg.ID, arg.Year, arg.Month)
	return err
}

const listPeriods = `select id, year, month from periods order by id`

func (q *Queries) ListPeriods(ctx context.Context) ([]Period, error) {
	rows, err := q.db.QueryContext(ctx, listPeriods)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Period
	for rows.Next() {
		var i Period
		if err := rows.Scan(&i.ID, &i.Year, &i.Month); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// period totals

const createPeriodTotal = `insert or ignore into period_totals(period_id) values (?)`

func (q *Queries) CreatePeriodTotal(ctx context.Context, periodID int64) error {
	_, err := q.db.ExecContext(ctx, createPeriodTotal, periodID)
	return err
}

const getPeriodTotal = `select period_id, views, visitors from period_totals where period_id = ?`

func (q *Queries) GetPeriodTotal(ctx context.Context, periodID int64) (PeriodTotal, error) {
	row := q.db.QueryRowContext(ctx, getPeriodTotal, periodID)
	var i PeriodTotal
	err := row.Scan(&i.PeriodID, &i.Views, &i.Visitors)
	return i, err
}

const updatePeriodTotal = `update period_totals set views = ?, visitors = ? where period_id = ?`

func (q *Queries) UpdatePeriodTotal(ctx context.Context, arg PeriodTotal) error {
	_, err := q.db.ExecContext(ctx, updatePeriodTotal, arg.Views, arg.Visitors, arg.PeriodID)
	return err
}

// period categories

const createPeriodCategory = `insert or ignore into period_categories(period_id, label) values (?, ?)`

type PeriodCategoryKey struct {
	PeriodID int64
	Label    string
}

func (q *Queries) CreatePeriodCategory(ctx context.Context, arg PeriodCategoryKey) error {
	_, err := q.db.ExecContext(ctx, createPeriodCategory, arg.PeriodID, arg.Label)
	return err
}

const getPeriodCategory = `select period_id, label, views, visitors from period_categories
where period_id = ? and label = ?`

func (q *Queries) GetPeriodCategory(ctx context.Context, arg PeriodCategoryKey) (PeriodCategory, error) {
	row := q.db.QueryRowContext(ctx, getPeriodCategory, arg.PeriodID, arg.Label)
	var i PeriodCategory
	err := row.Scan(&i.PeriodID, &i.Label, &i.Views, &i.Visitors)
	return i, err
}

const updatePeriodCategory = `update period_categories set views = ?, visitors = ?
where period_id = ? and label = ?`

func (q *Queries) UpdatePeriodCategory(ctx context.Context, arg PeriodCategory) error {
	_, err := q.db.ExecContext(ctx, updatePeriodCategory, arg.Views, arg.Visitors, arg.PeriodID, arg.Label)
	return err
}

const listPeriodCategories = `select period_id, label, views, visitors from period_categories
where period_id = ? order by views desc, label`

func (q *Queries) ListPeriodCategories(ctx context.Context, periodID int64) ([]PeriodCategory, error) {
	rows, err := q.db.QueryContext(ctx, listPeriodCategories, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PeriodCategory
	for rows.Next() {
		var i PeriodCategory
		if err := rows.Scan(&i.PeriodID, &i.Label, &i.Views, &i.Visitors); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// period items

const createPeriodItem = `insert or ignore into period_items(period_id, item_ref) values (?, ?)`

type PeriodItemKey struct {
	PeriodID int64
	ItemRef  int64
}

func (q *Queries) CreatePeriodItem(ctx context.Context, arg PeriodItemKey) error {
	_, err := q.db.ExecContext(ctx, createPeriodItem, arg.PeriodID, arg.ItemRef)
	return err
}

const getPeriodItem = `select period_id, item_ref, views, visitors from period_items
where period_id = ? and item_ref = ?`

func (q *Queries) GetPeriodItem(ctx context.Context, arg PeriodItemKey) (PeriodItem, error) {
	row := q.db.QueryRowContext(ctx, getPeriodItem, arg.PeriodID, arg.ItemRef)
	var i PeriodItem
	err := row.Scan(&i.PeriodID, &i.ItemRef, &i.Views, &i.Visitors)
	return i, err
}

const updatePeriodItem = `update period_items set views = ?, visitors = ?
where period_id = ? and item_ref = ?`

func (q *Queries) UpdatePeriodItem(ctx context.Context, arg PeriodItem) error {
	_, err := q.db.ExecContext(ctx, updatePeriodItem, arg.Views, arg.Visitors, arg.PeriodID, arg.ItemRef)
	return err
}

const listPeriodItems = `select p.period_id, p.item_ref, p.views, p.visitors, coalesce(i.title, '')
from period_items p left join items i on i.ref = p.item_ref
where p.period_id = ? order by p.views desc, p.item_ref`

type ListPeriodItemsRow struct {
	PeriodItem
	Title string
}

func (q *Queries) ListPeriodItems(ctx context.Context, periodID int64) ([]ListPeriodItemsRow, error) {
	rows, err := q.db.QueryContext(ctx, listPeriodItems, periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPeriodItemsRow
	for rows.Next() {
		var i ListPeriodItemsRow
		if err := rows.Scan(&i.PeriodID, &i.ItemRef, &i.Views, &i.Visitors, &i.Title); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// period item categories

const createPeriodItemCategory = `insert or ignore into period_item_categories(period_id, item_ref, label)
values (?, ?, ?)`

type PeriodItemCategoryKey struct {
	PeriodID int64
	ItemRef  int64
	Label    string
}

func (q *Queries) CreatePeriodItemCategory(ctx context.Context, arg PeriodItemCategoryKey) error {
	_, err := q.db.ExecContext(ctx, createPeriodItemCategory, arg.PeriodID, arg.ItemRef, arg.Label)
	return err
}

const getPeriodItemCategory = `select period_id, item_ref, label, views, visitors from period_item_categories
where period_id = ? and item_ref = ? and label = ?`

func (q *Queries) GetPeriodItemCategory(ctx context.Context, arg PeriodItemCategoryKey) (PeriodItemCategory, error) {
	row := q.db.QueryRowContext(ctx, getPeriodItemCategory, arg.PeriodID, arg.ItemRef, arg.Label)
	var i PeriodItemCategory
	err := row.Scan(&i.PeriodID, &i.ItemRef, &i.Label, &i.Views, &i.Visitors)
	return i, err
}

const updatePeriodItemCategory = `update period_item_categories set views = ?, visitors = ?
where period_id = ? and item_ref = ? and label = ?`

func (q *Queries) UpdatePeriodItemCategory(ctx context.Context, arg PeriodItemCategory) error {
	_, err := q.db.ExecContext(ctx, updatePeriodItemCategory,
		arg.Views,
		arg.Visitors,
		arg.PeriodID,
		arg.ItemRef,
		arg.Label,
	)
	return err
}

// period chapters

const createPeriodChapter = `insert or ignore into period_chapters(period_id, item_ref, chapter) values (?, ?, ?)`

type PeriodChapterKey struct {
	PeriodID int64
	ItemRef  int64
	Chapter  int64
}

func (q *Queries) CreatePeriodChapter(ctx context.Context, arg PeriodChapterKey) error {
	_, err := q.db.ExecContext(ctx, createPeriodChapter, arg.PeriodID, arg.ItemRef, arg.Chapter)
	return err
}

const getPeriodChapter = `select period_id, item_ref, chapter, views, visitors from period_chapters
where period_id = ? and item_ref = ? and chapter = ?`

func (q *Queries) GetPeriodChapter(ctx context.Context, arg PeriodChapterKey) (PeriodChapter, error) {
	row := q.db.QueryRowContext(ctx, getPeriodChapter, arg.PeriodID, arg.ItemRef, arg.Chapter)
	var i PeriodChapter
	err := row.Scan(&i.PeriodID, &i.ItemRef, &i.Chapter, &i.Views, &i.Visitors)
	return i, err
}

const updatePeriodChapter = `update period_chapters set views = ?, visitors = ?
where period_id = ? and item_ref = ? and chapter = ?`

func (q *Queries) UpdatePeriodChapter(ctx context.Context, arg PeriodChapter) error {
	_, err := q.db.ExecContext(ctx, updatePeriodChapter,
		arg.Views,
		arg.Visitors,
		arg.PeriodID,
		arg.ItemRef,
		arg.Chapter,
	)
	return err
}

// period chapter categories

const createPeriodChapterCategory = `insert or ignore into period_chapter_categories(period_id, item_ref, chapter, label)
values (?, ?, ?, ?)`

type PeriodChapterCategoryKey struct {
	PeriodID int64
	ItemRef  int64
	Chapter  int64
	Label    string
}

func (q *Queries) CreatePeriodChapterCategory(ctx context.Context, arg PeriodChapterCategoryKey) error {
	_, err := q.db.ExecContext(ctx, createPeriodChapterCategory,
		arg.PeriodID,
		arg.ItemRef,
		arg.Chapter,
		arg.Label,
	)
	return err
}

const getPeriodChapterCategory = `select period_id, item_ref, chapter, label, views, visitors
from period_chapter_categories
where period_id = ? and item_ref = ? and chapter = ? and label = ?`

func (q *Queries) GetPeriodChapterCategory(ctx context.Context, arg PeriodChapterCategoryKey) (PeriodChapterCategory, error) {
	row := q.db.QueryRowContext(ctx, getPeriodChapterCategory,
		arg.PeriodID,
		arg.ItemRef,
		arg.Chapter,
		arg.Label,
	)
	var i PeriodChapterCategory
	err := row.Scan(&i.PeriodID, &i.ItemRef, &i.Chapter, &i.Label, &i.Views, &i.Visitors)
	return i, err
}

const updatePeriodChapterCategory = `update period_chapter_categories set views = ?, visitors = ?
where period_id = ? and item_ref = ? and chapter = ? and label = ?`

func (q *Queries) UpdatePeriodChapterCategory(ctx context.Context, arg PeriodChapterCategory) error {
	_, err := q.db.ExecContext(ctx, updatePeriodChapterCategory,
		arg.Views,
		arg.Visitors,
		arg.PeriodID,
		arg.ItemRef,
		arg.Chapter,
		arg.Label,
	)
	return err
}

// users

const getUser = `select id, country, date_added from users where id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var i User
	err := row.Scan(&i.ID, &i.Country, &i.DateAdded)
	return i, err
}

const createUser = `insert or ignore into users(id, country, date_added) values (?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, arg User) error {
	_, err := q.db.ExecContext(ctx, createUser, arg.ID, arg.Country, arg.DateAdded)
	return err
}

const updateUserCountry = `update users set country = ? where id = ?`

type UpdateUserCountryParams struct {
	Country string
	ID      int64
}

func (q *Queries) UpdateUserCountry(ctx context.Context, arg UpdateUserCountryParams) error {
	_, err := q.db.ExecContext(ctx, updateUserCountry, arg.Country, arg.ID)
	return err
}

const listUsersWithCountry = `select id, country, date_added from users where country = ? order by id`

func (q *Queries) ListUsersWithCountry(ctx context.Context, country string) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsersWithCountry, country)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		var i User
		if err := rows.Scan(&i.ID, &i.Country, &i.DateAdded); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAliases = `select user_id, name, created_at from aliases where user_id = ? order by created_at, rowid`

func (q *Queries) ListAliases(ctx context.Context, userID int64) ([]Alias, error) {
	rows, err := q.db.QueryContext(ctx, listAliases, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Alias
	for rows.Next() {
		var i Alias
		if err := rows.Scan(&i.UserID, &i.Name, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createAlias = `insert or ignore into aliases(user_id, name, created_at) values (?, ?, ?)`

func (q *Queries) CreateAlias(ctx context.Context, arg Alias) error {
	_, err := q.db.ExecContext(ctx, createAlias, arg.UserID, arg.Name, arg.CreatedAt)
	return err
}

// membership

func (q *Queries) listIds(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) listCounts(ctx context.Context, query string) ([]MembershipCount, error) {
	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MembershipCount
	for rows.Next() {
		var i MembershipCount
		if err := rows.Scan(&i.ItemRef, &i.Count); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type MembershipParams struct {
	ItemRef int64
	UserID  int64
	AddedAt int64
}

const listFavorites = `select user_id from favorites where item_ref = ? order by user_id`

func (q *Queries) ListFavorites(ctx context.Context, itemRef int64) ([]int64, error) {
	return q.listIds(ctx, listFavorites, itemRef)
}

const addFavorite = `insert or ignore into favorites(item_ref, user_id, added_at) values (?, ?, ?)`

func (q *Queries) AddFavorite(ctx context.Context, arg MembershipParams) error {
	_, err := q.db.ExecContext(ctx, addFavorite, arg.ItemRef, arg.UserID, arg.AddedAt)
	return err
}

const removeFavorite = `delete from favorites where item_ref = ? and user_id = ?`

func (q *Queries) RemoveFavorite(ctx context.Context, arg MembershipParams) error {
	_, err := q.db.ExecContext(ctx, removeFavorite, arg.ItemRef, arg.UserID)
	return err
}

const countFavorites = `select item_ref, count(*) from favorites group by item_ref order by item_ref`

func (q *Queries) CountFavorites(ctx context.Context) ([]MembershipCount, error) {
	return q.listCounts(ctx, countFavorites)
}

const listFollows = `select user_id from follows where item_ref = ? order by user_id`

func (q *Queries) ListFollows(ctx context.Context, itemRef int64) ([]int64, error) {
	return q.listIds(ctx, listFollows, itemRef)
}

const addFollow = `insert or ignore into follows(item_ref, user_id, added_at) values (?, ?, ?)`

func (q *Queries) AddFollow(ctx context.Context, arg MembershipParams) error {
	_, err := q.db.ExecContext(ctx, addFollow, arg.ItemRef, arg.UserID, arg.AddedAt)
	return err
}

const removeFollow = `delete from follows where item_ref = ? and user_id = ?`

func (q *Queries) RemoveFollow(ctx context.Context, arg MembershipParams) error {
	_, err := q.db.ExecContext(ctx, removeFollow, arg.ItemRef, arg.UserID)
	return err
}

const countFollows = `select item_ref, count(*) from follows group by item_ref order by item_ref`

func (q *Queries) CountFollows(ctx context.Context) ([]MembershipCount, error) {
	return q.listCounts(ctx, countFollows)
}

const listOwnerFavorites = `select user_id from owner_favorites order by user_id`

func (q *Queries) ListOwnerFavorites(ctx context.Context) ([]int64, error) {
	return q.listIds(ctx, listOwnerFavorites)
}

const addOwnerFavorite = `insert or ignore into owner_favorites(user_id, added_at) values (?, ?)`

func (q *Queries) AddOwnerFavorite(ctx context.Context, arg MembershipParams) error {
	_, err := q.db.ExecContext(ctx, addOwnerFavorite, arg.UserID, arg.AddedAt)
	return err
}

const removeOwnerFavorite = `delete from owner_favorites where user_id = ?`

func (q *Queries) RemoveOwnerFavorite(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, removeOwnerFavorite, userID)
	return err
}

const listOwnerFollows = `select user_id from owner_follows order by user_id`

func (q *Queries) ListOwnerFollows(ctx context.Context) ([]int64, error) {
	return q.listIds(ctx, listOwnerFollows)
}

const addOwnerFollow = `insert or ignore into owner_follows(user_id, added_at) values (?, ?)`

func (q *Queries) AddOwnerFollow(ctx context.Context, arg MembershipParams) error {
	_, err := q.db.ExecContext(ctx, addOwnerFollow, arg.UserID, arg.AddedAt)
	return err
}

const removeOwnerFollow = `delete from owner_follows where user_id = ?`

func (q *Queries) RemoveOwnerFollow(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, removeOwnerFollow, userID)
	return err
}

// comments

const insertComment = `insert or ignore into comments(item_ref, chapter, author_id, author_name, body, posted_at)
values (?, ?, ?, ?, ?, ?)`

// InsertComment reports whether the comment was not already stored.
func (q *Queries) InsertComment(ctx context.Context, arg Comment) (bool, error) {
	res, err := q.db.ExecContext(ctx, insertComment,
		arg.ItemRef,
		arg.Chapter,
		arg.AuthorID,
		arg.AuthorName,
		arg.Body,
		arg.PostedAt,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

const countComments = `select count(*) from comments where item_ref = ?`

func (q *Queries) CountComments(ctx context.Context, itemRef int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countComments, itemRef).Scan(&count)
	return count, err
}

// ao3

const createAo3Work = `insert or ignore into ao3_works(title) values (?)`

func (q *Queries) CreateAo3Work(ctx context.Context, title string) error {
	_, err := q.db.ExecContext(ctx, createAo3Work, title)
	return err
}

const getAo3Work = `select title, ref, hits, kudos, comments, bookmarks from ao3_works where title = ?`

func (q *Queries) GetAo3Work(ctx context.Context, title string) (Ao3Work, error) {
	row := q.db.QueryRowContext(ctx, getAo3Work, title)
	var i Ao3Work
	err := row.Scan(&i.Title, &i.Ref, &i.Hits, &i.Kudos, &i.Comments, &i.Bookmarks)
	return i, err
}

const updateAo3Work = `update ao3_works set ref = ?, hits = ?, kudos = ?, comments = ?, bookmarks = ?
where title = ?`

func (q *Queries) UpdateAo3Work(ctx context.Context, arg Ao3Work) error {
	_, err := q.db.ExecContext(ctx, updateAo3Work,
		arg.Ref,
		arg.Hits,
		arg.Kudos,
		arg.Comments,
		arg.Bookmarks,
		arg.Title,
	)
	return err
}
