package db

type Item struct {
	Ref   int64
	Title string
}

type Chapter struct {
	ChapterRef int64
	ItemRef    int64
	Number     int64
	Title      string
	Words      int64
}

type Legacy struct {
	ItemRef     int64
	Chapters    int64
	Reviews     int64
	Views       int64
	Communities int64
	Favorites   int64
	Follows     int64
}

type Period struct {
	ID    int64
	Year  int64
	Month int64
}

type PeriodTotal struct {
	PeriodID int64
	Views    int64
	Visitors int64
}

type PeriodCategory struct {
	PeriodID int64
	Label    string
	Views    int64
	Visitors int64
}

type PeriodItem struct {
	PeriodID int64
	ItemRef  int64
	Views    int64
	Visitors int64
}

type PeriodItemCategory struct {
	PeriodID int64
	ItemRef  int64
	Label    string
	Views    int64
	Visitors int64
}

type PeriodChapter struct {
	PeriodID int64
	ItemRef  int64
	Chapter  int64
	Views    int64
	Visitors int64
}

type PeriodChapterCategory struct {
	PeriodID int64
	ItemRef  int64
	Chapter  int64
	Label    string
	Views    int64
	Visitors int64
}

type User struct {
	ID        int64
	Country   string
	DateAdded string
}

type Alias struct {
	UserID    int64
	Name      string
	CreatedAt int64
}

type Comment struct {
	ID         int64
	ItemRef    int64
	Chapter    int64
	AuthorID   int64
	AuthorName string
	Body       string
	PostedAt   int64
}

type Ao3Work struct {
	Title     string
	Ref       int64
	Hits      int64
	Kudos     int64
	Comments  int64
	Bookmarks int64
}

type MembershipCount struct {
	ItemRef int64
	Count   int64
}
