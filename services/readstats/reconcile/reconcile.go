// Package reconcile diffs freshly scraped counts against their stored
// baseline, writing the new values back and reporting each change.
package reconcile

import (
	"fmt"
)

// Reporter receives change lines grouped by key.
type Reporter interface {
	Record(key, line string)
}

// MonthlyKey groups the month level lines.
const MonthlyKey = "Monthly"

func ItemLabel(title string) string {
	return fmt.Sprintf("'%s' ", title)
}

func LegacyLabel(title string) string {
	return fmt.Sprintf("'%s' legacy ", title)
}

func CountryLabel(country string) string {
	return fmt.Sprintf("country '%s': ", country)
}

func ChapterLabel(number int64, title string) string {
	return fmt.Sprintf("chapter %d: '%s' ", number, title)
}

func ChapterCountryLabel(number int64, title, country string) string {
	return fmt.Sprintf("chapter %d: '%s' for '%s' ", number, title, country)
}

// Field is one tracked count, Stored points into the baseline row.
type Field struct {
	Name    string
	Current int64
	Stored  *int64
}

// Counts is the field list for rows that track views and visitors.
func Counts(views, visitors int64, storedViews, storedVisitors *int64) []Field {
	return []Field{
		{Name: "views", Current: views, Stored: storedViews},
		{Name: "visitors", Current: visitors, Stored: storedVisitors},
	}
}

// Compare writes current into stored when they differ and records a
// change line under key. With catchUp set, a change away from a stored
// zero is written without a line.
func Compare(r Reporter, key, prefix, field string, current int64, stored *int64, catchUp bool) bool {
	old := *stored
	if current == old {
		return false
	}
	*stored = current
	if catchUp && old == 0 {
		return true
	}
	r.Record(key, fmt.Sprintf("%s%s %d to %d (delta %d)", prefix, field, old, current, current-old))
	return true
}

// CompareAll runs Compare over every field and reports whether any of
// them changed.
func CompareAll(r Reporter, key, prefix string, fields []Field, catchUp bool) bool {
	changed := false
	for _, f := range fields {
		if Compare(r, key, prefix, f.Name, f.Current, f.Stored, catchUp) {
			changed = true
		}
	}
	return changed
}
