package textutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrMalformedNumber = errors.New("malformed number")

var (
	innerWhitespace = regexp.MustCompile(`\s\s+`)
	// plain digits, or digits grouped in threes by commas
	countPattern = regexp.MustCompile(`^(\d+|\d{1,3}(,\d{3})+)$`)
)

// ParseCount turns a site-formatted count ("1,234", " 17 ", "") into an
// integer. Empty text is zero, signs are malformed.
func ParseCount(text string) (int64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	if !countPattern.MatchString(text) {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, text)
	}
	n, err := strconv.ParseInt(strings.ReplaceAll(text, ",", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedNumber, text)
	}
	return n, nil
}

// CollapseWhitespace trims the string and squeezes inner runs of
// whitespace into a single space.
func CollapseWhitespace(text string) string {
	text = strings.Trim(text, " \t\n\r")
	return innerWhitespace.ReplaceAllString(text, " ")
}

// Columns splits the text of a table row the same way the row is laid
// out in markup: one column per line.
func Columns(text string) []string {
	return strings.Split(text, "\n")
}

// Column returns the trimmed column at idx, or "" when the row is short.
func Column(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return strings.TrimSpace(cols[idx])
}
