// Package report collects change lines grouped by key and prints them
// key by key.
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
)

const Divider = "----------"

// Report holds change lines per key. A line is printed at most once no
// matter how many times the report is flushed.
type Report[K cmp.Ordered] struct {
	out     io.Writer
	lines   map[K][]string
	printed map[K]int
	headed  map[K]bool
}

func New[K cmp.Ordered](out io.Writer) *Report[K] {
	return &Report[K]{
		out:     out,
		lines:   map[K][]string{},
		printed: map[K]int{},
		headed:  map[K]bool{},
	}
}

// Record appends line under key, keeping insertion order within the key.
func (r *Report[K]) Record(key K, line string) {
	r.lines[key] = append(r.lines[key], line)
}

// Lines returns a copy of the lines recorded under key.
func (r *Report[K]) Lines(key K) []string {
	return slices.Clone(r.lines[key])
}

// Len is the number of distinct keys recorded.
func (r *Report[K]) Len() int {
	return len(r.lines)
}

// Keys returns the recorded keys in sorted order.
func (r *Report[K]) Keys() []K {
	keys := make([]K, 0, len(r.lines))
	for k := range r.lines {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// needsHeading is false when a line already quotes the key, as in
// "'Title' views 1 to 2 (delta 1)".
func (r *Report[K]) needsHeading(key K) bool {
	quoted := fmt.Sprintf("'%v'", key)
	for _, line := range r.lines[key] {
		if strings.Contains(line, quoted) {
			return false
		}
	}
	return true
}

// FlushKey prints the lines of key that have not been printed yet. The
// key is printed as a heading the first time, unless a line already
// names it.
func (r *Report[K]) FlushKey(key K) error {
	lines := r.lines[key]
	start := r.printed[key]
	if start >= len(lines) {
		return nil
	}

	if !r.headed[key] {
		r.headed[key] = true
		if r.needsHeading(key) {
			if _, err := fmt.Fprintln(r.out, key); err != nil {
				return err
			}
		}
	}
	for _, line := range lines[start:] {
		if _, err := fmt.Fprintln(r.out, line); err != nil {
			return err
		}
	}
	r.printed[key] = len(lines)
	return nil
}

// Flush prints every key in sorted order followed by the divider.
func (r *Report[K]) Flush() error {
	for _, key := range r.Keys() {
		if err := r.FlushKey(key); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(r.out, Divider)
	return err
}
