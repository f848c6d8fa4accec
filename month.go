package gallerd

import (
	"sort"
	"time"
)

const monthKeyLayout = "2006-01"

// MonthKey returns the YYYY-MM grouping key for a timestamp.
func MonthKey(t time.Time) string {
	return t.Format(monthKeyLayout)
}

// IsValidMonthKey reports whether s is a well-formed YYYY-MM key.
func IsValidMonthKey(s string) bool {
	if len(s) != len(monthKeyLayout) {
		return false
	}
	_, err := time.Parse(monthKeyLayout, s)
	return err == nil
}

// MonthName returns the human-readable heading for a month key,
// e.g. "2024-03" -> "March 2024". Invalid keys are returned unchanged.
func MonthName(key string) string {
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}

// MonthShort returns the compact navigation label for a month key,
// e.g. "2024-03" -> "03/24". Invalid keys are returned unchanged.
func MonthShort(key string) string {
	t, err := time.Parse(monthKeyLayout, key)
	if err != nil {
		return key
	}
	return t.Format("01/06")
}

// SortMonthsDesc sorts month keys in descending lexicographic order, which
// for YYYY-MM keys is reverse chronological.
func SortMonthsDesc(keys []string) {
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
}
