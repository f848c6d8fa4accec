package client

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// GroupByMonth buckets images under their "YYYY-MM" month key. Order
// within a bucket follows the input order.
func GroupByMonth(images []ImageData) map[string][]ImageData {
	grouped := make(map[string][]ImageData)
	for _, img := range images {
		grouped[img.MonthYear] = append(grouped[img.MonthYear], img)
	}
	return grouped
}

// SortedMonths returns the keys of grouped in descending order, newest
// month first. The "YYYY-MM" format makes plain string comparison give
// chronological order.
func SortedMonths(grouped map[string][]ImageData) []string {
	months := make([]string, 0, len(grouped))
	for m := range grouped {
		months = append(months, m)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// SectionIndex returns the position of monthYear within the sorted month
// list, or -1 when the month has no images. Callers use it to jump to a
// month's section the way the web gallery scrolls to a month header.
func SectionIndex(months []string, monthYear string) int {
	for i, m := range months {
		if m == monthYear {
			return i
		}
	}
	return -1
}

// MonthName renders a "YYYY-MM" key as "January 2006".
func MonthName(monthYear string) string {
	t, ok := parseMonthKey(monthYear)
	if !ok {
		return monthYear
	}
	return t.Format("January 2006")
}

// MonthShort renders a "YYYY-MM" key as "01/06".
func MonthShort(monthYear string) string {
	t, ok := parseMonthKey(monthYear)
	if !ok {
		return monthYear
	}
	return t.Format("01/06")
}

func parseMonthKey(monthYear string) (time.Time, bool) {
	yearStr, monthStr, found := strings.Cut(monthYear, "-")
	if !found {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
}
