package scrape

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Scraped course pages print session dates in one of three forms:
//
//	Jun 18-19, 2020             both days in one month
//	Jun 24-Aug 11, 2020         spanning months within one year
//	Dec 21, 2020-Jan 10, 2021   spanning a year boundary
//
// The grammars are tried in that order; the first match wins. Anything else
// parses to no dates rather than a guess.
var (
	sameMonthRange = regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2})\s*[-–]\s*(\d{1,2}),?\s+(\d{4})$`)
	sameYearRange  = regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2})\s*[-–]\s*([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})$`)
	crossYearRange = regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})\s*[-–]\s*([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})$`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseDateRange extracts the start and end dates of a printed session range.
// Both results are nil when the text matches none of the known grammars.
func ParseDateRange(text string) (start, end *time.Time) {
	text = strings.TrimSpace(text)

	if m := sameMonthRange.FindStringSubmatch(text); m != nil {
		month, ok := monthByName(m[1])
		if !ok {
			return nil, nil
		}
		year := atoi(m[4])
		return date(year, month, atoi(m[2])), date(year, month, atoi(m[3]))
	}

	if m := sameYearRange.FindStringSubmatch(text); m != nil {
		startMonth, ok1 := monthByName(m[1])
		endMonth, ok2 := monthByName(m[3])
		if !ok1 || !ok2 {
			return nil, nil
		}
		year := atoi(m[5])
		return date(year, startMonth, atoi(m[2])), date(year, endMonth, atoi(m[4]))
	}

	if m := crossYearRange.FindStringSubmatch(text); m != nil {
		startMonth, ok1 := monthByName(m[1])
		endMonth, ok2 := monthByName(m[4])
		if !ok1 || !ok2 {
			return nil, nil
		}
		return date(atoi(m[3]), startMonth, atoi(m[2])), date(atoi(m[6]), endMonth, atoi(m[5]))
	}

	return nil, nil
}

func monthByName(name string) (time.Month, bool) {
	name = strings.ToLower(name)
	if len(name) < 3 {
		return 0, false
	}
	m, ok := months[name[:3]]
	return m, ok
}

func date(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
