package scrape

import (
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	day := func(y int, m time.Month, d int) *time.Time {
		v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	cases := []struct {
		name  string
		text  string
		start *time.Time
		end   *time.Time
	}{
		{"same month", "Jun 18-19, 2020", day(2020, time.June, 18), day(2020, time.June, 19)},
		{"same year", "Jun 24-Aug 11, 2020", day(2020, time.June, 24), day(2020, time.August, 11)},
		{"cross year", "Dec 21, 2020-Jan 10, 2021", day(2020, time.December, 21), day(2021, time.January, 10)},
		{"full month names", "June 18-19, 2020", day(2020, time.June, 18), day(2020, time.June, 19)},
		{"en dash", "Jun 18–19, 2020", day(2020, time.June, 18), day(2020, time.June, 19)},
		{"surrounding whitespace", "  Jun 18-19, 2020  ", day(2020, time.June, 18), day(2020, time.June, 19)},
		{"unknown month", "Foo 18-19, 2020", nil, nil},
		{"free text", "Dates to be announced", nil, nil},
		{"empty", "", nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := ParseDateRange(tc.text)
			if !equalTime(start, tc.start) {
				t.Errorf("start = %v, want %v", start, tc.start)
			}
			if !equalTime(end, tc.end) {
				t.Errorf("end = %v, want %v", end, tc.end)
			}
		})
	}
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
