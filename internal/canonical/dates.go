package canonical

import (
	"strings"
	"time"
)

// Month a run is assumed to begin in when only a semester label is known.
var semesterStartMonth = map[string]time.Month{
	"january iap": time.January,
	"iap":         time.January,
	"spring":      time.January,
	"summer":      time.June,
	"fall":        time.September,
}

// BestStartDate derives the most useful start date for a run: the enrollment
// window wins, then the explicit window, then a semester/year heuristic.
func BestStartDate(r *Run) *time.Time {
	if r.EnrollmentStart != nil {
		return r.EnrollmentStart
	}
	if r.StartDate != nil {
		return r.StartDate
	}
	return semesterDate(r.Semester, r.Year)
}

// BestEndDate mirrors BestStartDate for the end of the run.
func BestEndDate(r *Run) *time.Time {
	if r.EnrollmentEnd != nil {
		return r.EnrollmentEnd
	}
	return r.EndDate
}

func semesterDate(semester string, year *int) *time.Time {
	if year == nil {
		return nil
	}
	month := time.January
	if m, ok := semesterStartMonth[strings.ToLower(strings.TrimSpace(semester))]; ok {
		month = m
	}
	d := time.Date(*year, month, 1, 0, 0, 0, 0, time.UTC)
	return &d
}
