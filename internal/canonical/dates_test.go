package canonical

import (
	"testing"
	"time"
)

func dt(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestBestStartDateFallsBackToStartDate(t *testing.T) {
	run := &Run{StartDate: dt(2023, time.March, 15)}
	got := BestStartDate(run)
	if got == nil || !got.Equal(*run.StartDate) {
		t.Fatalf("best start date: want=%v got=%v", run.StartDate, got)
	}
}

func TestBestStartDatePrefersEnrollmentStart(t *testing.T) {
	run := &Run{
		EnrollmentStart: dt(2023, time.February, 1),
		StartDate:       dt(2023, time.March, 15),
	}
	got := BestStartDate(run)
	if got == nil || !got.Equal(*run.EnrollmentStart) {
		t.Fatalf("best start date: want=%v got=%v", run.EnrollmentStart, got)
	}
}

func TestBestStartDateSemesterHeuristic(t *testing.T) {
	year := 2021
	cases := []struct {
		semester string
		want     time.Time
	}{
		{"Fall", time.Date(2021, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"Spring", time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{"Summer", time.Date(2021, time.June, 1, 0, 0, 0, 0, time.UTC)},
		{"January IAP", time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{"", time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		t.Run(c.semester, func(t *testing.T) {
			got := BestStartDate(&Run{Semester: c.semester, Year: &year})
			if got == nil || !got.Equal(c.want) {
				t.Fatalf("semester %q: want=%v got=%v", c.semester, c.want, got)
			}
		})
	}
}

func TestBestStartDateNilWithoutAnySignal(t *testing.T) {
	if got := BestStartDate(&Run{Semester: "Fall"}); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestBestEndDatePrefersEnrollmentEnd(t *testing.T) {
	run := &Run{
		EnrollmentEnd: dt(2023, time.June, 30),
		EndDate:       dt(2023, time.May, 20),
	}
	got := BestEndDate(run)
	if got == nil || !got.Equal(*run.EnrollmentEnd) {
		t.Fatalf("best end date: want=%v got=%v", run.EnrollmentEnd, got)
	}
	if got := BestEndDate(&Run{EndDate: dt(2023, time.May, 20)}); got == nil || got.Day() != 20 {
		t.Fatalf("fallback to end date failed: %v", got)
	}
}
