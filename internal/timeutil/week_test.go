package timeutil

import (
	"testing"
	"time"
)

func TestWeekWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{
			"mid-week wednesday",
			time.Date(2025, 3, 12, 14, 30, 0, 0, time.UTC), // Wednesday
			time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),    // previous Sunday
		},
		{
			"sunday maps to itself",
			time.Date(2025, 3, 9, 8, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		},
		{
			"saturday end of week",
			time.Date(2025, 3, 15, 23, 59, 59, 0, time.UTC),
			time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			start, end := WeekWindow(tc.now)
			if !start.Equal(tc.wantStart) {
				t.Errorf("Expected start %v, got %v", tc.wantStart, start)
			}
			if !end.Equal(tc.wantStart.AddDate(0, 0, 7)) {
				t.Errorf("Expected end %v, got %v", tc.wantStart.AddDate(0, 0, 7), end)
			}
		})
	}
}

func TestWeekWindowContainsNow(t *testing.T) {
	now := time.Date(2025, 6, 20, 10, 0, 0, 0, time.UTC)
	start, end := WeekWindow(now)
	if now.Before(start) || !now.Before(end) {
		t.Errorf("now %v outside its own week window [%v, %v)", now, start, end)
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 1, 3, 0, 0, 1, 0, time.UTC)
	b := time.Date(2025, 1, 3, 23, 59, 59, 0, time.UTC)
	c := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)

	if !SameDay(a, b) {
		t.Error("Expected same calendar day for a and b")
	}
	if SameDay(b, c) {
		t.Error("Expected different calendar days for b and c")
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want int
	}{
		{"same day", time.Date(2025, 1, 3, 1, 0, 0, 0, time.UTC), time.Date(2025, 1, 3, 23, 0, 0, 0, time.UTC), 0},
		{"adjacent days late to early", time.Date(2025, 1, 3, 23, 0, 0, 0, time.UTC), time.Date(2025, 1, 4, 0, 30, 0, 0, time.UTC), 1},
		{"month boundary", time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC), time.Date(2025, 2, 2, 12, 0, 0, 0, time.UTC), 2},
		{"reversed is negative", time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), -2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysBetween(tc.a, tc.b); got != tc.want {
				t.Errorf("Expected %d, got %d", tc.want, got)
			}
		})
	}
}
