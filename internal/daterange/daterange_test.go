package daterange

import (
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestYearToDate(t *testing.T) {
	r := YearToDate(time.Date(2024, time.June, 15, 13, 45, 0, 0, time.UTC))
	if !r.Start.Equal(day(2024, time.January, 1)) {
		t.Errorf("start: got %s", r.Start)
	}
	want := time.Date(2024, time.December, 31, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if !r.End.Equal(want) {
		t.Errorf("end: got %s, want %s", r.End, want)
	}
}

func TestCurrentWeek(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		// 2024-01-10 is a Wednesday.
		{"wednesday", time.Date(2024, time.January, 10, 9, 30, 0, 0, time.UTC), day(2024, time.January, 5)},
		{"friday is day zero", time.Date(2024, time.January, 12, 0, 0, 0, 0, time.UTC), day(2024, time.January, 12)},
		{"thursday is last day", time.Date(2024, time.January, 11, 23, 0, 0, 0, time.UTC), day(2024, time.January, 5)},
		{"saturday", day(2024, time.January, 13), day(2024, time.January, 12)},
		{"sunday", day(2024, time.January, 14), day(2024, time.January, 12)},
		{"across month boundary", day(2024, time.March, 2), day(2024, time.March, 1)},
		{"across year boundary", day(2025, time.January, 1), day(2024, time.December, 27)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CurrentWeek(tt.now)
			if !r.Start.Equal(tt.wantStart) {
				t.Fatalf("start: got %s, want %s", r.Start, tt.wantStart)
			}
			if r.Start.Weekday() != time.Friday {
				t.Errorf("start weekday: got %s", r.Start.Weekday())
			}
			if r.End.Weekday() != time.Thursday {
				t.Errorf("end weekday: got %s", r.End.Weekday())
			}
			if got := r.End.Sub(r.Start); got != 7*24*time.Hour-time.Millisecond {
				t.Errorf("span: got %s", got)
			}
			if !r.Contains(tt.now) {
				t.Errorf("range %s does not contain now %s", FormatRange(r), tt.now)
			}
		})
	}
}

func TestPreviousWeek_ShiftsSevenDays(t *testing.T) {
	for d := 0; d < 14; d++ {
		now := time.Date(2024, time.February, 20+d, 15, 0, 0, 0, time.UTC)
		cur := CurrentWeek(now)
		prev := PreviousWeek(now)
		if !prev.End.Equal(cur.End.AddDate(0, 0, -7)) {
			t.Errorf("now=%s: previous end %s, current end %s", now, prev.End, cur.End)
		}
		if !prev.Start.Equal(cur.Start.AddDate(0, 0, -7)) {
			t.Errorf("now=%s: previous start %s, current start %s", now, prev.Start, cur.Start)
		}
	}
}

func TestInRange(t *testing.T) {
	r := CurrentWeek(time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC))

	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"not a date", false},
		{"2024-13-45", false},
		{"2024-01-05", true},
		{"2024-01-11", true},
		{"2024-01-12", false},
		{"2024-01-04", false},
		{"1/8/2024", true},
		{"2024-01-08T10:00:00Z", true},
		{"Date(2024,0,9)", true},
		{"Date(2024,0,19)", false},
		{"Date(2024,x,9)", false},
	}

	for _, tt := range tests {
		if got := InRange(tt.value, r); got != tt.want {
			t.Errorf("InRange(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestInRangeTime_NilIsExcluded(t *testing.T) {
	r := YearToDate(day(2024, time.May, 1))
	if InRangeTime(nil, r) {
		t.Fatal("expected nil time to be out of range")
	}
	in := day(2024, time.May, 2)
	if !InRangeTime(&in, r) {
		t.Fatal("expected May 2 to be in year-to-date range")
	}
}

func TestFormatRange(t *testing.T) {
	r := Range{Start: day(2025, time.January, 3), End: day(2025, time.January, 9)}
	if got := FormatRange(r); got != "Jan 3 - Jan 9" {
		t.Errorf("FormatRange: got %q", got)
	}
	if got := FormatDate(day(2025, time.December, 25)); got != "Dec 25" {
		t.Errorf("FormatDate: got %q", got)
	}
}
