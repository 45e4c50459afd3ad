package daterange

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Range is an inclusive time window.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// YearToDate returns Jan 1 00:00:00.000 through Dec 31 23:59:59.999 of now's year.
func YearToDate(now time.Time) Range {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	end := endOfDay(time.Date(now.Year(), time.December, 31, 0, 0, 0, 0, now.Location()))
	return Range{Start: start, End: end}
}

// CurrentWeek returns the Friday-to-Thursday week containing now.
func CurrentWeek(now time.Time) Range {
	// Sunday=0 ... Saturday=6; Friday itself is offset 0.
	offset := (int(now.Weekday()) - int(time.Friday) + 7) % 7
	start := startOfDay(now).AddDate(0, 0, -offset)
	end := endOfDay(start.AddDate(0, 0, 6))
	return Range{Start: start, End: end}
}

// PreviousWeek returns CurrentWeek(now) shifted back seven days.
func PreviousWeek(now time.Time) Range {
	cur := CurrentWeek(now)
	return Range{Start: cur.Start.AddDate(0, 0, -7), End: cur.End.AddDate(0, 0, -7)}
}

func YearToDateNow() Range   { return YearToDate(time.Now()) }
func CurrentWeekNow() Range  { return CurrentWeek(time.Now()) }
func PreviousWeekNow() Range { return PreviousWeek(time.Now()) }

// Contains reports whether t lies within r, bounds included.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// InRange parses value and reports whether it falls inside r. Empty or
// unparseable values are never in range.
func InRange(value string, r Range) bool {
	t, ok := Parse(value, r.Start.Location())
	if !ok {
		return false
	}
	return r.Contains(t)
}

// InRangeTime is InRange for an already parsed, possibly missing, time.
func InRangeTime(t *time.Time, r Range) bool {
	if t == nil {
		return false
	}
	return r.Contains(*t)
}

var layouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"1/2/2006",
	"1/2/2006 15:04:05",
}

// Parse reads a date in any of the formats the sheets and the database
// produce, including gviz "Date(2024,0,15)" literals. Date-only values are
// interpreted in loc.
func Parse(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	if strings.HasPrefix(value, "Date(") {
		return parseGvizDate(value, loc)
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseGvizDate handles Date(y,m,d[,h,mi,s]) with a zero-based month.
func parseGvizDate(value string, loc *time.Location) (time.Time, bool) {
	inner := strings.TrimSuffix(strings.TrimPrefix(value, "Date("), ")")
	parts := strings.Split(inner, ",")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	nums := make([]int, 6)
	for i := 0; i < len(parts) && i < 6; i++ {
		n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	if nums[1] < 0 || nums[1] > 11 || nums[2] < 1 || nums[2] > 31 {
		return time.Time{}, false
	}
	return time.Date(nums[0], time.Month(nums[1]+1), nums[2], nums[3], nums[4], nums[5], 0, loc), true
}

// FormatDate renders t as "Jan 3".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%s %d", t.Month().String()[:3], t.Day())
}

// FormatRange renders r as "Jan 3 - Jan 9".
func FormatRange(r Range) string {
	return FormatDate(r.Start) + " - " + FormatDate(r.End)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), t.Location())
}
