package sheets

import (
	"strconv"
	"time"

	"github.com/tmater/waitlist/internal/daterange"
)

// Dashboard sheet layout: column 0 is the event date, column 1 its category.
const (
	colEventDate = 0
	colCategory  = 1
)

// Window is the count of dashboard rows falling within one date range.
type Window struct {
	Label      string         `json:"label"`
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
}

type Summary struct {
	YearToDate   Window `json:"yearToDate"`
	CurrentWeek  Window `json:"currentWeek"`
	PreviousWeek Window `json:"previousWeek"`
}

// Dashboard counts rows per reporting window relative to now. Rows without a
// parseable date are not counted anywhere.
func Dashboard(t *Table, now time.Time) Summary {
	ytd := daterange.YearToDate(now)
	cur := daterange.CurrentWeek(now)
	prev := daterange.PreviousWeek(now)

	s := Summary{
		YearToDate:   newWindow(strconv.Itoa(now.Year())),
		CurrentWeek:  newWindow(daterange.FormatRange(cur)),
		PreviousWeek: newWindow(daterange.FormatRange(prev)),
	}
	for _, r := range t.Rows {
		raw := r.Cell(colEventDate).Raw()
		category := r.Cell(colCategory).Text()
		if category == "" {
			category = "Uncategorized"
		}
		if daterange.InRange(raw, ytd) {
			s.YearToDate.add(category)
		}
		if daterange.InRange(raw, cur) {
			s.CurrentWeek.add(category)
		}
		if daterange.InRange(raw, prev) {
			s.PreviousWeek.add(category)
		}
	}
	return s
}

func newWindow(label string) Window {
	return Window{Label: label, ByCategory: map[string]int{}}
}

func (w *Window) add(category string) {
	w.Total++
	w.ByCategory[category]++
}
