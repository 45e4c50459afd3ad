package retention

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/tmater/waitlist/internal/proto"
)

// Cutoffs are the boundary dates for one evaluation. Entries whose effective
// date is strictly before the applicable cutoff are expired.
type Cutoffs struct {
	Standard civil.Date // today minus one month
	Extended civil.Date // today minus one year
}

// Result is the outcome of Evaluate.
type Result struct {
	Cutoffs
	Expired []proto.WaitlistEntry
}

// CutoffsFor computes the retention cutoffs relative to today. Month and year
// arithmetic normalizes overflow the way time.AddDate does (Mar 31 minus one
// month is Mar 2 or Mar 3).
func CutoffsFor(today civil.Date) Cutoffs {
	t := today.In(time.UTC)
	return Cutoffs{
		Standard: civil.DateOf(t.AddDate(0, -1, 0)),
		Extended: civil.DateOf(t.AddDate(-1, 0, 0)),
	}
}

// Evaluate returns the entries that are past their retention cutoff, in input
// order.
func Evaluate(today civil.Date, entries []proto.WaitlistEntry) Result {
	res := Result{Cutoffs: CutoffsFor(today)}
	for _, e := range entries {
		if IsExpired(e, res.Cutoffs) {
			res.Expired = append(res.Expired, e)
		}
	}
	return res
}

// IsExpired reports whether e is past the cutoff its retention class selects.
func IsExpired(e proto.WaitlistEntry, c Cutoffs) bool {
	effective, ok := EffectiveDate(e)
	if !ok {
		return false // never delete on missing data
	}
	cutoff := c.Standard
	if e.ExtendedRetention {
		cutoff = c.Extended
	}
	return effective.Before(cutoff)
}

// EffectiveDate is the end of the move-in window when set, otherwise the
// move-in date. A set but unparseable window end is not replaced by the
// start date.
func EffectiveDate(e proto.WaitlistEntry) (civil.Date, bool) {
	if e.MoveInDateEnd != nil && strings.TrimSpace(*e.MoveInDateEnd) != "" {
		return ParseDate(*e.MoveInDateEnd)
	}
	return ParseDate(e.MoveInDate)
}

// timestampLayouts are the full timestamps a date column may arrive as. The
// date is taken as written, in the timestamp's own offset.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseDate reads a calendar date from "2006-01-02" or from a complete
// timestamp. Anything else, including a date followed by trailing text, is
// not a date.
func ParseDate(s string) (civil.Date, bool) {
	s = strings.TrimSpace(s)
	if len(s) > len("2006-01-02") {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return civil.DateOf(t), true
			}
		}
		return civil.Date{}, false
	}
	d, err := civil.ParseDate(s)
	if err != nil || !d.IsValid() {
		return civil.Date{}, false
	}
	return d, true
}
