package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

const (
	DateLayout    = "2006-01-02"
	MinutesPerDay = 24 * 60
)

// Interval is a half-open [Start, End) range of minutes after midnight.
type Interval struct {
	Start int
	End   int
}

// Overlaps reports whether the two intervals share at least one minute.
// Touching intervals (a.End == b.Start) do not overlap.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

func SlotInterval(s model.TimeSlot) Interval {
	return Interval{Start: s.StartMinute, End: s.EndMinute}
}

// ParseClock parses "HH:MM" into minutes after midnight. "24:00" is accepted
// as the end of the day.
func ParseClock(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != 5 || raw[2] != ':' || !isDigits(raw[:2]) || !isDigits(raw[3:]) {
		return 0, fmt.Errorf("invalid time %q (want HH:MM)", raw)
	}
	h := int(raw[0]-'0')*10 + int(raw[1]-'0')
	m := int(raw[3]-'0')*10 + int(raw[4]-'0')
	if m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q (want HH:MM)", raw)
	}
	return h*60 + m, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseDate parses YYYY-MM-DD as midnight in loc.
func ParseDate(raw string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", raw)
	}
	return d, nil
}

// DateOf truncates t to midnight in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// SameDate compares calendar dates, ignoring time of day and location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ValidateCandidate checks a new slot before any overlap lookup: the interval
// must be well formed and the date must not be before today.
func ValidateCandidate(date time.Time, iv Interval, now time.Time) error {
	if iv.Start < 0 || iv.End > MinutesPerDay {
		return apperr.Validation("slot must lie within one day")
	}
	if iv.Start >= iv.End {
		return apperr.Validation("start time must be before end time")
	}
	today := DateOf(now, date.Location())
	if DateOf(date, date.Location()).Before(today) {
		return apperr.Validation("date must not be in the past")
	}
	return nil
}

// FindOverlap returns the first existing slot on the same staff and date
// whose interval overlaps the candidate.
func FindOverlap(staffID string, date time.Time, candidate Interval, existing []model.TimeSlot) (model.TimeSlot, bool) {
	for _, s := range existing {
		if s.StaffID != staffID || !SameDate(s.Date, date) {
			continue
		}
		if candidate.Overlaps(SlotInterval(s)) {
			return s, true
		}
	}
	return model.TimeSlot{}, false
}

// Conflict is a pair of slots of one staff member on one date that overlap.
type Conflict struct {
	A model.TimeSlot
	B model.TimeSlot
}

// Conflicts scans slots pairwise and reports every overlapping pair once,
// in input order.
func Conflicts(slots []model.TimeSlot) []Conflict {
	var out []Conflict
	for i := 0; i < len(slots); i++ {
		for j := i + 1; j < len(slots); j++ {
			a, b := slots[i], slots[j]
			if a.StaffID != b.StaffID || !SameDate(a.Date, b.Date) {
				continue
			}
			if SlotInterval(a).Overlaps(SlotInterval(b)) {
				out = append(out, Conflict{A: a, B: b})
			}
		}
	}
	return out
}
