package availability

import (
	"sort"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

const (
	KindRecurring = "recurring"
	KindSpecific  = "specific"
)

// Filter narrows an assembled schedule. Nil fields do not filter.
// From and To are inclusive dates. StartAfter and EndBefore bound the
// clock window an entry must fit in.
type Filter struct {
	Weekday    *time.Weekday
	From       *time.Time
	To         *time.Time
	Status     string
	StartAfter *int
	EndBefore  *int
}

// Entry is one row of an assembled schedule. Date is nil for recurring rows.
type Entry struct {
	Kind        string
	ID          string
	StaffID     string
	Weekday     time.Weekday
	Date        *time.Time
	StartMinute int
	EndMinute   int
	Status      string
}

type Assembled struct {
	Entries   []Entry
	Conflicts []Conflict
}

// Assemble merges recurring weekly windows with date-specific slots. Recurring
// entries come first ordered by weekday and start; specific entries follow
// ordered by date and start. Conflicts are reported for the specific slots
// that survive the filter.
func Assemble(recurring []model.Schedule, slots []model.TimeSlot, f Filter) Assembled {
	weekdays := weekdaysInRange(f.From, f.To)

	var rec []Entry
	for _, s := range recurring {
		if f.Weekday != nil && s.Weekday != *f.Weekday {
			continue
		}
		if weekdays != nil && !weekdays[s.Weekday] {
			continue
		}
		if !f.matchesWindow(s.StartMinute, s.EndMinute, s.Status) {
			continue
		}
		rec = append(rec, Entry{
			Kind:        KindRecurring,
			ID:          s.ID,
			StaffID:     s.StaffID,
			Weekday:     s.Weekday,
			StartMinute: s.StartMinute,
			EndMinute:   s.EndMinute,
			Status:      s.Status,
		})
	}
	sort.SliceStable(rec, func(i, j int) bool {
		if rec[i].Weekday != rec[j].Weekday {
			return rec[i].Weekday < rec[j].Weekday
		}
		if rec[i].StartMinute != rec[j].StartMinute {
			return rec[i].StartMinute < rec[j].StartMinute
		}
		return rec[i].ID < rec[j].ID
	})

	var kept []model.TimeSlot
	for _, s := range slots {
		if f.Weekday != nil && s.Date.Weekday() != *f.Weekday {
			continue
		}
		if f.From != nil && dateBefore(s.Date, *f.From) {
			continue
		}
		if f.To != nil && dateBefore(*f.To, s.Date) {
			continue
		}
		if !f.matchesWindow(s.StartMinute, s.EndMinute, s.Status) {
			continue
		}
		kept = append(kept, s)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if !SameDate(kept[i].Date, kept[j].Date) {
			return dateBefore(kept[i].Date, kept[j].Date)
		}
		if kept[i].StartMinute != kept[j].StartMinute {
			return kept[i].StartMinute < kept[j].StartMinute
		}
		return kept[i].ID < kept[j].ID
	})

	out := Assembled{Entries: rec}
	for _, s := range kept {
		d := s.Date
		out.Entries = append(out.Entries, Entry{
			Kind:        KindSpecific,
			ID:          s.ID,
			StaffID:     s.StaffID,
			Weekday:     s.Date.Weekday(),
			Date:        &d,
			StartMinute: s.StartMinute,
			EndMinute:   s.EndMinute,
			Status:      s.Status,
		})
	}
	out.Conflicts = Conflicts(kept)
	return out
}

func (f Filter) matchesWindow(start, end int, status string) bool {
	if f.Status != "" && status != f.Status {
		return false
	}
	if f.StartAfter != nil && start < *f.StartAfter {
		return false
	}
	if f.EndBefore != nil && end > *f.EndBefore {
		return false
	}
	return true
}

// weekdaysInRange returns the weekdays that occur in [from, to], or nil when
// the range does not restrict weekdays.
func weekdaysInRange(from, to *time.Time) map[time.Weekday]bool {
	if from == nil || to == nil {
		return nil
	}
	days := map[time.Weekday]bool{}
	if dateBefore(*to, *from) {
		return days
	}
	d := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7 && !d.After(end); i++ {
		days[d.Weekday()] = true
		d = d.AddDate(0, 0, 1)
	}
	return days
}

func dateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
