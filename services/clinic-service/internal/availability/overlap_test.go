package availability

import (
	"testing"
	"time"

	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func slot(id, staff string, date time.Time, start, end string) model.TimeSlot {
	s, _ := ParseClock(start)
	e, _ := ParseClock(end)
	return model.TimeSlot{ID: id, StaffID: staff, Date: date, StartMinute: s, EndMinute: e, Status: model.SlotAvailable}
}

func TestAdjacentSlotsDoNotOverlap(t *testing.T) {
	d := day(2026, 3, 2)
	existing := []model.TimeSlot{slot("s1", "staff-1", d, "09:00", "10:00")}

	if _, found := FindOverlap("staff-1", d, Interval{Start: 600, End: 660}, existing); found {
		t.Fatal("[10:00,11:00) must not overlap [09:00,10:00)")
	}
	if _, found := FindOverlap("staff-1", d, Interval{Start: 480, End: 540}, existing); found {
		t.Fatal("[08:00,09:00) must not overlap [09:00,10:00)")
	}
}

func TestOverlappingSlotIsFound(t *testing.T) {
	d := day(2026, 3, 2)
	existing := []model.TimeSlot{slot("s1", "staff-1", d, "09:00", "10:30")}

	hit, found := FindOverlap("staff-1", d, Interval{Start: 600, End: 660}, existing)
	if !found || hit.ID != "s1" {
		t.Fatalf("expected overlap with s1, got %+v found=%v", hit, found)
	}
	if _, found := FindOverlap("staff-2", d, Interval{Start: 600, End: 660}, existing); found {
		t.Fatal("other staff members do not conflict")
	}
	if _, found := FindOverlap("staff-1", day(2026, 3, 3), Interval{Start: 600, End: 660}, existing); found {
		t.Fatal("other dates do not conflict")
	}
}

func TestValidateCandidate(t *testing.T) {
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	if err := ValidateCandidate(day(2026, 3, 2), Interval{Start: 600, End: 600}, now); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for empty interval, got %v", err)
	}
	if err := ValidateCandidate(day(2026, 3, 2), Interval{Start: 660, End: 600}, now); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for reversed interval, got %v", err)
	}
	if err := ValidateCandidate(day(2026, 3, 1), Interval{Start: 540, End: 600}, now); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for past date, got %v", err)
	}
	// Today is allowed even when the clock window already passed.
	if err := ValidateCandidate(day(2026, 3, 2), Interval{Start: 540, End: 600}, now); err != nil {
		t.Fatalf("expected today to be accepted, got %v", err)
	}
	if err := ValidateCandidate(day(2026, 3, 2), Interval{Start: 1380, End: 1500}, now); err == nil {
		t.Fatal("expected interval past midnight to be rejected")
	}
}

func TestParseClock(t *testing.T) {
	good := map[string]int{"00:00": 0, "09:30": 570, "24:00": 1440}
	for in, want := range good {
		got, err := ParseClock(in)
		if err != nil || got != want {
			t.Fatalf("ParseClock(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, in := range []string{"9:30", "24:01", "12:60", "ab:cd", "+1:00", ""} {
		if _, err := ParseClock(in); err == nil {
			t.Fatalf("ParseClock(%q) should fail", in)
		}
	}
	if FormatClock(570) != "09:30" {
		t.Fatalf("FormatClock(570) = %q", FormatClock(570))
	}
}

func TestConflictsReportsEachPairOnce(t *testing.T) {
	d := day(2026, 3, 2)
	slots := []model.TimeSlot{
		slot("a", "staff-1", d, "09:00", "10:30"),
		slot("b", "staff-1", d, "10:00", "11:00"),
		slot("c", "staff-1", d, "11:00", "12:00"),
		slot("d", "staff-1", day(2026, 3, 3), "09:00", "12:00"),
	}
	got := Conflicts(slots)
	if len(got) != 1 || got[0].A.ID != "a" || got[0].B.ID != "b" {
		t.Fatalf("expected single a/b conflict, got %+v", got)
	}
}
