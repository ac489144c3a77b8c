package storage

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/campusclinic/libs/db"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/apperr"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/booking"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/campusclinic/services/clinic-service/internal/scheduling"
)

// openTestStore connects to CLINIC_TEST_DATABASE_URL and applies the
// migrations. Tests are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("CLINIC_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CLINIC_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Open(ctx, url, db.Options{MaxConns: 16})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(pool.Close)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	if err := Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A second run must be a no-op.
	if err := Migrate(ctx, pool, logger); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
	return New(pool)
}

func seedAccount(t *testing.T, s *Store, role string) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()
	err := s.InTx(context.Background(), func(tx *Tx) error {
		if err := tx.InsertAccount(context.Background(), model.Account{
			ID: id, Email: id + "@example.test", FullName: "Test " + role, PasswordHash: "x",
			Role: role, Status: model.AccountActive, CreatedAt: now,
		}); err != nil {
			return err
		}
		if role == model.RoleStudent {
			return tx.InsertStudent(context.Background(), model.Student{AccountID: id, StudentNumber: "S-" + id[:8]})
		}
		return tx.UpsertStaff(context.Background(), model.Staff{AccountID: id, IsAdmin: role == model.RoleAdmin})
	})
	if err != nil {
		t.Fatalf("seed %s: %v", role, err)
	}
	return id
}

func TestExclusionConstraintRejectsOverlap(t *testing.T) {
	s := openTestStore(t)
	staff := seedAccount(t, s, model.RoleStaff)
	date := time.Now().UTC().AddDate(0, 0, 3)

	insert := func(start, end int) error {
		return s.InTx(context.Background(), func(tx *Tx) error {
			return tx.InsertSlot(context.Background(), model.TimeSlot{
				ID: uuid.NewString(), StaffID: staff, Date: date,
				StartMinute: start, EndMinute: end, Status: model.SlotAvailable, CreatedAt: time.Now().UTC(),
			})
		})
	}
	if err := insert(540, 600); err != nil {
		t.Fatalf("first slot: %v", err)
	}
	if err := insert(600, 660); err != nil {
		t.Fatalf("adjacent slot: %v", err)
	}
	if err := insert(570, 630); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict from exclusion constraint, got %v", err)
	}
}

func TestSchedulingServiceAgainstPostgres(t *testing.T) {
	s := openTestStore(t)
	staff := seedAccount(t, s, model.RoleStaff)
	svc := scheduling.NewService(s.Scheduling(), slog.New(slog.NewJSONHandler(io.Discard, nil)))
	day := time.Now().UTC().AddDate(0, 0, 5).Format("2006-01-02")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		accepted  int
		conflicts int
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AddSlot(context.Background(), staff, scheduling.SlotInput{Date: day, Start: "09:00", End: "10:00"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				accepted++
			} else if apperr.KindOf(err) == apperr.KindConflict {
				conflicts++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if accepted != 1 || conflicts != 5 {
		t.Fatalf("expected 1 accepted and 5 conflicts, got %d and %d", accepted, conflicts)
	}
}

func TestApprovalWorkflowAgainstPostgres(t *testing.T) {
	s := openTestStore(t)
	student := seedAccount(t, s, model.RoleStudent)
	staff := seedAccount(t, s, model.RoleStaff)
	svc := booking.NewService(s.Booking(), nil, slog.New(slog.NewJSONHandler(io.Discard, nil)))

	at := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	b, err := svc.Request(context.Background(), student, booking.RequestInput{At: &at, Reason: "checkup"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Decide(context.Background(), staff, booking.Decision{BookingID: b.ID, Action: booking.ActionApprove})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if apperr.KindOf(err) == apperr.KindConflict {
				conflicts++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if ok != 1 || conflicts != 3 {
		t.Fatalf("expected 1 approval and 3 conflicts, got %d and %d", ok, conflicts)
	}

	appts, err := s.ListAppointmentsByStudent(context.Background(), student)
	if err != nil {
		t.Fatalf("list appointments: %v", err)
	}
	if len(appts) != 1 || appts[0].BookingID != b.ID || !appts[0].ScheduledAt.Equal(at) {
		t.Fatalf("unexpected appointments: %+v", appts)
	}
	notes, err := s.ListNotifications(context.Background(), student, 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 || notes[0].AppointmentID != appts[0].ID {
		t.Fatalf("unexpected notifications: %+v", notes)
	}
}

func TestLookupOfMalformedIDIsNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.AppointmentByID(context.Background(), "not-a-uuid"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
	ok, err := s.StaffExists(context.Background(), "not-a-uuid")
	if err != nil || ok {
		t.Fatalf("expected false, nil; got %v, %v", ok, err)
	}
}
