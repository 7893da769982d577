package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xelth-com/campusgate/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	// Named in-memory DB: shared across the pool's connections but
	// private to this test
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Visitor{}, &models.VisitorLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return New(db)
}

func register(t *testing.T, s *Store, name, contact string) *models.Visitor {
	t.Helper()
	v := &models.Visitor{
		Name:           name,
		ContactNumber:  contact,
		Address:        "12 College Road",
		PurposeOfVisit: "Meeting",
		Type:           models.TypeVisitor,
	}
	if _, err := s.CreateVisitor(context.Background(), v); err != nil {
		t.Fatalf("CreateVisitor: %v", err)
	}
	return v
}

func TestCreateAssignsIdentityOnce(t *testing.T) {
	s := testStore(t)
	v := register(t, s, "John Doe", "9876543210")

	if v.ID == "" {
		t.Fatal("no ID assigned")
	}
	if v.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", v.Status)
	}
	if v.CheckInTime != nil {
		t.Error("checkInTime set at registration")
	}
	if v.RegistrationDate == "" || v.LastUpdated == "" {
		t.Error("registrationDate/lastUpdated not set")
	}

	other := register(t, s, "Jane Doe", "9123456780")
	if other.ID == v.ID {
		t.Error("ID reused")
	}
}

func TestUpdateEnforcesTransitions(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	v := register(t, s, "John Doe", "9876543210")

	// pending -> Out skips In
	out := models.StatusOut
	if _, err := s.UpdateVisitor(ctx, v.ID, Patch{Status: &out}); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("pending->Out: got %v, want ErrIllegalTransition", err)
	}

	// pending -> In is the legal step 2
	in := models.StatusIn
	now := models.Timestamp()
	updated, err := s.UpdateVisitor(ctx, v.ID, Patch{
		Status:      &in,
		CheckInTime: &now,
		Details:     &models.AdditionalDetails{Department: "CSE", DocumentType: "ID", WhomToMeet: "Dr Rao", VisitorCount: 2},
	})
	if err != nil {
		t.Fatalf("pending->In: %v", err)
	}
	if updated.Status != models.StatusIn || updated.CheckInTime == nil {
		t.Fatalf("check-in not applied: %+v", updated)
	}

	// In -> In is a no-transition patch, not an error, but In -> pending is
	pending := models.StatusPending
	if _, err := s.UpdateVisitor(ctx, v.ID, Patch{Status: &pending}); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("In->pending: got %v, want ErrIllegalTransition", err)
	}

	// In -> Out checks out; checkInTime must not change
	checkedIn := *updated.CheckInTime
	outTime := models.Timestamp()
	updated, err = s.UpdateVisitor(ctx, v.ID, Patch{Status: &out, CheckOutTime: &outTime})
	if err != nil {
		t.Fatalf("In->Out: %v", err)
	}
	if updated.CheckOutTime == nil || *updated.CheckOutTime != outTime {
		t.Error("checkOutTime not set")
	}
	if *updated.CheckInTime != checkedIn {
		t.Error("checkOutTime write clobbered checkInTime")
	}

	// Out -> In through a plain update is rejected
	if _, err := s.UpdateVisitor(ctx, v.ID, Patch{Status: &in}); !errors.Is(err, ErrIllegalTransition) {
		t.Errorf("Out->In: got %v, want ErrIllegalTransition", err)
	}
}

func TestUpdateMergesDetails(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	v := register(t, s, "John Doe", "9876543210")

	in := models.StatusIn
	now := models.Timestamp()
	if _, err := s.UpdateVisitor(ctx, v.ID, Patch{
		Status:      &in,
		CheckInTime: &now,
		Details:     &models.AdditionalDetails{Department: "CSE", DocumentType: "ID"},
	}); err != nil {
		t.Fatalf("details submit: %v", err)
	}

	// A later partial write must not drop department/documentType
	updated, err := s.UpdateVisitor(ctx, v.ID, Patch{
		Details: &models.AdditionalDetails{VisitorPhotoURL: "http://localhost/uploads/p.jpg"},
	})
	if err != nil {
		t.Fatalf("photo url write: %v", err)
	}
	d, err := updated.Details()
	if err != nil || d == nil {
		t.Fatalf("details unreadable: %v", err)
	}
	if d.Department != "CSE" || d.DocumentType != "ID" {
		t.Errorf("merge dropped earlier fields: %+v", d)
	}
	if d.VisitorPhotoURL != "http://localhost/uploads/p.jpg" {
		t.Errorf("merge lost new field: %+v", d)
	}
}

func TestLastUpdatedBumpsOnEveryMutation(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	v := register(t, s, "John Doe", "9876543210")

	time.Sleep(2 * time.Millisecond)
	in := models.StatusIn
	now := models.Timestamp()
	updated, err := s.UpdateVisitor(ctx, v.ID, Patch{
		Status:      &in,
		CheckInTime: &now,
		Details:     &models.AdditionalDetails{Department: "CSE", DocumentType: "ID"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !(updated.LastUpdated >= updated.RegistrationDate) {
		t.Errorf("lastUpdated %s < registrationDate %s", updated.LastUpdated, updated.RegistrationDate)
	}
	if updated.LastUpdated == v.LastUpdated {
		t.Error("lastUpdated not bumped by update")
	}
}

func TestFindByContactMostRecentWins(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := register(t, s, "John Doe", "9876543210")
	time.Sleep(2 * time.Millisecond)
	second := register(t, s, "John Doe", "9876543210")

	found, err := s.FindByContact(ctx, "9876543210")
	if err != nil {
		t.Fatalf("FindByContact: %v", err)
	}
	if found.ID != second.ID {
		t.Errorf("got %s, want most recent %s (not %s)", found.ID, second.ID, first.ID)
	}

	if _, err := s.FindByContact(ctx, "0000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown contact: got %v, want ErrNotFound", err)
	}
}

func TestGetVisitorNotFound(t *testing.T) {
	s := testStore(t)
	if _, err := s.GetVisitor(context.Background(), "b5b1c6a0-0000-0000-0000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestQuickCheckInAppendsLogAndReenters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	v := register(t, s, "John Doe", "9876543210")

	// Walk the record through a full visit first
	in, out := models.StatusIn, models.StatusOut
	now := models.Timestamp()
	if _, err := s.UpdateVisitor(ctx, v.ID, Patch{Status: &in, CheckInTime: &now,
		Details: &models.AdditionalDetails{Department: "CSE", DocumentType: "ID"}}); err != nil {
		t.Fatalf("check in: %v", err)
	}
	outTime := models.Timestamp()
	if _, err := s.UpdateVisitor(ctx, v.ID, Patch{Status: &out, CheckOutTime: &outTime}); err != nil {
		t.Fatalf("check out: %v", err)
	}

	updated, entry, err := s.QuickCheckIn(ctx, v.ID,
		&models.AdditionalDetails{WhomToMeet: "Dr Rao", Department: "ECE", VisitorCount: 3}, "Follow-up")
	if err != nil {
		t.Fatalf("QuickCheckIn: %v", err)
	}
	if updated.Status != models.StatusIn {
		t.Errorf("status = %s, want In", updated.Status)
	}
	if updated.Type != models.TypeQuickCheckIn {
		t.Errorf("type = %s", updated.Type)
	}
	if entry.VisitorID != v.ID || entry.Department != "ECE" || entry.VisitorCount != 3 {
		t.Errorf("log entry wrong: %+v", entry)
	}

	logs, err := s.LogsBetween(ctx, "1970-01-01T00:00:00.000Z", "2999-01-01T00:00:00.000Z")
	if err != nil {
		t.Fatalf("LogsBetween: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("want 1 log entry, got %d", len(logs))
	}
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	register(t, s, "John Doe", "9876543210")

	ch, cancel := s.Subscribe(ctx)
	defer cancel()

	select {
	case snapshot := <-ch:
		if len(snapshot) != 1 {
			t.Fatalf("initial snapshot size = %d", len(snapshot))
		}
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	register(t, s, "Jane Doe", "9123456780")

	select {
	case snapshot := <-ch:
		if len(snapshot) != 2 {
			t.Fatalf("post-write snapshot size = %d", len(snapshot))
		}
		// Natural order: lastUpdated descending
		if snapshot[0].Name != "Jane Doe" {
			t.Errorf("snapshot not ordered by lastUpdated desc: %s first", snapshot[0].Name)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot after write")
	}

	// cancel is idempotent and closes the channel
	cancel()
	cancel()
	if _, open := <-ch; open {
		t.Error("channel still open after cancel")
	}
}

func TestSubscribeLaggingConsumerGetsLatestOnly(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ch, cancel := s.Subscribe(ctx)
	defer cancel()
	<-ch // drain the initial empty snapshot

	register(t, s, "A One", "1111111111")
	register(t, s, "B Two", "2222222222")
	register(t, s, "C Three", "3333333333")

	// The consumer slept through three writes; the buffered pending
	// snapshot is the latest state, intermediates were replaced.
	select {
	case snapshot := <-ch:
		if len(snapshot) != 3 {
			t.Errorf("lagging consumer saw %d records, want latest (3)", len(snapshot))
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}
