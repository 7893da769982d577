package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xelth-com/campusgate/internal/models"
	"github.com/xelth-com/campusgate/internal/store"
)

func testFlows(t *testing.T) (*Flows, *store.Store) {
	t.Helper()
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
	s := store.New(db)
	return New(s), s
}

func johnDoe() RegistrationInput {
	return RegistrationInput{
		Name:           "John Doe",
		ContactNumber:  "9876543210",
		Address:        "12 College Road",
		PurposeOfVisit: "Project demo",
		TypeOfVisit:    "Official",
	}
}

func TestRegistrationWizard(t *testing.T) {
	f, _ := testFlows(t)
	ctx := context.Background()

	// Step 1: identity -> pending record, no check-in yet
	v, err := f.Register(ctx, johnDoe())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if v.Status != models.StatusPending {
		t.Errorf("status after step 1 = %s, want pending", v.Status)
	}
	if v.CheckInTime != nil {
		t.Error("checkInTime set before step 2")
	}

	// Step 2: details -> In with checkInTime and populated details
	updated, err := f.SubmitAdditionalDetails(ctx, v.ID, DetailsInput{
		WhomToMeet:   "Dr Rao",
		Department:   "CSE",
		DocumentType: "ID",
		VisitorCount: 2,
	})
	if err != nil {
		t.Fatalf("SubmitAdditionalDetails: %v", err)
	}
	if updated.Status != models.StatusIn {
		t.Errorf("status after step 2 = %s, want In", updated.Status)
	}
	if updated.CheckInTime == nil {
		t.Fatal("checkInTime not set by step 2")
	}
	d, err := updated.Details()
	if err != nil || d == nil {
		t.Fatalf("details missing: %v", err)
	}
	if d.Department != "CSE" || d.DocumentType != "ID" || d.VisitorCount != 2 {
		t.Errorf("details = %+v", d)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	f, _ := testFlows(t)
	in := johnDoe()
	in.Name = "J0hn"
	in.ContactNumber = "12345"

	_, err := f.Register(context.Background(), in)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	if verr.Fields["name"] == "" || verr.Fields["contactNumber"] == "" {
		t.Errorf("missing field messages: %+v", verr.Fields)
	}
}

func TestDetailsRequireDepartmentAndDocumentType(t *testing.T) {
	f, _ := testFlows(t)
	ctx := context.Background()
	v, err := f.Register(ctx, johnDoe())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = f.SubmitAdditionalDetails(ctx, v.ID, DetailsInput{WhomToMeet: "Dr Rao"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}

	// Failed step 2 leaves the record pending with no details
	got, err := f.store.GetVisitor(ctx, v.ID)
	if err != nil {
		t.Fatalf("GetVisitor: %v", err)
	}
	if got.Status != models.StatusPending {
		t.Errorf("record left in %s after failed step 2", got.Status)
	}
	d, _ := got.Details()
	if d != nil {
		t.Errorf("details written by failed step 2: %+v", d)
	}
}

func TestCheckOut(t *testing.T) {
	f, _ := testFlows(t)
	ctx := context.Background()
	v, err := f.Register(ctx, johnDoe())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	checkedIn, err := f.SubmitAdditionalDetails(ctx, v.ID, DetailsInput{
		Department: "CSE", DocumentType: "ID",
	})
	if err != nil {
		t.Fatalf("SubmitAdditionalDetails: %v", err)
	}
	inTime := *checkedIn.CheckInTime

	out, err := f.CheckOut(ctx, v.ID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if out.Status != models.StatusOut {
		t.Errorf("status = %s, want Out", out.Status)
	}
	if out.CheckOutTime == nil {
		t.Fatal("checkOutTime not set")
	}
	if *out.CheckInTime != inTime {
		t.Error("checkOut changed checkInTime")
	}
	// The checkout patch merges into details instead of replacing them
	d, err := out.Details()
	if err != nil || d == nil {
		t.Fatalf("details lost on checkout: %v", err)
	}
	if d.Department != "CSE" {
		t.Errorf("details clobbered: %+v", d)
	}
	if d.CheckOutTime == "" {
		t.Error("checkOutTime not merged into details")
	}

	// Checking out twice is an illegal transition, not a silent overwrite
	if _, err := f.CheckOut(ctx, v.ID); !errors.Is(err, store.ErrIllegalTransition) {
		t.Errorf("double checkout: got %v, want ErrIllegalTransition", err)
	}
}

func TestQuickCheckInNotFound(t *testing.T) {
	f, s := testFlows(t)
	ctx := context.Background()

	_, err := f.Lookup(ctx, "9999999999")
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("got %v, want ErrNoMatch", err)
	}

	// No record was created and nothing was mutated
	visitors, err := s.QueryVisitors(ctx)
	if err != nil {
		t.Fatalf("QueryVisitors: %v", err)
	}
	if len(visitors) != 0 {
		t.Errorf("lookup created %d records", len(visitors))
	}
}

func TestQuickCheckInRepeatVisit(t *testing.T) {
	f, s := testFlows(t)
	ctx := context.Background()

	v, err := f.Register(ctx, johnDoe())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := f.SubmitAdditionalDetails(ctx, v.ID, DetailsInput{Department: "CSE", DocumentType: "ID"}); err != nil {
		t.Fatalf("details: %v", err)
	}
	if _, err := f.CheckOut(ctx, v.ID); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	found, err := f.Lookup(ctx, "98765 43210") // formatter strips the space
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if found.ID != v.ID {
		t.Errorf("lookup found %s, want %s", found.ID, v.ID)
	}

	updated, entry, err := f.QuickCheckIn(ctx, found.ID, DetailsInput{
		WhomToMeet: "Dr Rao", Department: "ECE",
	}, "Follow-up meeting")
	if err != nil {
		t.Fatalf("QuickCheckIn: %v", err)
	}
	if updated.Status != models.StatusIn {
		t.Errorf("status = %s, want In", updated.Status)
	}
	if entry.VisitorID != v.ID {
		t.Errorf("log entry references %s", entry.VisitorID)
	}

	// Two visits -> two log entries (one from step 2, one from re-entry)
	logs, err := s.LogsBetween(ctx, "1970-01-01T00:00:00.000Z", "2999-01-01T00:00:00.000Z")
	if err != nil {
		t.Fatalf("LogsBetween: %v", err)
	}
	if len(logs) != 2 {
		t.Errorf("log entries = %d, want 2", len(logs))
	}
}

func TestQuickCheckInRequiresFormFields(t *testing.T) {
	f, _ := testFlows(t)
	ctx := context.Background()
	v, err := f.Register(ctx, johnDoe())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, err = f.QuickCheckIn(ctx, v.ID, DetailsInput{}, "")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("got %v, want ValidationError", err)
	}
	for _, field := range []string{"whomToMeet", "department", "purposeOfVisit"} {
		if verr.Fields[field] == "" {
			t.Errorf("no message for %s", field)
		}
	}
}
