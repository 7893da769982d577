// Package flows orchestrates the multi-step entry wizards against the
// store: registration (identity -> additional details -> pass), quick
// check-in for repeat visitors, and the check-out action. A failed step
// aborts and leaves earlier, already-committed writes as they are; the
// caller retries the same step manually.
package flows

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xelth-com/campusgate/internal/models"
	"github.com/xelth-com/campusgate/internal/store"
	"github.com/xelth-com/campusgate/internal/validation"
)

// ErrNoMatch is returned by Lookup when no record carries the given
// contact number. Nothing is created or mutated; the client sends the
// person to the full registration wizard.
var ErrNoMatch = errors.New("no visitor with that contact number")

// ValidationError carries per-field rejection messages. It never
// reaches the store; submission is blocked client- and server-side.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// RegistrationInput is the step-1 identity form
type RegistrationInput struct {
	Name           string `json:"name"`
	ContactNumber  string `json:"contactNumber"`
	Address        string `json:"address"`
	VehicleNumber  string `json:"vehicleNumber"`
	PurposeOfVisit string `json:"purposeOfVisit"`
	TypeOfVisit    string `json:"typeOfVisit"`
	Type           string `json:"type"` // visitor | cab

	// Cab entries only
	CabProvider  string `json:"cabProvider,omitempty"`
	DriverName   string `json:"driverName,omitempty"`
	DriverNumber string `json:"driverNumber,omitempty"`
}

// DetailsInput is the step-2 additional-details form
type DetailsInput struct {
	WhomToMeet       string `json:"whomToMeet"`
	Department       string `json:"department"`
	DocumentType     string `json:"documentType"`
	VisitorCount     int    `json:"visitorCount"`
	VisitorPhotoURL  string `json:"visitorPhotoUrl,omitempty"`
	DocumentURL      string `json:"documentUrl,omitempty"`
	SendNotification bool   `json:"sendNotification,omitempty"`

	// Carried through the cab wizard's form state
	CabProvider  string `json:"cabProvider,omitempty"`
	DriverName   string `json:"driverName,omitempty"`
	DriverNumber string `json:"driverNumber,omitempty"`
}

// Flows wires the wizards to an injected store so tests can run them
// against an in-memory database
type Flows struct {
	store *store.Store
}

// New creates the flow controllers around a store
func New(s *store.Store) *Flows {
	return &Flows{store: s}
}

// Register runs step 1 of the wizard: validate the identity fields and
// create a pending record. checkInTime stays null until step 2.
func (f *Flows) Register(ctx context.Context, in RegistrationInput) (*models.Visitor, error) {
	in.ContactNumber = validation.Format("contactNumber", in.ContactNumber)
	in.VehicleNumber = validation.Format("vehicleNumber", in.VehicleNumber)

	fields := map[string]string{
		"name":           in.Name,
		"contactNumber":  in.ContactNumber,
		"address":        in.Address,
		"vehicleNumber":  in.VehicleNumber,
		"purposeOfVisit": in.PurposeOfVisit,
	}
	if in.TypeOfVisit != "" {
		fields["typeOfVisit"] = in.TypeOfVisit
	}
	if in.Type == models.TypeCab {
		in.DriverNumber = validation.Format("driverNumber", in.DriverNumber)
		fields["cabProvider"] = in.CabProvider
		fields["driverName"] = in.DriverName
		fields["driverNumber"] = in.DriverNumber
	}
	if err := validateAll(fields); err != nil {
		return nil, err
	}

	entryType := in.Type
	if entryType == "" {
		entryType = models.TypeVisitor
	}
	v := &models.Visitor{
		Name:           strings.TrimSpace(in.Name),
		ContactNumber:  in.ContactNumber,
		Address:        strings.TrimSpace(in.Address),
		VehicleNumber:  in.VehicleNumber,
		PurposeOfVisit: strings.TrimSpace(in.PurposeOfVisit),
		Type:           entryType,
	}
	if _, err := f.store.CreateVisitor(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// SubmitAdditionalDetails runs step 2: it requires at minimum a
// department and a document type, transitions the record pending -> In,
// stamps checkInTime and appends the visit to the log. A store failure
// leaves the record pending with no details; there is deliberately no
// rollback of step 1 and abandoned pending records are accepted noise.
func (f *Flows) SubmitAdditionalDetails(ctx context.Context, visitorID string, in DetailsInput) (*models.Visitor, error) {
	errs := map[string]string{}
	if msg := validation.Validate("department", in.Department); msg != "" {
		errs["department"] = msg
	}
	if msg := validation.Validate("documentType", in.DocumentType); msg != "" {
		errs["documentType"] = msg
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Fields: errs}
	}

	in.VisitorCount = clampCount(in.VisitorCount)
	now := models.Timestamp()
	statusIn := models.StatusIn
	updated, err := f.store.UpdateVisitor(ctx, visitorID, store.Patch{
		Status:      &statusIn,
		CheckInTime: &now,
		Details: &models.AdditionalDetails{
			WhomToMeet:       strings.TrimSpace(in.WhomToMeet),
			Department:       strings.TrimSpace(in.Department),
			DocumentType:     in.DocumentType,
			VisitorCount:     in.VisitorCount,
			VisitorPhotoURL:  in.VisitorPhotoURL,
			DocumentURL:      in.DocumentURL,
			SendNotification: in.SendNotification,
			CabProvider:      in.CabProvider,
			DriverName:       strings.TrimSpace(in.DriverName),
			DriverNumber:     in.DriverNumber,
		},
	})
	if err != nil {
		return nil, err
	}

	entry := &models.VisitorLog{
		VisitorID:       updated.ID,
		Name:            updated.Name,
		ContactNumber:   updated.ContactNumber,
		WhomToMeet:      strings.TrimSpace(in.WhomToMeet),
		Department:      strings.TrimSpace(in.Department),
		PurposeOfVisit:  updated.PurposeOfVisit,
		CheckInTime:     now,
		Status:          models.StatusIn,
		VisitorCount:    in.VisitorCount,
		VisitorPhotoURL: in.VisitorPhotoURL,
		DocumentURL:     in.DocumentURL,
		Type:            updated.Type,
	}
	if _, err := f.store.AppendLog(ctx, entry); err != nil {
		// The record is checked in; a missing log entry is reported but
		// does not undo the check-in
		return updated, err
	}
	return updated, nil
}

// Lookup finds the registration a quick check-in should reuse: exact
// contact match, most recent registrationDate when several exist.
func (f *Flows) Lookup(ctx context.Context, contactNumber string) (*models.Visitor, error) {
	contactNumber = validation.Format("contactNumber", contactNumber)
	if msg := validation.Validate("contactNumber", contactNumber); msg != "" {
		return nil, &ValidationError{Fields: map[string]string{"contactNumber": msg}}
	}
	v, err := f.store.FindByContact(ctx, contactNumber)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// QuickCheckIn records a repeat visit on a looked-up record. It
// requires whom-to-meet, department and purpose, like the pre-filled
// form the client shows.
func (f *Flows) QuickCheckIn(ctx context.Context, visitorID string, in DetailsInput, purpose string) (*models.Visitor, *models.VisitorLog, error) {
	errs := map[string]string{}
	if msg := validation.Validate("whomToMeet", in.WhomToMeet); msg != "" {
		errs["whomToMeet"] = msg
	}
	if msg := validation.Validate("department", in.Department); msg != "" {
		errs["department"] = msg
	}
	if strings.TrimSpace(purpose) == "" {
		errs["purposeOfVisit"] = "Purpose of visit is required"
	}
	if len(errs) > 0 {
		return nil, nil, &ValidationError{Fields: errs}
	}

	return f.store.QuickCheckIn(ctx, visitorID, &models.AdditionalDetails{
		WhomToMeet:   strings.TrimSpace(in.WhomToMeet),
		Department:   strings.TrimSpace(in.Department),
		VisitorCount: clampCount(in.VisitorCount),
	}, strings.TrimSpace(purpose))
}

// CheckOut moves an In record to Out. The store reads before writing so
// the checkout patch merges into additionalDetails instead of
// overwriting fields set by the details screen.
func (f *Flows) CheckOut(ctx context.Context, visitorID string) (*models.Visitor, error) {
	now := models.Timestamp()
	out := models.StatusOut
	return f.store.UpdateVisitor(ctx, visitorID, store.Patch{
		Status:       &out,
		CheckOutTime: &now,
		Details:      &models.AdditionalDetails{CheckOutTime: now},
	})
}

// validateAll runs the field rules and collects every failure
func validateAll(fields map[string]string) error {
	errs := map[string]string{}
	for field, value := range fields {
		if msg := validation.Validate(field, value); msg != "" {
			errs[field] = msg
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// clampCount keeps the party size inside the counter's 1..10 range
func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > 10 {
		return 10
	}
	return n
}
