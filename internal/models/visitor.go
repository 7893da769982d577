package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Status is the lifecycle state of a visitor record
type Status string

const (
	StatusPending Status = "pending"
	StatusIn      Status = "In"
	StatusOut     Status = "Out"
)

// Entry types as written by the mobile client
const (
	TypeVisitor      = "visitor"
	TypeCab          = "cab"
	TypeQuickCheckIn = "Quick Check-In"
)

// Visitor is the canonical store-resident record for one registered
// visitor or cab. IDs are assigned once on creation and never reused.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type Visitor struct {
	ID               string         `gorm:"primaryKey;type:uuid" json:"id"`
	Name             string         `gorm:"not null" json:"name"`
	ContactNumber    string         `gorm:"index;not null" json:"contactNumber"`
	Address          string         `json:"address"`
	VehicleNumber    string         `json:"vehicleNumber"`
	PurposeOfVisit   string         `json:"purposeOfVisit"`
	Type             string         `gorm:"type:varchar(50);default:'visitor'" json:"type"`
	Status           Status         `gorm:"type:varchar(20);default:'pending'" json:"status"`
	RegistrationDate string         `gorm:"not null" json:"registrationDate"`
	CheckInTime      *string        `json:"checkInTime"`
	CheckOutTime     *string        `json:"checkOutTime"`
	LastUpdated      string         `gorm:"index;not null" json:"lastUpdated"`
	AdditionalRaw    datatypes.JSON `gorm:"column:additional_details" json:"additionalDetails,omitempty"`
}

// TableName specifies the table name for Visitor model
func (Visitor) TableName() string {
	return "visitors"
}

// AdditionalDetails is the second-step payload required before a record
// may enter the In state. Absent until the details screen submits.
type AdditionalDetails struct {
	WhomToMeet      string `json:"whomToMeet,omitempty"`
	Department      string `json:"department,omitempty"`
	DocumentType    string `json:"documentType,omitempty"`
	VisitorCount    int    `json:"visitorCount,omitempty"`
	VisitorPhotoURL string `json:"visitorPhotoUrl,omitempty"`
	DocumentURL     string `json:"documentUrl,omitempty"`

	// Cab entries carry provider and driver info alongside the shared fields
	CabProvider  string `json:"cabProvider,omitempty"`
	DriverName   string `json:"driverName,omitempty"`
	DriverNumber string `json:"driverNumber,omitempty"`

	// Recorded preference only; delivery happens outside this service
	SendNotification bool `json:"sendNotification,omitempty"`

	CheckOutTime string `json:"checkOutTime,omitempty"`
}

// Details decodes the additional_details column. Returns nil when the
// second registration step has not completed yet.
func (v *Visitor) Details() (*AdditionalDetails, error) {
	if len(v.AdditionalRaw) == 0 || string(v.AdditionalRaw) == "null" || string(v.AdditionalRaw) == "{}" {
		return nil, nil
	}
	var d AdditionalDetails
	if err := json.Unmarshal(v.AdditionalRaw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// SetDetails encodes details into the additional_details column
func (v *Visitor) SetDetails(d *AdditionalDetails) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return err
	}
	v.AdditionalRaw = datatypes.JSON(raw)
	return nil
}

// CanTransition reports whether moving a record from one status to
// another is legal. The only forward path is pending -> In -> Out;
// repeat visits append a VisitorLog entry instead of regressing status.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusIn
	case StatusIn:
		return to == StatusOut
	default:
		return false
	}
}

// Timestamp returns the current time formatted the way the client
// writes every lifecycle field (ISO-8601, UTC, millisecond precision).
func Timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
}
