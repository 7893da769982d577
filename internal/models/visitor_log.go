package models

// VisitorLog is one physical check-in occurrence. The same person
// (keyed by contact number) may visit many times; every visit appends
// one of these and nothing but CheckOutTime is ever touched afterwards.
type VisitorLog struct {
	ID              string  `gorm:"primaryKey;type:uuid" json:"id"`
	VisitorID       string  `gorm:"index;not null" json:"visitorId"`
	Name            string  `json:"name"`
	ContactNumber   string  `gorm:"index" json:"contactNumber"`
	WhomToMeet      string  `json:"whomToMeet"`
	Department      string  `json:"department"`
	PurposeOfVisit  string  `json:"purposeOfVisit"`
	CheckInTime     string  `gorm:"index;not null" json:"checkInTime"`
	CheckOutTime    *string `json:"checkOutTime"`
	Status          Status  `gorm:"type:varchar(20);default:'In'" json:"status"`
	VisitorCount    int     `gorm:"default:1" json:"visitorCount"`
	VisitorPhotoURL string  `json:"visitorPhotoUrl"`
	DocumentURL     string  `json:"documentUrl"`
	Type            string  `gorm:"type:varchar(50)" json:"type"`
}

// TableName specifies the table name for VisitorLog model
func (VisitorLog) TableName() string {
	return "visitor_logs"
}
