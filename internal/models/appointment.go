package models

import (
	"strconv"
	"time"
)

// Appointment fields that the call flow fills in, one per step
const (
	FieldName   = "name"
	FieldDate   = "date"
	FieldTime   = "time"
	FieldReason = "reason"
)

// Appointment is one booking attempt collected over a phone call
type Appointment struct {
	ID     uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Name   string `json:"name"`
	Date   string `json:"date"` // canonical YYYY-MM-DD once set
	Time   string `json:"time"` // caller's own words, e.g. "3pm"
	Reason string `json:"reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name shared by every backend
func (Appointment) TableName() string {
	return "appointments"
}

// AppointmentID renders the correlation token carried in callback URLs
func (a *Appointment) AppointmentID() string {
	return strconv.FormatUint(uint64(a.ID), 10)
}

// IsComplete reports whether every step has committed its field
func (a *Appointment) IsComplete() bool {
	return a.Name != "" && a.Date != "" && a.Time != "" && a.Reason != ""
}

// IsAppointmentField reports whether field names a mutable appointment column
func IsAppointmentField(field string) bool {
	switch field {
	case FieldName, FieldDate, FieldTime, FieldReason:
		return true
	}
	return false
}

// ParseAppointmentID converts a correlation token back to a primary key.
// Tokens that are not positive integers can never name a stored record.
func ParseAppointmentID(id string) (uint, bool) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
