package storage

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/callbook-backend/internal/models"
)

var (
	// ErrAppointmentNotFound is returned when no record matches the correlation id
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrInvalidField is returned when an update names a column the flow does not own
	ErrInvalidField = errors.New("invalid appointment field")
)

// Store defines the interface for appointment storage operations.
// Every operation touches a single record and is strongly consistent.
type Store interface {
	// CreateAppointment inserts a record with only the name set and returns its id
	CreateAppointment(ctx context.Context, name string) (string, error)

	// UpdateAppointmentField sets one of name/date/time/reason on an existing record
	UpdateAppointmentField(ctx context.Context, id, field, value string) error

	// GetAppointment reads back the full record
	GetAppointment(ctx context.Context, id string) (*models.Appointment, error)

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error

	// Close releases the underlying connections
	Close() error
}
