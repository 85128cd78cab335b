package storage

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Ananth-NQI/callbook-backend/internal/models"
)

// MemoryStore holds appointments in memory for tests and local runs
type MemoryStore struct {
	appointments map[string]*models.Appointment
	mu           sync.RWMutex

	// Counter for ID generation
	counter uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appointments: make(map[string]*models.Appointment),
	}
}

func (m *MemoryStore) CreateAppointment(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counter++
	now := time.Now()
	appt := &models.Appointment{
		ID:        m.counter,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id := strconv.FormatUint(uint64(appt.ID), 10)
	m.appointments[id] = appt
	return id, nil
}

func (m *MemoryStore) UpdateAppointmentField(_ context.Context, id, field, value string) error {
	if !models.IsAppointmentField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	appt, exists := m.appointments[id]
	if !exists {
		return ErrAppointmentNotFound
	}

	switch field {
	case models.FieldName:
		appt.Name = value
	case models.FieldDate:
		appt.Date = value
	case models.FieldTime:
		appt.Time = value
	case models.FieldReason:
		appt.Reason = value
	}
	appt.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) GetAppointment(_ context.Context, id string) (*models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	appt, exists := m.appointments[id]
	if !exists {
		return nil, ErrAppointmentNotFound
	}

	// Callers get a copy so they cannot mutate the stored record
	cp := *appt
	return &cp, nil
}

// Count returns the number of stored appointments
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.appointments)
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
