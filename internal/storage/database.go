package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/callbook-backend/internal/models"
)

// DatabaseStore persists appointments through gorm (SQLite or PostgreSQL)
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store on top of an opened, migrated gorm connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) CreateAppointment(ctx context.Context, name string) (string, error) {
	appt := &models.Appointment{Name: name}
	if err := s.db.WithContext(ctx).Create(appt).Error; err != nil {
		return "", fmt.Errorf("create appointment: %w", err)
	}
	return appt.AppointmentID(), nil
}

func (s *DatabaseStore) UpdateAppointmentField(ctx context.Context, id, field, value string) error {
	if !models.IsAppointmentField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	pk, ok := models.ParseAppointmentID(id)
	if !ok {
		return ErrAppointmentNotFound
	}

	result := s.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", pk).
		Update(field, value)
	if result.Error != nil {
		return fmt.Errorf("update appointment %s: %w", field, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (s *DatabaseStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	pk, ok := models.ParseAppointmentID(id)
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	var appt models.Appointment
	err := s.db.WithContext(ctx).First(&appt, pk).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &appt, nil
}

func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *DatabaseStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
