package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ananth-NQI/callbook-backend/internal/models"
)

const (
	redisSeqKey       = "appointments:seq"
	redisKeyPrefix    = "appointments:"
	redisUpdatedField = "updated_at"
)

// updateIfExists sets one hash field only when the record already exists,
// so an unknown id never materialises a partial record.
var updateIfExists = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return 0
end
redis.call('HSET', KEYS[1], ARGV[1], ARGV[2], '` + redisUpdatedField + `', ARGV[3])
return 1
`)

// RedisStore keeps each appointment in a hash keyed by an INCR-assigned id
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing redis client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(pk uint) string {
	return redisKeyPrefix + strconv.FormatUint(uint64(pk), 10)
}

func (s *RedisStore) CreateAppointment(ctx context.Context, name string) (string, error) {
	seq, err := s.client.Incr(ctx, redisSeqKey).Result()
	if err != nil {
		return "", fmt.Errorf("allocate appointment id: %w", err)
	}

	pk := uint(seq)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	err = s.client.HSet(ctx, redisKey(pk), map[string]any{
		models.FieldName:   name,
		models.FieldDate:   "",
		models.FieldTime:   "",
		models.FieldReason: "",
		"created_at":       now,
		redisUpdatedField:  now,
	}).Err()
	if err != nil {
		return "", fmt.Errorf("create appointment: %w", err)
	}

	return strconv.FormatUint(uint64(pk), 10), nil
}

func (s *RedisStore) UpdateAppointmentField(ctx context.Context, id, field, value string) error {
	if !models.IsAppointmentField(field) {
		return fmt.Errorf("%w: %q", ErrInvalidField, field)
	}

	pk, ok := models.ParseAppointmentID(id)
	if !ok {
		return ErrAppointmentNotFound
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	updated, err := updateIfExists.Run(ctx, s.client, []string{redisKey(pk)}, field, value, now).Int()
	if err != nil {
		return fmt.Errorf("update appointment %s: %w", field, err)
	}
	if updated == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (s *RedisStore) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	pk, ok := models.ParseAppointmentID(id)
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	fields, err := s.client.HGetAll(ctx, redisKey(pk)).Result()
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrAppointmentNotFound
	}

	appt := &models.Appointment{
		ID:     pk,
		Name:   fields[models.FieldName],
		Date:   fields[models.FieldDate],
		Time:   fields[models.FieldTime],
		Reason: fields[models.FieldReason],
	}
	appt.CreatedAt, _ = time.Parse(time.RFC3339Nano, fields["created_at"])
	appt.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields[redisUpdatedField])
	return appt, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
