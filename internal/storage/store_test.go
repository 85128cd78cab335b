package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ananth-NQI/callbook-backend/internal/config"
	"github.com/Ananth-NQI/callbook-backend/internal/models"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	cfg := &config.Config{
		StoreBackend: config.StoreSQLite,
		DBPath:       filepath.Join(t.TempDir(), "appointments.db"),
	}
	store, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newRedisStore(t *testing.T) Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(client)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func backends() map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": newSQLiteStore,
		"redis":  newRedisStore,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			id, err := store.CreateAppointment(ctx, "Alex")
			require.NoError(t, err)
			require.NotEmpty(t, id)

			appt, err := store.GetAppointment(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, id, appt.AppointmentID())
			assert.Equal(t, "Alex", appt.Name)
			assert.Empty(t, appt.Date)
			assert.Empty(t, appt.Time)
			assert.Empty(t, appt.Reason)
			assert.False(t, appt.IsComplete())
		})
	}
}

func TestStore_IDsAreUnique(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			first, err := store.CreateAppointment(ctx, "Alex")
			require.NoError(t, err)
			second, err := store.CreateAppointment(ctx, "Alex")
			require.NoError(t, err)

			assert.NotEqual(t, first, second)
		})
	}
}

func TestStore_UpdateEachField(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			id, err := store.CreateAppointment(ctx, "Alex")
			require.NoError(t, err)

			require.NoError(t, store.UpdateAppointmentField(ctx, id, models.FieldDate, "2024-01-12"))
			require.NoError(t, store.UpdateAppointmentField(ctx, id, models.FieldTime, "3pm"))
			require.NoError(t, store.UpdateAppointmentField(ctx, id, models.FieldReason, "checkup"))

			appt, err := store.GetAppointment(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "Alex", appt.Name)
			assert.Equal(t, "2024-01-12", appt.Date)
			assert.Equal(t, "3pm", appt.Time)
			assert.Equal(t, "checkup", appt.Reason)
			assert.True(t, appt.IsComplete())
		})
	}
}

func TestStore_NotFound(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			for _, id := range []string{"999", "", "abc", "-1", "0"} {
				err := store.UpdateAppointmentField(ctx, id, models.FieldTime, "3pm")
				assert.ErrorIs(t, err, ErrAppointmentNotFound, "update id %q", id)

				_, err = store.GetAppointment(ctx, id)
				assert.ErrorIs(t, err, ErrAppointmentNotFound, "get id %q", id)
			}
		})
	}
}

func TestStore_UpdateUnknownIDCreatesNothing(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			require.ErrorIs(t, store.UpdateAppointmentField(ctx, "1", models.FieldDate, "2024-01-12"), ErrAppointmentNotFound)

			// The first real record still gets id 1 and an empty date
			id, err := store.CreateAppointment(ctx, "Sam")
			require.NoError(t, err)
			appt, err := store.GetAppointment(ctx, id)
			require.NoError(t, err)
			assert.Empty(t, appt.Date)
		})
	}
}

func TestStore_RejectsUnknownField(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			id, err := store.CreateAppointment(ctx, "Alex")
			require.NoError(t, err)

			err = store.UpdateAppointmentField(ctx, id, "id", "42")
			assert.ErrorIs(t, err, ErrInvalidField)
		})
	}
}

func TestStore_ConcurrentCreates(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := newStore(t)

			const callers = 40
			ids := make([]string, callers)
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id, err := store.CreateAppointment(ctx, fmt.Sprintf("caller-%d", i))
					if !assert.NoError(t, err) {
						return
					}
					ids[i] = id
					assert.NoError(t, store.UpdateAppointmentField(ctx, id, models.FieldTime, fmt.Sprintf("%dpm", i%12+1)))
				}(i)
			}
			wg.Wait()

			seen := make(map[string]bool)
			for i, id := range ids {
				assert.False(t, seen[id], "duplicate id %s", id)
				seen[id] = true

				appt, err := store.GetAppointment(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, fmt.Sprintf("caller-%d", i), appt.Name)
				assert.Equal(t, fmt.Sprintf("%dpm", i%12+1), appt.Time)
			}
		})
	}
}

func TestStore_Ping(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, newStore(t).Ping(context.Background()))
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreBackend: "cassandra"})
	assert.Error(t, err)
}

func TestOpen_PostgresRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreBackend: config.StorePostgres})
	assert.Error(t, err)
}
