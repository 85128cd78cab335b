package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_BACKEND", "DB_PATH", "USE_MEMORY_STORE", "VALIDATE_TWILIO_SIGNATURE", "PUBLIC_BASE_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, StoreSQLite, cfg.StoreBackend)
	assert.Equal(t, "appointments.db", cfg.DBPath)
	assert.False(t, cfg.ValidateTwilioSignature)
	assert.Empty(t, cfg.PublicBaseURL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_BACKEND", " Redis ")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("PUBLIC_BASE_URL", "https://calls.example.com/")
	t.Setenv("VALIDATE_TWILIO_SIGNATURE", "true")
	t.Setenv("TWILIO_ACCOUNT_SID", "AC1")
	t.Setenv("TWILIO_AUTH_TOKEN", "secret")
	t.Setenv("USE_MEMORY_STORE", "")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StoreRedis, cfg.StoreBackend)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, "https://calls.example.com", cfg.PublicBaseURL)
	assert.True(t, cfg.ValidateTwilioSignature)
	assert.True(t, cfg.TwilioConfigured())
}

func TestLoad_UseMemoryStoreOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("USE_MEMORY_STORE", "true")

	assert.Equal(t, StoreMemory, Load().StoreBackend)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	t.Setenv("SMS_CONFIRMATIONS", "maybe")

	cfg := Load()
	assert.Equal(t, 0, cfg.RedisDB)
	assert.False(t, cfg.SMSConfirmations)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CALLBOOK_DOTENV_TEST=loaded\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CALLBOOK_DOTENV_TEST") })

	loaded := LoadDotEnv(filepath.Join(dir, "missing.env"), path)

	assert.Equal(t, []string{path}, loaded)
	assert.Equal(t, "loaded", os.Getenv("CALLBOOK_DOTENV_TEST"))
}
