package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("PAYMENT_KEY_SECRET", "s3cret")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageBackend)
	assert.Equal(t, "INR", cfg.BaseCurrency)
	assert.Equal(t, 14, cfg.TrialDays)
	assert.Equal(t, 5*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, "reviewly.events", cfg.EventsQueue)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("PAYMENT_KEY_SECRET", "s3cret")
	t.Setenv("TRIAL_DAYS", "30")
	t.Setenv("BASE_CURRENCY", "usd")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "2s")
	t.Setenv("REDIS_DB", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.TrialDays)
	assert.Equal(t, "USD", cfg.BaseCurrency)
	assert.Equal(t, 2*time.Second, cfg.HTTPClientTimeout)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{StorageBackend: StorageMemory, PaymentKeySecret: "k", BaseCurrency: "INR"}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid memory", func(c *Config) {}, ""},
		{"firestore needs project", func(c *Config) { c.StorageBackend = StorageFirestore }, "FIREBASE_PROJECT_ID"},
		{"firestore with project", func(c *Config) { c.StorageBackend = StorageFirestore; c.FirebaseProjectID = "p" }, ""},
		{"unknown backend", func(c *Config) { c.StorageBackend = "sql" }, "STORAGE_BACKEND"},
		{"payment secret", func(c *Config) { c.PaymentKeySecret = "" }, "PAYMENT_KEY_SECRET"},
		{"negative trial", func(c *Config) { c.TrialDays = -1 }, "TRIAL_DAYS"},
		{"bad currency", func(c *Config) { c.BaseCurrency = "RUPEE" }, "BASE_CURRENCY"},
		{"dev auth in debug", func(c *Config) { c.DevAuth = true; c.GinMode = "debug" }, ""},
		{"dev auth in release", func(c *Config) { c.DevAuth = true; c.GinMode = "release" }, "DEV_AUTH"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
