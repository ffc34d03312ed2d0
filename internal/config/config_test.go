package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/salon")
		t.Setenv("JWT_SECRET", "access")
		t.Setenv("JWT_REFRESH_SECRET", "refresh")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "8080", cfg.Server.Port)
		assert.Equal(t, 600*time.Second, cfg.Activation.AccountMaxWait)
		assert.Equal(t, 60*time.Second, cfg.Activation.SalonMaxWait)
		assert.Equal(t, 5*time.Second, cfg.Activation.PollInterval)
		assert.False(t, cfg.Redis.Enabled())
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost/salon")
		t.Setenv("JWT_SECRET", "access")
		t.Setenv("JWT_REFRESH_SECRET", "refresh")
		t.Setenv("SALON_ACTIVATION_MAX_WAIT", "30")
		t.Setenv("ACTIVATION_POLL_INTERVAL", "2")
		t.Setenv("REDIS_HOST", "cache")
		t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 30*time.Second, cfg.Activation.SalonMaxWait)
		assert.Equal(t, 2*time.Second, cfg.Activation.PollInterval)
		assert.True(t, cfg.Redis.Enabled())
		assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	})

	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("JWT_SECRET", "access")
		t.Setenv("JWT_REFRESH_SECRET", "refresh")

		_, err := Load()
		assert.EqualError(t, err, "DATABASE_URL is required")
	})
}

func TestValidate_ActivationTimings(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "postgres://x"},
		JWT:      JWTConfig{Secret: "a", RefreshSecret: "b"},
		Activation: ActivationConfig{
			AccountMaxWait: time.Minute,
			SalonMaxWait:   time.Minute,
		},
	}

	assert.Error(t, cfg.Validate())

	cfg.Activation.PollInterval = time.Second
	assert.NoError(t, cfg.Validate())

	cfg.Activation.SalonMaxWait = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadTooling(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/salon")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	cfg, err := LoadTooling()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/salon", cfg.Database.URL)

	t.Setenv("DATABASE_URL", "")
	_, err = LoadTooling()
	assert.EqualError(t, err, "DATABASE_URL is required")
}
