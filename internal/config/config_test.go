package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:             "8001",
		DatabaseURL:      "postgres://localhost/kriya_db",
		JWTSecret:        "0123456789abcdef0123456789abcdef",
		PlaneAPIKey:      "service-key",
		PlaneBackendURL:  "http://localhost:8000",
		TokenExpiryHours: 24,
		RequestTimeout:   45 * time.Second,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid config passes", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("missing jwt secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := validConfig()
		cfg.JWTSecret = "too-short"
		require.Error(t, cfg.Validate())
	})

	t.Run("missing plane api key", func(t *testing.T) {
		cfg := validConfig()
		cfg.PlaneAPIKey = ""
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive token expiry", func(t *testing.T) {
		cfg := validConfig()
		cfg.TokenExpiryHours = 0
		require.Error(t, cfg.Validate())
	})
}

func TestTokenExpiry(t *testing.T) {
	cfg := validConfig()
	require.Equal(t, 24*time.Hour, cfg.TokenExpiry())
}

func TestEnvGetters(t *testing.T) {
	t.Setenv("KRIYA_TEST_STR", "  value  ")
	t.Setenv("KRIYA_TEST_INT", "42")
	t.Setenv("KRIYA_TEST_BOOL", "false")
	t.Setenv("KRIYA_TEST_DUR", "90s")

	require.Equal(t, "value", getEnv("KRIYA_TEST_STR", "fallback"))
	require.Equal(t, "fallback", getEnv("KRIYA_TEST_MISSING", "fallback"))
	require.Equal(t, 42, getInt("KRIYA_TEST_INT", 1))
	require.Equal(t, 1, getInt("KRIYA_TEST_MISSING", 1))
	require.False(t, getBool("KRIYA_TEST_BOOL", true))
	require.Equal(t, 90*time.Second, getDuration("KRIYA_TEST_DUR", time.Second))
}

func TestSplitCSV(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitCSV("a, b,"))
	require.Nil(t, splitCSV("  "))
}
