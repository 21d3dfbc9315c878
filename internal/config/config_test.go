package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadForTestsRequiresDatabaseURL(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL": "",
		"REDIS_URL":    "redis://localhost:6379/0",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadForTestsDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":      "postgres://localhost:5432/kasir",
		"REDIS_URL":         "redis://localhost:6379/0",
		"PORT":              "",
		"APP_ENV":           "",
		"QUEUE_PREFIX":      "",
		"TILL_LOCK_TTL":     "",
		"RATE_LIMIT_WINDOW": "",
		"RATE_LIMIT_MAX":    "",
		"SMTP_PORT":         "",
		"SMTP_FROM":         "",
	})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.AppEnv)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "kasir:queue", cfg.QueuePrefix)
	require.Equal(t, 5*time.Second, cfg.TillLockTTL)
	require.Equal(t, time.Minute, cfg.RateLimitWindow)
	require.Equal(t, 60, cfg.RateLimitMax)
	require.Equal(t, "587", cfg.SMTPPort)
	require.Equal(t, "kasir@localhost", cfg.SMTPFrom)
}

func TestLoadForTestsOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":         "postgres://localhost:5432/kasir",
		"REDIS_URL":            "redis://localhost:6379/0",
		"PORT":                 "9090",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"SMTP_HOST":            "mail.example.com",
		"SMTP_PORT":            "2525",
		"RATE_LIMIT_MAX":       "5",
		"TILL_LOCK_TTL":        "10s",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, "mail.example.com:2525", cfg.SMTPAddr())
	require.Equal(t, 5, cfg.RateLimitMax)
	require.Equal(t, 10*time.Second, cfg.TillLockTTL)
}

func TestParseDurationFallback(t *testing.T) {
	require.Equal(t, 5*time.Second, parseDuration("bogus", "5s"))
	require.Equal(t, 30*time.Second, parseDuration("30s", "5s"))
}
