package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("TypingQuietWindow converts millis to duration", func(t *testing.T) {
		cfg := &Config{TypingQuietMS: 2000}
		assert.Equal(t, 2*time.Second, cfg.TypingQuietWindow())
	})
}

func TestValidate(t *testing.T) {
	t.Run("accepts defaults", func(t *testing.T) {
		cfg := &Config{TypingQuietMS: 2000, HistoryPageSize: 50}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects non-positive typing window", func(t *testing.T) {
		cfg := &Config{TypingQuietMS: 0, HistoryPageSize: 50}
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects oversized page size", func(t *testing.T) {
		cfg := &Config{TypingQuietMS: 2000, HistoryPageSize: MaxPageSize + 1}
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":              os.Getenv("PORT"),
		"DATABASE_URL":      os.Getenv("DATABASE_URL"),
		"REDIS_URL":         os.Getenv("REDIS_URL"),
		"TYPING_QUIET_MS":   os.Getenv("TYPING_QUIET_MS"),
		"HISTORY_PAGE_SIZE": os.Getenv("HISTORY_PAGE_SIZE"),
		"LOG_LEVEL":         os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Unsetenv("PORT")
		os.Unsetenv("TYPING_QUIET_MS")
		os.Unsetenv("HISTORY_PAGE_SIZE")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
		assert.Equal(t, 2000, cfg.TypingQuietMS)
		assert.Equal(t, 50, cfg.HistoryPageSize)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("REDIS_URL", "redis://localhost:6379")
		os.Setenv("PORT", "9000")
		os.Setenv("TYPING_QUIET_MS", "500")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 9000, cfg.Port)
		assert.Equal(t, 500*time.Millisecond, cfg.TypingQuietWindow())
	})

	t.Run("fails without required values", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("REDIS_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}
