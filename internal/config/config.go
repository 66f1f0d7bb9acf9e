package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port            int    `env:"PORT" envDefault:"8080"`
	DatabaseURL     string `env:"DATABASE_URL,required"`
	RedisURL        string `env:"REDIS_URL,required"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`
	TypingQuietMS   int    `env:"TYPING_QUIET_MS" envDefault:"2000"`
	HistoryPageSize int    `env:"HISTORY_PAGE_SIZE" envDefault:"50"`
	UploadDir       string `env:"UPLOAD_DIR" envDefault:"static/uploads"`
	UploadBaseURL   string `env:"UPLOAD_BASE_URL" envDefault:"/static/uploads"`
	AskEndpoint     string `env:"ASK_ENDPOINT"`
}

// TypingQuietWindow is how long a sender may stay silent before a
// typing-stopped event is emitted on their behalf.
func (c *Config) TypingQuietWindow() time.Duration {
	return time.Duration(c.TypingQuietMS) * time.Millisecond
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate() error {
	if c.TypingQuietMS <= 0 {
		return fmt.Errorf("TYPING_QUIET_MS must be positive, got %d", c.TypingQuietMS)
	}
	if c.HistoryPageSize <= 0 || c.HistoryPageSize > MaxPageSize {
		return fmt.Errorf("HISTORY_PAGE_SIZE must be between 1 and %d, got %d", MaxPageSize, c.HistoryPageSize)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
