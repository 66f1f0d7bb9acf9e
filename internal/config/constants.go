package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Per-connection outbound event buffer. A slow reader that falls this far
// behind starts losing pushes; durable state reconciles on reconnect.
const EventBufferSize = 100

// History pagination bounds
const MaxPageSize = 200

// Attachment upload cap
const MaxUploadBytes = 10 << 20
