// Package config loads runtime settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultAddr       = ":8321"
	DefaultMaxTraces  = 500
	DefaultSessionTTL = 30 * time.Minute
)

// Settings is everything the process needs to start.
type Settings struct {
	Addr        string        // listen address
	DBPath      string        // DuckDB file; empty disables persistence
	CORSOrigins []string      // allowed origins; empty allows all
	MaxTraces   int           // in-memory trace window
	SessionTTL  time.Duration // idle session eviction
}

// Load reads settings from TRACEDECK_* environment variables, falling back
// to defaults. Unparseable values are logged and replaced by the default
// rather than failing startup.
func Load(logger *slog.Logger) Settings {
	s := Settings{
		Addr:       envOr("TRACEDECK_ADDR", DefaultAddr),
		DBPath:     os.Getenv("TRACEDECK_DB_PATH"),
		MaxTraces:  DefaultMaxTraces,
		SessionTTL: DefaultSessionTTL,
	}

	if raw := os.Getenv("TRACEDECK_CORS_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				s.CORSOrigins = append(s.CORSOrigins, origin)
			}
		}
	}

	if raw := os.Getenv("TRACEDECK_MAX_TRACES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			logger.Warn("invalid TRACEDECK_MAX_TRACES, using default", "value", raw, "default", DefaultMaxTraces)
		} else {
			s.MaxTraces = n
		}
	}

	if raw := os.Getenv("TRACEDECK_SESSION_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			logger.Warn("invalid TRACEDECK_SESSION_TTL, using default", "value", raw, "default", DefaultSessionTTL)
		} else {
			s.SessionTTL = d
		}
	}

	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
