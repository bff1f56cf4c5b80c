package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_Defaults(t *testing.T) {
	s := Load(discardLogger())
	assert.Equal(t, DefaultAddr, s.Addr)
	assert.Empty(t, s.DBPath)
	assert.Empty(t, s.CORSOrigins)
	assert.Equal(t, DefaultMaxTraces, s.MaxTraces)
	assert.Equal(t, DefaultSessionTTL, s.SessionTTL)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("TRACEDECK_ADDR", ":9000")
	t.Setenv("TRACEDECK_DB_PATH", "/tmp/traces.db")
	t.Setenv("TRACEDECK_CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("TRACEDECK_MAX_TRACES", "42")
	t.Setenv("TRACEDECK_SESSION_TTL", "5m")

	s := Load(discardLogger())
	assert.Equal(t, ":9000", s.Addr)
	assert.Equal(t, "/tmp/traces.db", s.DBPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.CORSOrigins)
	assert.Equal(t, 42, s.MaxTraces)
	assert.Equal(t, 5*time.Minute, s.SessionTTL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TRACEDECK_MAX_TRACES", "not-a-number")
	t.Setenv("TRACEDECK_SESSION_TTL", "-10s")

	s := Load(discardLogger())
	assert.Equal(t, DefaultMaxTraces, s.MaxTraces)
	assert.Equal(t, DefaultSessionTTL, s.SessionTTL)
}
