package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn)

	log.Info("hidden")
	log.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "k=v")
}

func TestNewJSONWith(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, LevelDebug).With("component", "client")

	log.Debug("request", "status", 200)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "request", rec["msg"])
	assert.Equal(t, "client", rec["component"])
	assert.EqualValues(t, 200, rec["status"])
}

func TestNewFormat(t *testing.T) {
	var buf bytes.Buffer
	NewFormat(&buf, "JSON", LevelInfo).Info("as json")
	assert.True(t, json.Valid(buf.Bytes()), "output = %q", buf.String())

	buf.Reset()
	NewFormat(&buf, "logfmt", LevelInfo).Info("as text")
	assert.Contains(t, buf.String(), "msg=\"as text\"")
}

func TestNewNopDiscards(t *testing.T) {
	log := NewNop()
	log.Error("nothing happens")
	log.With("a", 1).Info("still nothing")
}

func TestOpenFileCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "corner.log")
	f, err := OpenFile(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	New(f, LevelInfo).Info("hello")
	require.NoError(t, f.Sync())
}
