package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	log := NewWithOutput("debug", &buf, true)

	log.Info("Message persisted", "message_id", 100, "error", errors.New("boom"))

	var entry map[string]interface{}
	req.NoError(json.Unmarshal(buf.Bytes(), &entry))
	req.Equal("Message persisted", entry["msg"])
	req.Equal("info", entry["level"])
	req.EqualValues(100, entry["message_id"])
	req.Equal("boom", entry["error"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("warn", &buf, true)

	log.Info("hidden")
	log.Debug("hidden")
	require.Zero(t, buf.Len())

	log.Warn("shown")
	require.NotZero(t, buf.Len())
}

func TestLogger_WithAndOddArgs(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	log := NewWithOutput("info", &buf, true).With("session_id", "abc")

	log.Info("odd", "dangling")

	var entry map[string]interface{}
	req.NoError(json.Unmarshal(buf.Bytes(), &entry))
	req.Equal("abc", entry["session_id"])
	req.Equal("dangling", entry["extra"])
}

func TestLogger_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("verbose", &buf, true)

	log.Debug("hidden")
	require.Zero(t, buf.Len())
	log.Info("shown")
	require.NotZero(t, buf.Len())
}
