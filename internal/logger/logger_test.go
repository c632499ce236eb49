package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer

	l := New(&buf, "json")
	l.Info().Str("target", "127.0.0.1:27015").Msg("Query answered")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "127.0.0.1:27015", entry["target"])
	assert.Equal(t, "Query answered", entry["message"])
	assert.Contains(t, entry, "time")
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer

	l := New(&buf, "console")
	l.Warn().Msg("Queue full")

	assert.Contains(t, buf.String(), "Queue full")
	assert.NotContains(t, buf.String(), "\x1b[", "non-file writers are never colored")
}
