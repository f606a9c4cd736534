package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWriterLogger_EmitsRoleAndMessage(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger("engine", &buf)

	log.Info().Str("entity_id", "abc").Msg("created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["role"])
	assert.Equal(t, "created", entry["message"])
	assert.Equal(t, "abc", entry["entity_id"])
	assert.NotEmpty(t, entry["ts"])
}

func TestNop_DiscardsOutput(t *testing.T) {
	log := Nop()
	// Must not panic, must not write anywhere.
	log.Error().Msg("dropped")
}

func TestFromContext_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriterLogger("engine", &buf)

	ctx := log.WithContext(context.Background())
	FromContext(ctx).Info().Msg("scoped")

	assert.Contains(t, buf.String(), `"scoped"`)
	assert.Contains(t, buf.String(), `"engine"`)
}

func TestGetChildLogger_InheritsFields(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWriterLogger("engine", &buf)

	child := parent.GetChildLogger()
	child.Info().Msg("from child")

	assert.Contains(t, buf.String(), `"role":"engine"`)
}
