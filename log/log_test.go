package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "warn", false)

	l.Info().Msg("dropped")
	require.Zero(t, buf.Len())

	l.Warn().Str("k", "v").Msg("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "kept", line["message"])
	require.Equal(t, "v", line["k"])
	require.Equal(t, "lsp-deployer", line["service"])
}

func TestNewWithWriter_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "chatty", false)

	l.Debug().Msg("dropped")
	require.Zero(t, buf.Len())
	l.Info().Msg("kept")
	require.NotZero(t, buf.Len())
}
