package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupWithWriter_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Component(SetupWithWriter("production", &buf), "session")

	l.Debug().Msg("hidden")
	l.Info().Int("moved", 3).Msg("split")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "split", rec["message"])
	require.Equal(t, "session", rec["component"])
	require.Equal(t, float64(3), rec["moved"])
}

func TestSetupWithWriter_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	l := SetupWithWriter("development", &buf)

	l.Debug().Msg("visible")
	require.Contains(t, buf.String(), "visible")
}
