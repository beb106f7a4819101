package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", DebugLevel},
		{" WARN ", WarnLevel},
		{"error", ErrorLevel},
		{"trace", InfoLevel},
		{"", InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestWithCall(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	Init(Config{Level: DebugLevel, JSONOutput: true, Output: &buf})

	logger := WithCall("pull_image", "op-1")
	logger.Info().Msg("done")
	line := decode(t, &buf)
	assert.Equal(t, "dispatch", line["component"])
	assert.Equal(t, "pull_image", line["tool"])
	assert.Equal(t, "op-1", line["operation_id"])

	buf.Reset()
	logger = WithCall("version", "")
	logger.Info().Msg("done")
	assert.NotContains(t, decode(t, &buf), "operation_id")
}

func TestInitLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})

	logger := WithComponent("connector")
	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	Errorf("Failed to close", errors.New("boom"))
	line := decode(t, &buf)
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "boom", line["error"])
}
