package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr bool
	}{
		{name: "empty object", raw: "{}", want: map[string]any{}},
		{name: "empty string", raw: "", want: map[string]any{}},
		{name: "json", raw: `{"container_id": "c1", "tail": 20}`, want: map[string]any{"container_id": "c1", "tail": 20}},
		{name: "yaml flow", raw: "{container_id: c1, stream: stderr}", want: map[string]any{"container_id": "c1", "stream": "stderr"}},
		{name: "nested", raw: `{"labels": {"app": "web"}}`, want: map[string]any{"labels": map[string]any{"app": "web"}}},
		{name: "not an object", raw: "[1, 2]", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArguments(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "List containers.", firstSentence("List containers. Filters are combined."))
	assert.Equal(t, "Runtime version", firstSentence("Runtime version"))
}

func TestUnknownOutputFormat(t *testing.T) {
	assert.Error(t, printTools(nil, "xml"))
	assert.Error(t, printRecords(nil, "xml"))
}

func TestSubcommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "tools", "call", "history", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
