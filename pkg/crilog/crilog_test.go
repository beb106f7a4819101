package crilog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Line
		wantErr bool
	}{
		{
			name: "full stdout",
			raw:  "2016-10-06T00:17:09.669794202Z stdout F log content 1",
			want: Line{
				Time:    time.Date(2016, 10, 6, 0, 17, 9, 669794202, time.UTC),
				Stream:  Stdout,
				Message: "log content 1",
			},
		},
		{
			name: "partial stderr",
			raw:  "2016-10-06T00:17:09.669794203Z stderr P part",
			want: Line{
				Time:    time.Date(2016, 10, 6, 0, 17, 9, 669794203, time.UTC),
				Stream:  Stderr,
				Partial: true,
				Message: "part",
			},
		},
		{
			name: "empty message",
			raw:  "2016-10-06T00:17:09.669794202Z stdout F",
			want: Line{
				Time:   time.Date(2016, 10, 6, 0, 17, 9, 669794202, time.UTC),
				Stream: Stdout,
			},
		},
		{
			name: "message keeps spaces",
			raw:  "2016-10-06T00:17:09Z stdout F a  b ",
			want: Line{
				Time:    time.Date(2016, 10, 6, 0, 17, 9, 0, time.UTC),
				Stream:  Stdout,
				Message: "a  b ",
			},
		},
		{name: "bad timestamp", raw: "yesterday stdout F x", wantErr: true},
		{name: "bad stream", raw: "2016-10-06T00:17:09Z stdin F x", wantErr: true},
		{name: "bad tag", raw: "2016-10-06T00:17:09Z stdout X x", wantErr: true},
		{name: "only timestamp", raw: "2016-10-06T00:17:09Z", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Time.Equal(got.Time))
			assert.Equal(t, tt.want.Stream, got.Stream)
			assert.Equal(t, tt.want.Partial, got.Partial)
			assert.Equal(t, tt.want.Message, got.Message)
		})
	}
}

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "0.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func TestTail(t *testing.T) {
	path := writeLog(t,
		"2024-01-01T00:00:00Z stdout F one",
		"2024-01-01T00:00:01Z stderr F warn",
		"2024-01-01T00:00:02Z stdout P two-",
		"2024-01-01T00:00:03Z stdout F part",
		"garbage line",
		"2024-01-01T00:00:04Z stdout F three",
	)

	all, err := Tail(path, 10, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "two-part", all[2].Message)
	assert.False(t, all[2].Partial)

	last, err := Tail(path, 2, Stdout)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "two-part", last[0].Message)
	assert.Equal(t, "three", last[1].Message)

	stderr, err := Tail(path, 10, Stderr)
	require.NoError(t, err)
	require.Len(t, stderr, 1)
	assert.Equal(t, "warn", stderr[0].Message)

	none, err := Tail(path, 0, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTailRawLargeFile(t *testing.T) {
	lines := make([]string, 20000)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %05d %s", i, strings.Repeat("x", 20))
	}
	path := writeLog(t, lines...)

	got, err := TailRaw(path, 3)
	require.NoError(t, err)
	assert.Equal(t, lines[len(lines)-3:], got)
}

func TestTailRawMissingFile(t *testing.T) {
	_, err := TailRaw(filepath.Join(t.TempDir(), "missing.log"), 10)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestTailRawEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	got, err := TailRaw(path, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}
