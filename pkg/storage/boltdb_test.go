package storage

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/cuemby/cri-mcp/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(i int, tool string, kind types.Kind) types.CallRecord {
	return types.CallRecord{
		ID:        fmt.Sprintf("call-%d", i),
		Tool:      tool,
		Kind:      kind,
		StartedAt: time.Unix(int64(1700000000+i), 0).UTC(),
		Duration:  time.Duration(i) * time.Millisecond,
	}
}

func TestJournalRecordAndList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit", "journal.db")
	j, err := OpenBoltJournal(path, 0)
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.Record(record(1, "list_containers", types.KindOK)))
	require.NoError(t, j.Record(record(2, "pull_image", types.KindDeadlineExceeded)))
	require.NoError(t, j.Record(record(3, "list_containers", types.KindUnavailable)))

	tests := []struct {
		name  string
		limit int
		tool  string
		want  []string
	}{
		{name: "all newest first", want: []string{"call-3", "call-2", "call-1"}},
		{name: "limit", limit: 2, want: []string{"call-3", "call-2"}},
		{name: "by tool", tool: "list_containers", want: []string{"call-3", "call-1"}},
		{name: "no match", tool: "exec", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := j.List(tt.limit, tt.tool)
			require.NoError(t, err)
			got := []string{}
			for _, r := range recs {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	recs, err := j.List(1, "pull_image")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, types.KindDeadlineExceeded, recs[0].Kind)
	assert.Equal(t, 2*time.Millisecond, recs[0].Duration)
	assert.True(t, recs[0].StartedAt.Equal(time.Unix(1700000002, 0)))
}

func TestJournalRetention(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenBoltJournal(path, 5)
	require.NoError(t, err)

	for i := 1; i <= 8; i++ {
		require.NoError(t, j.Record(record(i, "version", types.KindOK)))
	}
	recs, err := j.List(0, "")
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, "call-8", recs[0].ID)
	assert.Equal(t, "call-4", recs[4].ID)
	require.NoError(t, j.Close())

	// The count survives a reopen, so the limit still holds.
	j, err = OpenBoltJournal(path, 5)
	require.NoError(t, err)
	defer j.Close()
	require.NoError(t, j.Record(record(9, "version", types.KindOK)))
	recs, err = j.List(0, "")
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, "call-5", recs[4].ID)
}

func TestJournalReadOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := OpenBoltJournal(path, 0)
	require.NoError(t, err)
	require.NoError(t, j.Record(record(1, "version", types.KindOK)))
	require.NoError(t, j.Close())

	ro, err := OpenBoltJournalReadOnly(path)
	require.NoError(t, err)
	defer ro.Close()

	recs, err := ro.List(0, "")
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestJournalMissingFile(t *testing.T) {
	_, err := OpenBoltJournalReadOnly(filepath.Join(t.TempDir(), "absent.db"))
	assert.Error(t, err)
}
