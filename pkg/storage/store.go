package storage

import (
	"github.com/cuemby/cri-mcp/pkg/types"
)

// Journal is an append-only record of tool calls. It never holds argument
// values, only the tool, outcome and timing of each call.
type Journal interface {
	// Record appends a call
	Record(rec types.CallRecord) error

	// List returns up to limit records, newest first. An empty tool matches
	// every tool; limit <= 0 means no limit.
	List(limit int, tool string) ([]types.CallRecord, error)

	// Utility
	Close() error
}
