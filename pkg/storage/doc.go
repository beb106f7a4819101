/*
Package storage provides the BoltDB-backed audit journal for cri-mcp.

Every dispatched tool call appends one CallRecord: an ID, the tool name, the
outcome kind, the failure message if any, the start time and the duration.
Argument values are never written, so credentials passed to pull_image and
commands passed to exec_sync stay out of the file.

# Layout

	<audit.path>          single bbolt file, mode 0600
	└── calls             bucket
	    ├── 0000000000000001 → {"id":..,"tool":..,"kind":"OK",..}
	    ├── 0000000000000002 → ...
	    └── ...               big-endian bucket sequence, insertion order

Keys come from the bucket sequence, so a cursor walks records in insertion
order and List walks it backwards for newest first. Once the journal holds
more than its record limit (DefaultMaxRecords unless configured), the oldest
records are dropped in the same transaction as the append.

# Concurrency

bbolt allows one writer process. The server holds the file open for its
lifetime; a second process opening it waits one second and then gets
ErrLocked. The history command therefore reads the journal while no server
is running, or reads a copy of the file.

# Usage

	j, err := storage.OpenBoltJournal("/var/lib/cri-mcp/audit.db", 0)
	if err != nil {
		return err
	}
	defer j.Close()

	recs, err := j.List(20, "pull_image")
*/
package storage
