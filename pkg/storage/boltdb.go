package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cuemby/cri-mcp/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var bucketCalls = []byte("calls")

const (
	// DefaultMaxRecords bounds the journal; the oldest records are dropped
	DefaultMaxRecords = 10000

	openTimeout = time.Second
)

// ErrLocked is returned when another process holds the journal open
var ErrLocked = errors.New("journal is in use by another process")

// BoltJournal implements Journal using BoltDB. Records are keyed by the
// bucket sequence, so key order is insertion order.
type BoltJournal struct {
	db         *bolt.DB
	maxRecords int

	mu    sync.Mutex
	count int
}

// OpenBoltJournal opens or creates the journal file at path
func OpenBoltJournal(path string, maxRecords int) (*BoltJournal, error) {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxRecords
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &BoltJournal{db: db, maxRecords: maxRecords}
	err = db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketCalls)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketCalls, err)
		}
		j.count = b.Stats().KeyN
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// OpenBoltJournalReadOnly opens an existing journal for listing
func OpenBoltJournalReadOnly(path string) (*BoltJournal, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout, ReadOnly: true})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return &BoltJournal{db: db}, nil
}

// Close closes the database
func (j *BoltJournal) Close() error {
	return j.db.Close()
}

// Record appends a call and drops the oldest records past the limit
func (j *BoltJournal) Record(rec types.CallRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCalls)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(sequenceKey(seq), data); err != nil {
			return err
		}
		j.count++

		c := b.Cursor()
		for k, _ := c.First(); k != nil && j.count > j.maxRecords; k, _ = c.First() {
			if err := c.Delete(); err != nil {
				return err
			}
			j.count--
		}
		return nil
	})
}

// List returns records newest first
func (j *BoltJournal) List(limit int, tool string) ([]types.CallRecord, error) {
	records := []types.CallRecord{}
	err := j.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCalls)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec types.CallRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("corrupt journal record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			if tool != "" && rec.Tool != tool {
				continue
			}
			records = append(records, rec)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})
	return records, err
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
