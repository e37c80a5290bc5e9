package store

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/chronodrachma/verushash/pkg/core/types"
)

var (
	ErrRecordNotFound = errors.New("record not found in store")
)

// Record is one journaled V2b2 dispatch.
type Record struct {
	Digest    types.Hash
	Variant   string
	Decision  string
	Input     []byte // buffer as received
	Canonical []byte // buffer as hashed; nil when unchanged
	Time      time.Time
}

// Journal defines the interface for persistent verification records.
type Journal interface {
	SaveRecord(rec *Record) error
	GetRecord(digest types.Hash) (*Record, error)
	Counts() (map[string]uint64, error)
	Close() error
}

// BadgerStore implements Journal using BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

var _ Journal = (*BadgerStore)(nil)

// NewBadgerStore creates or opens a BadgerDB store at the given path.
// If path is empty, it opens an in-memory store (for testing).
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	// Reduce logging noise
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{
		db: db,
	}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// Keys:
// Record by digest: "record:digest:<hex>" -> gob encoded Record
// Decision count:   "count:<decision>"    -> uint64 big endian

func recordKey(digest types.Hash) []byte {
	return []byte(fmt.Sprintf("record:digest:%x", digest))
}

const countPrefix = "count:"

// SaveRecord stores rec under its digest and bumps the counter of its
// decision in the same transaction. A later record with the same digest
// replaces the earlier one but is counted again.
func (s *BadgerStore) SaveRecord(rec *Record) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(recordKey(rec.Digest), buf.Bytes()); err != nil {
			return err
		}

		countKey := []byte(countPrefix + rec.Decision)
		var count uint64
		item, err := txn.Get(countKey)
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				count = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
		case errors.Is(err, badger.ErrKeyNotFound):
		default:
			return err
		}

		var val [8]byte
		binary.BigEndian.PutUint64(val[:], count+1)
		return txn.Set(countKey, val[:])
	})
}

func (s *BadgerStore) GetRecord(digest types.Hash) (*Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(digest))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrRecordNotFound
			}
			return err
		}

		return item.Value(func(val []byte) error {
			return gob.NewDecoder(bytes.NewReader(val)).Decode(&rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Counts returns the number of saved records per decision.
func (s *BadgerStore) Counts() (map[string]uint64, error) {
	counts := make(map[string]uint64)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(countPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			decision := string(item.Key()[len(countPrefix):])
			if err := item.Value(func(val []byte) error {
				counts[decision] = binary.BigEndian.Uint64(val)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	return counts, err
}
