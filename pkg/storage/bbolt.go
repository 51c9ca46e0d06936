package storage

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// BboltStore implements Store using bbolt. Layout: one top-level bucket per
// function, one nested bucket per label, one key per cycle index.
type BboltStore struct {
	db *bolt.DB
}

// NewBboltStore opens (or creates) a bbolt-backed record store
func NewBboltStore(dbPath string) (*BboltStore, error) {
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt database: %w", err)
	}

	return &BboltStore{db: db}, nil
}

// Save stores records in one transaction
func (s *BboltStore) Save(records ...Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, r := range records {
			fn, err := tx.CreateBucketIfNotExists([]byte(r.Function))
			if err != nil {
				return err
			}
			label, err := fn.CreateBucketIfNotExists([]byte(r.Result.Label))
			if err != nil {
				return err
			}
			data, err := encodeRecord(r)
			if err != nil {
				return err
			}
			if err := label.Put(cycleKey(r.Cycle.Index), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// History returns the records of one label in cycle order
func (s *BboltStore) History(function, label string) ([]Record, error) {
	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		bkt := labelBucket(tx, function, label)
		if bkt == nil {
			return nil
		}
		return bkt.ForEach(func(_, v []byte) error {
			r, err := decodeRecord(v)
			if err != nil {
				return err
			}
			records = append(records, r)
			return nil
		})
	})
	return records, err
}

// Labels lists the labels recorded for a function
func (s *BboltStore) Labels(function string) ([]string, error) {
	var labels []string
	err := s.db.View(func(tx *bolt.Tx) error {
		fn := tx.Bucket([]byte(function))
		if fn == nil {
			return nil
		}
		return fn.ForEachBucket(func(k []byte) error {
			labels = append(labels, string(k))
			return nil
		})
	})
	return labels, err
}

// Functions lists the recorded function names
func (s *BboltStore) Functions() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

// Size returns the size of the database file in bytes
func (s *BboltStore) Size() (int64, error) {
	var size int64
	err := s.db.View(func(tx *bolt.Tx) error {
		size = tx.Size()
		return nil
	})
	return size, err
}

// Close closes the database
func (s *BboltStore) Close() error {
	return s.db.Close()
}

func labelBucket(tx *bolt.Tx, function, label string) *bolt.Bucket {
	fn := tx.Bucket([]byte(function))
	if fn == nil {
		return nil
	}
	return fn.Bucket([]byte(label))
}
