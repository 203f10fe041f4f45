// Package store keeps a journal of findings across runs.
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketFindings = []byte("findings")

// Finding is the outcome of one action.
type Finding struct {
	ID         uint64    `json:"id"`
	Action     string    `json:"action"`
	Target     string    `json:"target"`
	URL        string    `json:"url,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Found      bool      `json:"found"`
	Requests   int       `json:"requests"`
	OutputPath string    `json:"output_path,omitempty"`
	Version    string    `json:"version,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Journal records findings.
type Journal interface {
	Append(f *Finding) error
	Close() error
}

// BoltStore implements Journal using BoltDB.
type BoltStore struct {
	db *bolt.DB
}

// Open opens or creates a BoltDB journal at path.
func Open(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketFindings)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Append stores f under the next sequence number and sets f.ID.
func (s *BoltStore) Append(f *Finding) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFindings)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		id, err := b.NextSequence()
		if err != nil {
			return err
		}
		f.ID = id

		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to marshal finding: %w", err)
		}
		return b.Put(itob(id), data)
	})
}

// List returns every finding in insertion order.
func (s *BoltStore) List() ([]*Finding, error) {
	findings := make([]*Finding, 0)

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketFindings)
		if b == nil {
			return fmt.Errorf("bucket not found")
		}
		return b.ForEach(func(k, v []byte) error {
			var f Finding
			if err := json.Unmarshal(v, &f); err != nil {
				return fmt.Errorf("failed to unmarshal finding %d: %w", binary.BigEndian.Uint64(k), err)
			}
			findings = append(findings, &f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return findings, nil
}

// Close closes the database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
