// Package bbolt implements the ports.ReportStore interface using bbolt (embedded B+ tree).
// Each keyword set gets its own top-level bucket keyed by its set ID. Within that
// bucket, every scanned file has one JSON-serialized report keyed by its absolute
// path. Writes are transactional; a crash mid-write cannot corrupt previously
// committed data.
package bbolt

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/corey/acscan/internal/ports"
	bolt "go.etcd.io/bbolt"
)

var _ ports.ReportStore = (*Store)(nil)

// Store implements ports.ReportStore backed by bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens (or creates) a bbolt database at the given path.
// Fails after one second if another process holds the file lock.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport persists the report for report.Path under setID.
func (s *Store) SaveReport(setID string, report *ports.FileReport) error {
	if report == nil {
		return fmt.Errorf("nil report")
	}
	if report.Path == "" {
		return fmt.Errorf("report without path")
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		set, err := tx.CreateBucketIfNotExists([]byte(setID))
		if err != nil {
			return err
		}
		return set.Put([]byte(report.Path), data)
	})
}

// LoadReport retrieves the report for path under setID.
// Returns nil, nil if no report exists.
func (s *Store) LoadReport(setID, path string) (*ports.FileReport, error) {
	var data []byte

	err := s.db.View(func(tx *bolt.Tx) error {
		set := tx.Bucket([]byte(setID))
		if set == nil {
			return nil
		}
		// Copy bytes out of the transaction (bbolt slices are only valid within tx)
		if v := set.Get([]byte(path)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var report ports.FileReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report %q: %w", path, err)
	}
	return &report, nil
}

// ListReports returns every report stored under setID, ordered by path
// (bbolt keeps keys sorted).
func (s *Store) ListReports(setID string) ([]*ports.FileReport, error) {
	var reports []*ports.FileReport

	err := s.db.View(func(tx *bolt.Tx) error {
		set := tx.Bucket([]byte(setID))
		if set == nil {
			return nil
		}
		return set.ForEach(func(k, v []byte) error {
			var report ports.FileReport
			if err := json.Unmarshal(v, &report); err != nil {
				return fmt.Errorf("unmarshal report %q: %w", k, err)
			}
			reports = append(reports, &report)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

// ListKeywordSets returns the IDs of all keyword sets with stored reports.
func (s *Store) ListKeywordSets() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			ids = append(ids, string(name))
			return nil
		})
	})
	return ids, err
}

// DeleteReport removes the report for path under setID.
// Idempotent: deleting a nonexistent report is not an error.
func (s *Store) DeleteReport(setID, path string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		set := tx.Bucket([]byte(setID))
		if set == nil {
			return nil
		}
		return set.Delete([]byte(path))
	})
}

// DeleteKeywordSet removes all reports for a keyword set.
// Idempotent: deleting a nonexistent set is not an error.
func (s *Store) DeleteKeywordSet(setID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(setID)); errors.Is(err, bolt.ErrBucketNotFound) {
			return nil // idempotent
		} else {
			return err
		}
	})
}
