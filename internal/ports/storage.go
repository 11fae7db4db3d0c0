// Package ports defines the interfaces (contracts) that adapters must implement.
// These are the boundaries of the hexagonal architecture. Domain logic depends
// only on these interfaces, never on concrete implementations.
package ports

// ReportStore persists per-file scan reports to durable storage.
// The backing store (bbolt) is scoped by keyword set: each keyword-set ID gets
// its own namespace, so reports produced with a different keyword list never
// leak into each other. Concurrent reads are safe; writes are serialized by
// the adapter.
//
// Crash safety: SaveReport must be transactional. A crash mid-write must not
// corrupt previously committed reports.
type ReportStore interface {
	// SaveReport persists the report for report.Path under setID.
	// Overwrites any prior report for the same path.
	SaveReport(setID string, report *FileReport) error

	// LoadReport retrieves the report for path under setID.
	// Returns nil, nil if no report exists.
	LoadReport(setID, path string) (*FileReport, error)

	// ListReports returns every report stored under setID, ordered by path.
	ListReports(setID string) ([]*FileReport, error)

	// DeleteReport removes the report for path under setID.
	// Idempotent: deleting a nonexistent report is not an error.
	DeleteReport(setID, path string) error

	// DeleteKeywordSet removes all reports for a keyword set.
	// Idempotent: deleting a nonexistent set is not an error.
	DeleteKeywordSet(setID string) error
}

// FileReport summarizes the outcome of scanning one file with one keyword set.
type FileReport struct {
	Path      string      `json:"path"`       // absolute path of the scanned file
	Digest    uint64      `json:"digest"`     // xxhash64 of the scanned content
	Size      int64       `json:"size"`       // file size at scan time
	ModTime   int64       `json:"mod_time"`   // unix nanoseconds at scan time
	Matches   int         `json:"matches"`    // total occurrences found
	Counts    map[int]int `json:"counts"`     // keyword index -> occurrences
	Truncated bool        `json:"truncated"`  // scan stopped at the per-file limit
	ScannedAt int64       `json:"scanned_at"` // unix seconds
}
