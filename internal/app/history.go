package app

import (
	"fmt"

	"github.com/corey/acscan/internal/adapters/bbolt"
	"github.com/corey/acscan/internal/adapters/keywords"
	"github.com/corey/acscan/internal/ports"
)

// History is the recorded-report view of one keyword set. Opening it loads
// the keyword list but builds no matcher, so a list that no longer fits the
// capacity limits can still be listed and cleared.
type History struct {
	SetID string

	store *bbolt.Store
}

// OpenHistory opens the report store at cfg.DBPath for the keyword list in
// cfg.Keywords.
func OpenHistory(cfg Config) (*History, error) {
	if cfg.Keywords == "" {
		return nil, fmt.Errorf("keyword list required")
	}
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("report store path required")
	}
	kws, err := keywords.Load(cfg.Keywords)
	if err != nil {
		return nil, err
	}
	store, err := bbolt.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &History{SetID: ReportSetID(kws, cfg), store: store}, nil
}

// Reports returns the stored reports for the keyword set, ordered by path.
func (h *History) Reports() ([]*ports.FileReport, error) {
	return h.store.ListReports(h.SetID)
}

// Forget drops every stored report for the keyword set.
func (h *History) Forget() error {
	return h.store.DeleteKeywordSet(h.SetID)
}

// Close releases the report store.
func (h *History) Close() error {
	return h.store.Close()
}
