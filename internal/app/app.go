// Package app wires the keyword loader, the matching engine, the report store
// and the file watcher into scan and watch runs.
package app

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/corey/acscan/internal/adapters/ahocorasick"
	"github.com/corey/acscan/internal/adapters/bbolt"
	"github.com/corey/acscan/internal/adapters/keywords"
	"github.com/corey/acscan/internal/domain/automaton"
	"github.com/corey/acscan/internal/ports"
)

// App is the top-level container for one keyword set.
type App struct {
	Matcher ports.Matcher
	Store   ports.ReportStore // nil unless reports are recorded
	SetID   string            // keyword-set fingerprint scoping stored reports

	cfg        Config
	log        zerolog.Logger
	closeStore func() error
}

// New loads cfg.Keywords and builds the matcher. The report store is opened
// when cfg.Record or cfg.Incremental is set.
func New(cfg Config) (*App, error) {
	if cfg.Keywords == "" {
		return nil, fmt.Errorf("keyword list required")
	}
	kws, err := keywords.Load(cfg.Keywords)
	if err != nil {
		return nil, err
	}
	return NewWithKeywords(cfg, kws)
}

// NewWithKeywords is New with an in-memory keyword list.
func NewWithKeywords(cfg Config, kws [][]byte) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{
		SetID: ReportSetID(kws, cfg),
		cfg:   cfg,
		log:   cfg.Log,
	}

	switch cfg.Engine {
	case EngineReference:
		if cfg.MaxKeywords > 0 && len(kws) > cfg.MaxKeywords {
			return nil, &automaton.CapacityError{Resource: "keywords", Limit: cfg.MaxKeywords, Requested: len(kws)}
		}
		a.Matcher = ahocorasick.Build(kws)
	default:
		auto, err := automaton.Build(kws, cfg.AutomatonConfig())
		if err != nil {
			return nil, fmt.Errorf("build automaton: %w", err)
		}
		if alpha := auto.Alphabet(); alpha.Aliased() {
			a.log.Warn().
				Int("alphabet", alpha.Size()).
				Msg("bytes outside the alphabet match as byte 0")
		}
		a.log.Debug().
			Int("keywords", auto.KeywordCount()).
			Int("states", auto.StateCount()).
			Int("alphabet", auto.AlphabetSize()).
			Msg("automaton built")
		a.Matcher = auto
	}

	if cfg.Record || cfg.Incremental {
		if cfg.DBPath == "" {
			return nil, fmt.Errorf("report store path required")
		}
		store, err := bbolt.NewStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		a.Store = store
		a.closeStore = store.Close
	}
	return a, nil
}

// ReportSetID names the report-store namespace for kws under cfg. Runs on an
// aliased alphabet match differently from full-byte runs, so their reports
// live apart.
func ReportSetID(kws [][]byte, cfg Config) string {
	id := keywords.SetID(kws)
	if cfg.Engine == EngineReference || cfg.AlphabetSize == 0 || cfg.AlphabetSize >= automaton.MaxAlphabetSize {
		return id
	}
	return fmt.Sprintf("%s-a%d", id, cfg.AlphabetSize)
}

// Config returns the configuration the App was built with.
func (a *App) Config() Config { return a.cfg }

// Close releases the report store, if any.
func (a *App) Close() error {
	if a.closeStore == nil {
		return nil
	}
	err := a.closeStore()
	a.closeStore = nil
	return err
}
