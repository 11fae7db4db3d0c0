package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/corey/acscan/internal/domain/automaton"
)

// Matching engines selectable by Config.Engine.
const (
	EngineNative    = "native"
	EngineReference = "reference"
)

// Config holds every knob that shapes a scan. Flags fill it on top of
// DefaultConfig and an optional YAML file.
type Config struct {
	Keywords     string `yaml:"keywords"`      // keyword list, one per line
	Engine       string `yaml:"engine"`        // native | reference
	MaxStates    int    `yaml:"max_states"`    // automaton state capacity
	MaxKeywords  int    `yaml:"max_keywords"`  // output set capacity
	AlphabetSize int    `yaml:"alphabet_size"` // 1..256
	Workers      int    `yaml:"workers"`       // concurrent file scans
	MaxPerFile   int    `yaml:"max_per_file"`  // 0 = unlimited
	Recursive    bool   `yaml:"recursive"`
	Include      string `yaml:"include"`     // basename glob
	Exclude      string `yaml:"exclude"`     // basename glob
	ExcludeDir   string `yaml:"exclude_dir"` // directory name glob
	Incremental  bool   `yaml:"incremental"` // skip files unchanged since the last report
	Record       bool   `yaml:"record"`      // persist per-file reports
	CountOnly    bool   `yaml:"-"`           // keep counts, drop individual matches
	DBPath       string `yaml:"db_path"`
	LogLevel     string `yaml:"log_level"`

	Log      zerolog.Logger `yaml:"-"`
	Progress *Progress      `yaml:"-"` // optional, nil = silent
}

// DefaultConfig returns the configuration used when nothing else is given.
func DefaultConfig() Config {
	return Config{
		Engine:       EngineNative,
		MaxStates:    automaton.DefaultMaxStates,
		MaxKeywords:  automaton.DefaultMaxKeywords,
		AlphabetSize: automaton.MaxAlphabetSize,
		Workers:      runtime.NumCPU(),
		Recursive:    true,
		LogLevel:     zerolog.LevelWarnValue,
		Log:          zerolog.Nop(),
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys absent from
// the file keep their current values; unknown keys are rejected.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	prev := cfg.Keywords
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	// A keyword list named in the file is relative to the file.
	if cfg.Keywords != prev && cfg.Keywords != "" && !filepath.IsAbs(cfg.Keywords) {
		cfg.Keywords = filepath.Join(filepath.Dir(path), cfg.Keywords)
	}
	return nil
}

// Validate rejects values that can never produce a working scan.
func (c Config) Validate() error {
	if c.Engine != EngineNative && c.Engine != EngineReference {
		return fmt.Errorf("%w: unknown engine %q (want %s or %s)",
			automaton.ErrInvalidConfig, c.Engine, EngineNative, EngineReference)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers %d < 1", automaton.ErrInvalidConfig, c.Workers)
	}
	if c.MaxPerFile < 0 {
		return fmt.Errorf("%w: max per file %d < 0", automaton.ErrInvalidConfig, c.MaxPerFile)
	}
	for _, g := range []string{c.Include, c.Exclude, c.ExcludeDir} {
		if g == "" {
			continue
		}
		if _, err := filepath.Match(g, ""); err != nil {
			return fmt.Errorf("%w: glob %q: %v", automaton.ErrInvalidConfig, g, err)
		}
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log level %q", automaton.ErrInvalidConfig, c.LogLevel)
	}
	return c.AutomatonConfig().Validate()
}

// AutomatonConfig extracts the limits handed to automaton.Build.
func (c Config) AutomatonConfig() automaton.Config {
	return automaton.Config{
		MaxStates:    c.MaxStates,
		MaxKeywords:  c.MaxKeywords,
		AlphabetSize: c.AlphabetSize,
	}
}

// WalkOptions extracts the enumeration settings.
func (c Config) WalkOptions() WalkOptions {
	return WalkOptions{
		Recursive:  c.Recursive,
		Include:    c.Include,
		Exclude:    c.Exclude,
		ExcludeDir: c.ExcludeDir,
	}
}
