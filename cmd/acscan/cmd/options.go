package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/corey/acscan/internal/app"
)

// scanOptions holds the flags shared by scan and watch.
type scanOptions struct {
	keywords     string
	engine       string
	maxStates    int
	alphabetSize int
	maxKeywords  int
	workers      int
	maxPerFile   int
	include      string
	exclude      string
	excludeDir   string
	noRecursive  bool
	record       bool
	incremental  bool // scan only
	format       string
	color        string
	noFilename   bool
}

func addScanFlags(f *pflag.FlagSet, o *scanOptions) {
	d := app.DefaultConfig()
	f.StringVarP(&o.keywords, "keywords", "k", "", "Keyword list file, one keyword per line")
	f.StringVar(&o.engine, "engine", d.Engine, "Matching engine: native, reference")
	f.IntVar(&o.maxStates, "max-states", d.MaxStates, "Automaton state capacity")
	f.IntVar(&o.alphabetSize, "alphabet-size", d.AlphabetSize, "Symbols per state (1-256); higher bytes alias to 0")
	f.IntVar(&o.maxKeywords, "max-keywords", d.MaxKeywords, "Keyword capacity")
	f.IntVarP(&o.workers, "workers", "j", d.Workers, "Files scanned concurrently")
	f.IntVarP(&o.maxPerFile, "max-per-file", "m", 0, "Stop a file after N matches (0 = no limit)")
	f.StringVar(&o.include, "include", "", "File glob filter (include)")
	f.StringVar(&o.exclude, "exclude", "", "File glob filter (exclude)")
	f.StringVar(&o.excludeDir, "exclude-dir", "", "Directory glob filter (exclude)")
	f.BoolVar(&o.noRecursive, "no-recursive", false, "Only scan files directly inside directory arguments")
	f.BoolVar(&o.record, "record", false, "Record per-file reports in .acscan/acscan.db")
	f.StringVar(&o.format, "format", "text", "Output format: text, json")
	f.StringVar(&o.color, "color", "auto", "Color output: auto, always, never")
	f.BoolVar(&o.noFilename, "no-filename", false, "Print matches as \"keyword start end\"")
}

// config assembles the effective configuration: defaults, then the config
// file, then explicitly set flags.
func (o *scanOptions) config(flags *pflag.FlagSet) (app.Config, error) {
	cfg := app.DefaultConfig()
	paths := app.NewPaths(projectRoot())

	file := configFile
	if file == "" && paths.HasConfig() {
		file = paths.Config
	}
	if file != "" {
		if err := app.LoadConfigFile(file, &cfg); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("keywords") {
		cfg.Keywords = o.keywords
	}
	if flags.Changed("engine") {
		cfg.Engine = o.engine
	}
	if flags.Changed("max-states") {
		cfg.MaxStates = o.maxStates
	}
	if flags.Changed("alphabet-size") {
		cfg.AlphabetSize = o.alphabetSize
	}
	if flags.Changed("max-keywords") {
		cfg.MaxKeywords = o.maxKeywords
	}
	if flags.Changed("workers") {
		cfg.Workers = o.workers
	}
	if flags.Changed("max-per-file") {
		cfg.MaxPerFile = o.maxPerFile
	}
	if flags.Changed("include") {
		cfg.Include = o.include
	}
	if flags.Changed("exclude") {
		cfg.Exclude = o.exclude
	}
	if flags.Changed("exclude-dir") {
		cfg.ExcludeDir = o.excludeDir
	}
	if flags.Changed("no-recursive") {
		cfg.Recursive = !o.noRecursive
	}
	if flags.Changed("record") {
		cfg.Record = o.record
	}
	if flags.Changed("incremental") {
		cfg.Incremental = o.incremental
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if cfg.Keywords == "" {
		return cfg, fmt.Errorf("no keyword list: pass -k FILE or set keywords in the config file")
	}
	if o.format != "text" && o.format != "json" {
		return cfg, fmt.Errorf("unknown format %q (want text or json)", o.format)
	}
	if o.color != "auto" && o.color != "always" && o.color != "never" {
		return cfg, fmt.Errorf("unknown color mode %q (want auto, always or never)", o.color)
	}

	if (cfg.Record || cfg.Incremental) && cfg.DBPath == "" {
		if err := paths.EnsureDirs(); err != nil {
			return cfg, err
		}
		cfg.DBPath = paths.DB
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return cfg, err
	}
	cfg.Log = log
	return cfg, nil
}
