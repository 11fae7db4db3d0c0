package app

import (
	"os"
	"path/filepath"
)

// DirName is the per-project state directory.
const DirName = ".acscan"

// Paths holds the resolved filesystem paths under the .acscan/ directory.
type Paths struct {
	Root   string // .acscan/
	DB     string // .acscan/acscan.db
	Config string // .acscan/config.yaml
}

// NewPaths resolves all paths from a project root directory.
func NewPaths(projectRoot string) *Paths {
	root := filepath.Join(projectRoot, DirName)
	return &Paths{
		Root:   root,
		DB:     filepath.Join(root, "acscan.db"),
		Config: filepath.Join(root, "config.yaml"),
	}
}

// EnsureDirs creates .acscan/. Idempotent.
func (p *Paths) EnsureDirs() error {
	return os.MkdirAll(p.Root, 0755)
}

// HasConfig reports whether a project config file is present.
func (p *Paths) HasConfig() bool {
	info, err := os.Stat(p.Config)
	return err == nil && info.Mode().IsRegular()
}
