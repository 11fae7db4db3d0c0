package app

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WalkOptions controls which files a scan visits.
type WalkOptions struct {
	Recursive  bool
	Include    string // basename glob; empty = all
	Exclude    string // basename glob
	ExcludeDir string // directory basename glob
}

// PathError is a per-entry enumeration failure. The walk continues past it.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }
func (e *PathError) Unwrap() error { return e.Err }

// skipDirs are directories never recursed into.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"__pycache__":  true,
	DirName:        true,
	"vendor":       true,
	".venv":        true,
}

// CollectFiles expands roots into the ordered list of regular files to scan.
// A root naming a file is taken as-is; a directory is listed in lexical
// order. Each path appears once, at its first position. Entries that cannot
// be read come back as *PathError values alongside the files that could.
func CollectFiles(roots []string, opts WalkOptions) ([]string, []error) {
	var (
		files []string
		errs  []error
		seen  = make(map[string]bool)
	)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, &PathError{Path: root, Err: err})
			continue
		}
		switch {
		case !info.IsDir():
			add(root)
		case opts.Recursive:
			errs = append(errs, walkTree(root, opts, add)...)
		default:
			errs = append(errs, listDir(root, opts, add)...)
		}
	}
	return files, errs
}

func walkTree(root string, opts WalkOptions, add func(string)) []error {
	var errs []error
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, &PathError{Path: path, Err: err})
			return nil
		}
		if d.IsDir() {
			if path != root && opts.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && opts.wantFile(d.Name()) {
			add(path)
		}
		return nil
	})
	return errs
}

// listDir takes the regular files directly inside dir.
func listDir(dir string, opts WalkOptions, add func(string)) []error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []error{&PathError{Path: dir, Err: err}}
	}
	for _, e := range entries {
		if e.Type().IsRegular() && opts.wantFile(e.Name()) {
			add(filepath.Join(dir, e.Name()))
		}
	}
	return nil
}

func (o WalkOptions) skipDir(name string) bool {
	if skipDirs[name] {
		return true
	}
	if o.ExcludeDir != "" {
		if matched, _ := filepath.Match(o.ExcludeDir, name); matched {
			return true
		}
	}
	return false
}

// wantFile applies the include and exclude globs to a basename.
func (o WalkOptions) wantFile(name string) bool {
	if o.Include != "" {
		if matched, _ := filepath.Match(o.Include, name); !matched {
			return false
		}
	}
	if o.Exclude != "" {
		if matched, _ := filepath.Match(o.Exclude, name); matched {
			return false
		}
	}
	return true
}
