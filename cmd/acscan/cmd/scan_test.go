package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Helpers
// =============================================================================

// resetFlags restores every flag below c to its default so commands can be
// executed repeatedly in one process.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCLI executes acscan with args inside a fresh project directory and
// returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// project creates a working directory with a keyword list and files, and
// makes it the current directory for the test.
func project(t *testing.T, keywords string, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("kw.txt", []byte(keywords), 0644))
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

// =============================================================================
// scan
// =============================================================================

func TestScanCmd_Text(t *testing.T) {
	project(t, "he\nshe\nhis\nhers\n", map[string]string{"data/ushers.txt": "ushers"})

	out, err := runCLI(t, "", "scan", "-k", "kw.txt", "data")
	require.NoError(t, err)
	p := filepath.Join("data", "ushers.txt")
	assert.Equal(t, p+":he:2:3\n"+p+":she:1:3\n"+p+":hers:2:5\n", out)
}

func TestScanCmd_NoMatchExitsOne(t *testing.T) {
	project(t, "needle\n", map[string]string{"hay.txt": "hay"})

	out, err := runCLI(t, "", "scan", "-k", "kw.txt", "hay.txt")
	assert.Empty(t, out)
	assert.Equal(t, 1, ExitCode(err))
}

func TestScanCmd_AllFailedExitsTwo(t *testing.T) {
	project(t, "needle\n", nil)

	_, err := runCLI(t, "", "scan", "-k", "kw.txt", "missing.txt")
	assert.Equal(t, 2, ExitCode(err))
}

func TestScanCmd_JSON(t *testing.T) {
	project(t, "ab\n", map[string]string{"f": "abab"})

	out, err := runCLI(t, "", "scan", "-k", "kw.txt", "--format", "json", "f")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)

	var m jsonMatch
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &m))
	assert.Equal(t, jsonMatch{Path: "f", Keyword: "ab", Index: 0, Start: 2, End: 3}, m)
}

func TestScanCmd_Count(t *testing.T) {
	project(t, "a\n", map[string]string{"one": "aaa", "two": "b"})

	// The keyword list itself sits in the walked directory.
	out, err := runCLI(t, "", "scan", "-k", "kw.txt", "-c", ".")
	require.NoError(t, err)
	assert.Equal(t, "kw.txt:1\none:3\ntwo:0\n", out)
}

func TestScanCmd_Quiet(t *testing.T) {
	project(t, "a\n", map[string]string{"one": "aaa"})

	out, err := runCLI(t, "", "scan", "-k", "kw.txt", "-q", "one")
	assert.Empty(t, out)
	assert.Equal(t, 0, ExitCode(err))
}

func TestScanCmd_Stdin(t *testing.T) {
	project(t, "he\nshe\n", nil)

	out, err := runCLI(t, "ushers", "scan", "-k", "kw.txt", "--no-filename", "-")
	require.NoError(t, err)
	assert.Equal(t, "he 2 3\nshe 1 3\n", out)
}

func TestScanCmd_MaxPerFile(t *testing.T) {
	project(t, "a\n", map[string]string{"f": "aaaaa"})

	out, err := runCLI(t, "", "scan", "-k", "kw.txt", "-m", "2", "f")
	require.NoError(t, err)
	assert.Equal(t, "f:a:0:0\nf:a:1:1\n", out)
}

func TestScanCmd_NoRecursive(t *testing.T) {
	project(t, "x\n", map[string]string{"d/top": "x", "d/sub/deep": "x"})

	out, err := runCLI(t, "", "scan", "-k", "kw.txt", "--no-recursive", "d")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("d", "top")+":x:0:0\n", out)
}

func TestScanCmd_Filters(t *testing.T) {
	project(t, "x\n", map[string]string{
		"src/a.go":     "x",
		"src/a.txt":    "x",
		"build/b.go":   "x",
		"src/gen.x.go": "x",
	})

	out, err := runCLI(t, "", "scan", "-k", "kw.txt",
		"--include", "*.go", "--exclude", "*.x.go", "--exclude-dir", "build", ".")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("src", "a.go")+":x:0:0\n", out)
}

func TestScanCmd_ReferenceEngine(t *testing.T) {
	project(t, "he\nshe\nhis\nhers\n", map[string]string{"u": "ushers"})

	native, err := runCLI(t, "", "scan", "-k", "kw.txt", "u")
	require.NoError(t, err)
	ref, err := runCLI(t, "", "scan", "-k", "kw.txt", "--engine", "reference", "u")
	require.NoError(t, err)
	assert.Equal(t, native, ref)
}

func TestScanCmd_AliasedAlphabet(t *testing.T) {
	// With two symbols every byte other than 0x01 reads as 0x00.
	project(t, "\x00\x01\n", map[string]string{"f": "z\x01"})

	out, err := runCLI(t, "", "scan", "-k", "kw.txt", "--alphabet-size", "2", "-c", "f")
	require.NoError(t, err)
	assert.Equal(t, "f:1\n", out)
}

func TestScanCmd_ConfigFile(t *testing.T) {
	project(t, "x\n", map[string]string{
		"f":                   "xx",
		".acscan/config.yaml": "keywords: ../kw.txt\nmax_per_file: 1\n",
	})

	out, err := runCLI(t, "", "scan", "f")
	require.NoError(t, err)
	assert.Equal(t, "f:x:0:0\n", out)

	// Flags override the file.
	out, err = runCLI(t, "", "scan", "-m", "0", "f")
	require.NoError(t, err)
	assert.Equal(t, "f:x:0:0\nf:x:1:1\n", out)
}

func TestScanCmd_Errors(t *testing.T) {
	project(t, "x\n", map[string]string{"f": "x"})

	_, err := runCLI(t, "", "scan", "f")
	assert.ErrorContains(t, err, "keyword list")

	_, err = runCLI(t, "", "scan", "-k", "kw.txt", "--format", "xml", "f")
	assert.ErrorContains(t, err, "unknown format")

	_, err = runCLI(t, "", "scan", "-k", "kw.txt", "--alphabet-size", "0", "f")
	assert.NoError(t, err, "zero alphabet size takes the default")

	_, err = runCLI(t, "", "scan", "-k", "kw.txt", "--alphabet-size", "300", "f")
	assert.Error(t, err)
	assert.Equal(t, -1, ExitCode(err))

	_, err = runCLI(t, "", "scan", "-k", "kw.txt", "--max-states", "1", "f")
	assert.ErrorContains(t, err, "states")

	_, err = runCLI(t, "", "scan", "-k", "missing.txt", "f")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// =============================================================================
// incremental + history
// =============================================================================

func TestScanCmd_IncrementalAndHistory(t *testing.T) {
	dir := project(t, "x\n", map[string]string{"a": "x", "b": "xx"})

	out, err := runCLI(t, "", "scan", "-k", "kw.txt", "--incremental", "-c", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a:1\nb:2\n", out)
	assert.FileExists(t, filepath.Join(dir, ".acscan", "acscan.db"))

	// Unchanged files are answered from the stored reports.
	out, err = runCLI(t, "", "scan", "-k", "kw.txt", "--incremental", "-c", "--format", "json", "a", "b")
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var c jsonCount
		require.NoError(t, json.Unmarshal([]byte(line), &c))
		assert.True(t, c.Skipped, c.Path)
	}

	out, err = runCLI(t, "", "history", "-k", "kw.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "2 reports")
	assert.Contains(t, out, filepath.Join(dir, "a")+":1")
	assert.Contains(t, out, filepath.Join(dir, "b")+":2")

	out, err = runCLI(t, "", "history", "-k", "kw.txt", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")

	out, err = runCLI(t, "", "history", "-k", "kw.txt", "--format", "json")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestHistoryCmd_OverCapacityList(t *testing.T) {
	dir := project(t, "x\n", map[string]string{"a": "x"})

	_, err := runCLI(t, "", "scan", "-k", "kw.txt", "--record", "a")
	require.NoError(t, err)

	// The list no longer fits the configured limits; its history is still
	// readable and clearable.
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".acscan", "config.yaml"), []byte("max_states: 1\n"), 0644))
	_, err = runCLI(t, "", "scan", "-k", "kw.txt", "a")
	require.Error(t, err)

	out, err := runCLI(t, "", "history", "-k", "kw.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "1 reports")

	out, err = runCLI(t, "", "history", "-k", "kw.txt", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")
}

func TestHistoryCmd_AlphabetSize(t *testing.T) {
	project(t, "x\n", map[string]string{"a": "x"})

	_, err := runCLI(t, "", "scan", "-k", "kw.txt", "--record", "--alphabet-size", "128", "a")
	require.NoError(t, err)

	out, err := runCLI(t, "", "history", "-k", "kw.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "0 reports")

	out, err = runCLI(t, "", "history", "-k", "kw.txt", "--alphabet-size", "128")
	require.NoError(t, err)
	assert.Contains(t, out, "1 reports")
}

// =============================================================================
// config
// =============================================================================

func TestConfigCmd(t *testing.T) {
	dir := project(t, "", map[string]string{".acscan/config.yaml": "workers: 3\nengine: reference\n"})

	out, err := runCLI(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(dir, ".acscan", "acscan.db"))
	assert.Contains(t, out, "workers: 3")
	assert.Contains(t, out, "engine: reference")
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "none recorded")
}

func TestConfigCmd_RecordedSets(t *testing.T) {
	project(t, "x\n", map[string]string{"a": "x"})

	_, err := runCLI(t, "", "scan", "-k", "kw.txt", "--record", "a")
	require.NoError(t, err)

	out, err := runCLI(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "1 keyword sets")
}

func TestConfigCmd_Invalid(t *testing.T) {
	project(t, "", map[string]string{".acscan/config.yaml": "workers: 0\n"})

	out, err := runCLI(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "workers 0 < 1")
}
