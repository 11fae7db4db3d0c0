package integration

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

// acscanBin is the path to the compiled binary, set by TestMain.
var acscanBin string

func TestMain(m *testing.M) {
	// Build binary once for all tests.
	tmp, err := os.MkdirTemp("", "acscan-integration-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "create temp dir: %v\n", err)
		os.Exit(1)
	}

	acscanBin = filepath.Join(tmp, "acscan")
	cmd := exec.Command("go", "build", "-o", acscanBin, "./cmd/acscan/")
	cmd.Dir = findModuleRoot()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.RemoveAll(tmp)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmp)
	os.Exit(code)
}

// =============================================================================
// Helpers
// =============================================================================

// findModuleRoot walks up from cwd to find go.mod.
func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("go.mod not found")
		}
		dir = parent
	}
}

// setupProject creates a temp dir with a keyword list and a few files.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "kw.txt"), "he\nshe\nhis\nhers\n")
	writeFile(t, filepath.Join(dir, "data", "ushers.txt"), "ushers")
	writeFile(t, filepath.Join(dir, "data", "plain.txt"), "nothing to see")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// runAcscan executes the binary in dir with args, returns stdout, stderr, exit code.
func runAcscan(t *testing.T, dir string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	cmd := exec.Command(acscanBin, args...)
	cmd.Dir = dir

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()

	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("exec error (not ExitError): %v", err)
		}
	}
	return
}

// holdDBLock uses flock(1) to hold an exclusive lock on the bbolt file,
// simulating a second acscan process. Returns cleanup func.
func holdDBLock(t *testing.T, dbPath string) func() {
	t.Helper()
	if _, err := exec.LookPath("flock"); err != nil {
		t.Skip("flock(1) not available")
	}
	cmd := exec.Command("flock", "-x", dbPath, "-c", "sleep 60")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		t.Fatalf("flock: %v", err)
	}
	// Give flock time to acquire the lock.
	time.Sleep(200 * time.Millisecond)
	return func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	}
}

// =============================================================================
// Exit status
// =============================================================================

func TestScan_FoundExitsZero(t *testing.T) {
	dir := setupProject(t)
	stdout, stderr, exit := runAcscan(t, dir, "scan", "-k", "kw.txt", "data")
	if exit != 0 {
		t.Fatalf("exit %d\nstderr: %s", exit, stderr)
	}
	want := "data/ushers.txt:he:2:3\ndata/ushers.txt:she:1:3\ndata/ushers.txt:hers:2:5\n"
	if stdout != want {
		t.Errorf("stdout:\n%s\nwant:\n%s", stdout, want)
	}
}

func TestScan_NoMatchExitsOne(t *testing.T) {
	dir := setupProject(t)
	stdout, _, exit := runAcscan(t, dir, "scan", "-k", "kw.txt", "data/plain.txt")
	if exit != 1 {
		t.Errorf("exit %d, want 1", exit)
	}
	if stdout != "" {
		t.Errorf("unexpected output: %q", stdout)
	}
}

func TestScan_BuildFailureExitsTwo(t *testing.T) {
	dir := setupProject(t)
	_, stderr, exit := runAcscan(t, dir, "scan", "-k", "kw.txt", "--max-states", "3", "data")
	if exit != 2 {
		t.Errorf("exit %d, want 2", exit)
	}
	for _, want := range []string{"capacity exceeded", "--max-states"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestScan_UnknownFlagExitsTwo(t *testing.T) {
	dir := setupProject(t)
	_, _, exit := runAcscan(t, dir, "scan", "--bogus")
	if exit != 2 {
		t.Errorf("exit %d, want 2", exit)
	}
}

func TestScan_FailedFileLogged(t *testing.T) {
	dir := setupProject(t)
	stdout, stderr, exit := runAcscan(t, dir, "scan", "-k", "kw.txt", "missing.txt", "data/ushers.txt")
	if exit != 0 {
		t.Fatalf("exit %d, want 0 (one file matched)", exit)
	}
	if !strings.Contains(stdout, "ushers.txt:hers:2:5") {
		t.Errorf("missing match output:\n%s", stdout)
	}
	if !strings.Contains(stderr, "missing.txt") {
		t.Errorf("failure not logged:\n%s", stderr)
	}
}

func TestScan_DebugLogging(t *testing.T) {
	dir := setupProject(t)
	_, stderr, _ := runAcscan(t, dir, "--log-level", "debug", "scan", "-k", "kw.txt", "data")
	for _, want := range []string{"automaton built", "scan finished"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestScan_Stdin(t *testing.T) {
	dir := setupProject(t)
	cmd := exec.Command(acscanBin, "scan", "-k", "kw.txt", "--no-filename")
	cmd.Dir = dir
	cmd.Stdin = strings.NewReader("ushers")
	out, err := cmd.Output()
	if err != nil {
		t.Fatalf("scan stdin: %v", err)
	}
	if got, want := string(out), "he 2 3\nshe 1 3\nhers 2 5\n"; got != want {
		t.Errorf("stdout %q, want %q", got, want)
	}
}

// =============================================================================
// Report store
// =============================================================================

func TestScan_DBLocked(t *testing.T) {
	dir := setupProject(t)
	if err := os.MkdirAll(filepath.Join(dir, ".acscan"), 0755); err != nil {
		t.Fatal(err)
	}
	release := holdDBLock(t, filepath.Join(dir, ".acscan", "acscan.db"))
	defer release()

	_, stderr, exit := runAcscan(t, dir, "scan", "-k", "kw.txt", "--record", "data")
	if exit != 2 {
		t.Errorf("exit %d, want 2", exit)
	}
	if !strings.Contains(stderr, "locked") {
		t.Errorf("stderr should explain the lock:\n%s", stderr)
	}
}

func TestHistory_AfterRecord(t *testing.T) {
	dir := setupProject(t)
	if _, stderr, exit := runAcscan(t, dir, "scan", "-k", "kw.txt", "--record", "data"); exit != 0 {
		t.Fatalf("scan exit %d: %s", exit, stderr)
	}
	stdout, stderr, exit := runAcscan(t, dir, "history", "-k", "kw.txt")
	if exit != 0 {
		t.Fatalf("history exit %d: %s", exit, stderr)
	}
	if !strings.Contains(stdout, "2 reports") {
		t.Errorf("history output:\n%s", stdout)
	}
}

// =============================================================================
// Watch
// =============================================================================

func TestWatch_ReportsChangeAndStopsOnSignal(t *testing.T) {
	dir := setupProject(t)
	cmd := exec.Command(acscanBin, "watch", "-k", "kw.txt", "data")
	cmd.Dir = dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatal(err)
	}
	defer cmd.Process.Kill()

	lines := make(chan string, 64)
	go func() {
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	// seen reads output lines until one contains want or wait elapses.
	seen := func(want string, wait time.Duration) bool {
		timeout := time.After(wait)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					return false
				}
				if strings.Contains(line, want) {
					return true
				}
			case <-timeout:
				return false
			}
		}
	}

	if !seen("ushers.txt:hers:2:5", 10*time.Second) {
		t.Fatal("initial scan not reported")
	}

	// The watch is registered after the initial scan; keep changing the file
	// until a rescan is reported.
	target := filepath.Join(dir, "data", "plain.txt")
	deadline := time.Now().Add(10 * time.Second)
	for i := 0; ; i++ {
		writeFile(t, target, fmt.Sprintf("this %d", i))
		if seen("plain.txt:his:1:3", 200*time.Millisecond) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("change never reported")
		}
	}

	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("watch exit: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop on interrupt")
	}
}
