package app

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// redrawInterval throttles status line redraws.
const redrawInterval = 100 * time.Millisecond

// Progress draws a single "scanned N/M files" status line. It only draws when
// its output is a terminal; otherwise every method is a no-op.
type Progress struct {
	mu      sync.Mutex
	w       io.Writer
	enabled bool
	total   int
	done    int
	matches int
	last    time.Time
	drawn   bool
}

// NewProgress returns a Progress on f, enabled only when f is a terminal.
func NewProgress(f *os.File) *Progress {
	return newProgress(f, term.IsTerminal(int(f.Fd())))
}

func newProgress(w io.Writer, enabled bool) *Progress {
	return &Progress{w: w, enabled: enabled}
}

// Start resets the counters for a batch of total files.
func (p *Progress) Start(total int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total, p.done, p.matches = total, 0, 0
	p.last = time.Time{}
}

// Advance records one finished file and its match count.
func (p *Progress) Advance(matches int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++
	p.matches += matches
	if p.done == p.total || time.Since(p.last) >= redrawInterval {
		p.draw()
	}
}

// Finish clears the status line so regular output starts on a clean line.
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.enabled && p.drawn {
		fmt.Fprint(p.w, "\r\033[K")
		p.drawn = false
	}
}

func (p *Progress) draw() {
	if !p.enabled {
		return
	}
	p.last = time.Now()
	p.drawn = true
	fmt.Fprintf(p.w, "\r\033[Kscanned %d/%d files, %d matches", p.done, p.total, p.matches)
}
