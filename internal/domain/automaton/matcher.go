package automaton

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/corey/acscan/internal/ports"
)

// readBufferSize is the chunk size for streaming reads.
const readBufferSize = 64 * 1024

var _ ports.Matcher = (*Automaton)(nil)

// Cursor tracks one stream's position in an Automaton. It is the only
// per-stream state; any number of cursors may share one automaton.
// A Cursor is not safe for concurrent use.
type Cursor struct {
	a     *Automaton
	state int
	pos   int64
}

// NewCursor returns a cursor at the root, before the first byte.
func NewCursor(a *Automaton) *Cursor {
	return &Cursor{a: a}
}

// Reset rewinds the cursor to the root and position 0.
func (c *Cursor) Reset() {
	c.state = Root
	c.pos = 0
}

// State returns the current state id.
func (c *Cursor) State() int {
	return c.state
}

// Pos returns the number of bytes consumed since the last Reset.
func (c *Cursor) Pos() int64 {
	return c.pos
}

// Step consumes b and calls emit for every keyword ending at it, in
// ascending keyword index.
func (c *Cursor) Step(b byte, emit func(ports.Match)) {
	a := c.a
	c.state = a.Next(c.state, b)
	end := c.pos
	c.pos++
	a.out[c.state].Each(func(k int) {
		start := end - int64(len(a.keywords[k])) + 1
		if start < 0 {
			start = 0
		}
		emit(ports.Match{Keyword: k, Start: start, End: end})
	})
}

// Scan streams r through a fresh cursor, calling emit for every match.
// It reads in fixed-size chunks, so memory use does not depend on the
// stream length. An error returned by emit stops the scan and is returned
// unchanged.
func (a *Automaton) Scan(r io.Reader, emit func(ports.Match) error) error {
	cur := NewCursor(a)
	buf := make([]byte, readBufferSize)

	var emitErr error
	collect := func(m ports.Match) {
		if emitErr == nil {
			emitErr = emit(m)
		}
	}

	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			cur.Step(b, collect)
			if emitErr != nil {
				return emitErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read stream at byte %d: %w", cur.Pos(), err)
		}
	}
}

// FindAll returns every match in text.
func (a *Automaton) FindAll(text []byte) []ports.Match {
	var matches []ports.Match
	cur := NewCursor(a)
	for _, b := range text {
		cur.Step(b, func(m ports.Match) { matches = append(matches, m) })
	}
	return matches
}

// Scanner is a pull-based, lazy sequence of matches over one stream.
// It is finite and single-use; create a new Scanner to scan again.
//
//	sc := a.NewScanner(f)
//	for sc.Next() {
//		m := sc.Match()
//		...
//	}
//	if err := sc.Err(); err != nil {
//		...
//	}
type Scanner struct {
	cur     *Cursor
	r       *bufio.Reader
	pending []ports.Match
	match   ports.Match
	err     error
	done    bool
}

// NewScanner returns a Scanner reading r through a buffered reader.
func (a *Automaton) NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		cur: NewCursor(a),
		r:   bufio.NewReaderSize(r, readBufferSize),
	}
}

// Next advances to the next match. It returns false at end of stream or on
// a read error; check Err afterwards.
func (s *Scanner) Next() bool {
	for len(s.pending) == 0 {
		if s.done {
			return false
		}
		b, err := s.r.ReadByte()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = fmt.Errorf("read stream at byte %d: %w", s.cur.Pos(), err)
			}
			return false
		}
		s.cur.Step(b, func(m ports.Match) { s.pending = append(s.pending, m) })
	}
	s.match = s.pending[0]
	s.pending = s.pending[1:]
	return true
}

// Match returns the match produced by the last successful Next.
func (s *Scanner) Match() ports.Match {
	return s.match
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.err
}

// Offset returns the number of stream bytes consumed so far.
func (s *Scanner) Offset() int64 {
	return s.cur.Pos()
}

// All returns the remaining matches as an iterator. A read error is yielded
// once, as the final element, with a zero Match.
func (s *Scanner) All() iter.Seq2[ports.Match, error] {
	return func(yield func(ports.Match, error) bool) {
		for s.Next() {
			if !yield(s.Match(), nil) {
				return
			}
		}
		if s.err != nil {
			yield(ports.Match{}, s.err)
		}
	}
}
