// Package ahocorasick provides a reference multi-pattern matcher backed by
// the petar-dambovaliev/aho-corasick library. It implements ports.Matcher
// with the same Match semantics as the native automaton and serves as an
// independent engine for cross-checking results.
//
// The library works on whole buffers, so Scan reads the stream fully into
// memory before matching.
package ahocorasick

import (
	"fmt"
	"io"
	"sort"

	"github.com/corey/acscan/internal/ports"
	aho "github.com/petar-dambovaliev/aho-corasick"
)

var _ ports.Matcher = (*Matcher)(nil)

// Matcher implements ports.Matcher on top of a library DFA.
// Build() compiles an automaton; Scan() and FindAll() report every
// occurrence of every keyword.
type Matcher struct {
	automaton aho.AhoCorasick
	keywords  [][]byte
	// owners maps a library pattern id to the keyword indices sharing that
	// text. The library sees each distinct non-empty keyword once.
	owners [][]int
	built  bool
}

// Build compiles the automaton for keywords. Empty keywords keep their index
// but never match.
func Build(keywords [][]byte) *Matcher {
	m := &Matcher{keywords: make([][]byte, len(keywords))}

	seen := make(map[string]int, len(keywords))
	var patterns []string
	for i, kw := range keywords {
		m.keywords[i] = append([]byte(nil), kw...)
		if len(kw) == 0 {
			continue
		}
		id, ok := seen[string(kw)]
		if !ok {
			id = len(patterns)
			seen[string(kw)] = id
			patterns = append(patterns, string(kw))
			m.owners = append(m.owners, nil)
		}
		m.owners[id] = append(m.owners[id], i)
	}

	if len(patterns) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			DFA: true,
		})
		m.automaton = builder.Build(patterns)
		m.built = true
	}
	return m
}

// FindAll returns every keyword occurrence in content, ordered by end
// offset and then keyword index.
func (m *Matcher) FindAll(content []byte) []ports.Match {
	if !m.built {
		return nil
	}
	iter := m.automaton.IterOverlappingByte(content)
	var matches []ports.Match
	for next := iter.Next(); next != nil; next = iter.Next() {
		hit := *next
		for _, k := range m.owners[hit.Pattern()] {
			matches = append(matches, ports.Match{
				Keyword: k,
				Start:   int64(hit.Start()),
				End:     int64(hit.End() - 1), // library ends are exclusive
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].End != matches[j].End {
			return matches[i].End < matches[j].End
		}
		return matches[i].Keyword < matches[j].Keyword
	})
	return matches
}

// Scan reads r fully and reports every match to emit.
func (m *Matcher) Scan(r io.Reader, emit func(ports.Match) error) error {
	content, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	for _, match := range m.FindAll(content) {
		if err := emit(match); err != nil {
			return err
		}
	}
	return nil
}

// KeywordCount returns the number of keywords, duplicates included.
func (m *Matcher) KeywordCount() int {
	return len(m.keywords)
}

// Keyword returns the keyword at the given index.
func (m *Matcher) Keyword(idx int) []byte {
	return m.keywords[idx]
}
