package automaton

import "bytes"

// Root is the id of the start state.
const Root = 0

// noEdge marks a goto entry with no trie edge.
const noEdge int32 = -1

// Automaton is an immutable Aho-Corasick automaton. Build one with Build.
//
// State ids are dense in [0, StateCount()) with Root == 0. Ids are assigned
// in trie insertion order, so the same keyword list always yields the same
// ids.
type Automaton struct {
	alphabet Alphabet
	keywords [][]byte

	// trans is the goto table, row-major: trans[s*alphabet.Size()+sym].
	// Non-root rows hold noEdge where the trie has no edge; the root row is total.
	trans []int32
	fail  []int32
	out   []*OutputSet
}

// StateCount returns the number of states, root included.
func (a *Automaton) StateCount() int {
	return len(a.fail)
}

// KeywordCount returns the number of keywords, duplicates and empty ones included.
func (a *Automaton) KeywordCount() int {
	return len(a.keywords)
}

// Keyword returns keyword i as given to Build. The caller must not modify it.
func (a *Automaton) Keyword(i int) []byte {
	return a.keywords[i]
}

// Alphabet returns the symbol mapping the automaton was built with.
func (a *Automaton) Alphabet() Alphabet {
	return a.alphabet
}

// AlphabetSize returns the number of symbols per state.
func (a *Automaton) AlphabetSize() int {
	return a.alphabet.size
}

// Goto returns the goto entry of state s for sym. ok is false when s has no
// edge for sym; the root always has one.
func (a *Automaton) Goto(s, sym int) (next int, ok bool) {
	t := a.trans[s*a.alphabet.size+sym]
	if t == noEdge {
		return 0, false
	}
	return int(t), true
}

// Fail returns the failure link of s. The root links to itself.
func (a *Automaton) Fail(s int) int {
	return int(a.fail[s])
}

// Outputs returns the keyword indices recognized in state s, ascending.
func (a *Automaton) Outputs(s int) []int {
	return a.out[s].Members()
}

// Advance returns the state reached from s on sym, following failure links
// while s has no edge for sym. It always terminates because the root is total.
func (a *Automaton) Advance(s, sym int) int {
	size := a.alphabet.size
	for {
		if t := a.trans[s*size+sym]; t != noEdge {
			return int(t)
		}
		if s == Root {
			return Root
		}
		s = int(a.fail[s])
	}
}

// Next maps b through the alphabet and advances from s.
func (a *Automaton) Next(s int, b byte) int {
	return a.Advance(s, a.alphabet.Symbol(b))
}

// Equal reports whether a and b are identical: same keywords, alphabet,
// state ids, goto tables, failure links and output sets.
func (a *Automaton) Equal(b *Automaton) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.alphabet != b.alphabet || len(a.keywords) != len(b.keywords) ||
		len(a.trans) != len(b.trans) || len(a.fail) != len(b.fail) {
		return false
	}
	for i := range a.keywords {
		if !bytes.Equal(a.keywords[i], b.keywords[i]) {
			return false
		}
	}
	for i := range a.trans {
		if a.trans[i] != b.trans[i] {
			return false
		}
	}
	for s := range a.fail {
		if a.fail[s] != b.fail[s] || !a.out[s].Equal(b.out[s]) {
			return false
		}
	}
	return true
}
