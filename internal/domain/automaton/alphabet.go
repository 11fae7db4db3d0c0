package automaton

import "fmt"

// MaxAlphabetSize is the number of distinct byte values. An alphabet of this
// size maps every byte to its own symbol.
const MaxAlphabetSize = 256

// Alphabet maps raw input bytes to symbol indices in [0, Size()).
//
// Bytes with no distinct slot (b >= Size()) fall back to symbol 0, so two
// different bytes can share a transition when Size() < 256. Callers that need
// exact byte fidelity must use the full 256-symbol alphabet.
type Alphabet struct {
	size int
}

// NewAlphabet returns an identity alphabet of the given size.
func NewAlphabet(size int) (Alphabet, error) {
	if size < 1 || size > MaxAlphabetSize {
		return Alphabet{}, fmt.Errorf("%w: alphabet size %d not in [1, %d]",
			ErrInvalidConfig, size, MaxAlphabetSize)
	}
	return Alphabet{size: size}, nil
}

// Size returns the number of symbols.
func (a Alphabet) Size() int {
	return a.size
}

// Symbol maps b to its symbol index.
func (a Alphabet) Symbol(b byte) int {
	if int(b) < a.size {
		return int(b)
	}
	return 0
}

// Aliased reports whether some bytes share a symbol with byte 0.
func (a Alphabet) Aliased() bool {
	return a.size < MaxAlphabetSize
}
