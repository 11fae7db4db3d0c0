package ports

import "io"

// Match is a single keyword occurrence inside one scanned stream.
// Offsets are 0-based byte positions from the start of that stream and
// both ends are inclusive.
type Match struct {
	Keyword int   // index into the original keyword list
	Start   int64 // first byte of the occurrence
	End     int64 // last byte of the occurrence
}

// Matcher finds keywords in byte streams using multi-pattern matching (Aho-Corasick).
// A single pass over the stream finds all occurrences of every keyword
// simultaneously, regardless of how many keywords are in the set. This is
// O(n + m + z) where n=stream length, m=total keyword length, z=number of matches.
//
// A Matcher is built once from a fixed keyword list and is immutable afterwards.
// Scan may be called concurrently from any number of goroutines.
type Matcher interface {
	// Scan reads r to EOF and calls emit for every keyword occurrence, in
	// non-decreasing End order and ascending keyword index within one End.
	// A non-nil error from emit stops the scan and is returned as-is.
	// Read errors from r are returned wrapped.
	Scan(r io.Reader, emit func(Match) error) error

	// KeywordCount returns the number of keywords the matcher was built from,
	// duplicates included.
	KeywordCount() int

	// Keyword returns the bytes of keyword i. The caller must not modify them.
	Keyword(i int) []byte
}
