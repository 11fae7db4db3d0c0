// Package automaton implements an Aho-Corasick multi-pattern matcher over a
// bounded byte alphabet.
//
// An Automaton is built once from an ordered keyword list and is immutable
// afterwards. It is shared read-only between any number of concurrent scans;
// each scan keeps its own Cursor (current state + stream position).
//
// Construction:
//
//	keywords → trie insertion → root goto completion → BFS failure links
//	         → output sets merged along failure links
//
// Matching consumes one byte at a time. Transitions missing from the trie
// are resolved by following failure links until a state with an edge for the
// symbol is found; the root has an edge for every symbol, so the walk always
// terminates.
package automaton
