package automaton

import "github.com/bits-and-blooms/bitset"

// OutputSet is a bounded set of keyword indices in [0, Cap()).
//
// A nil *OutputSet is a valid empty set: states that recognize nothing carry
// no storage at all. All read methods are safe on nil.
type OutputSet struct {
	bits     *bitset.BitSet
	capacity int
}

// NewOutputSet returns an empty set able to hold indices below capacity.
func NewOutputSet(capacity int) *OutputSet {
	return &OutputSet{
		bits:     bitset.New(uint(capacity)),
		capacity: capacity,
	}
}

// Cap returns the addressable capacity.
func (s *OutputSet) Cap() int {
	if s == nil {
		return 0
	}
	return s.capacity
}

// Add inserts i. Indices outside [0, Cap()) are rejected, never truncated.
func (s *OutputSet) Add(i int) error {
	if i < 0 || i >= s.capacity {
		return &CapacityError{Resource: "output set", Limit: s.capacity, Requested: i + 1}
	}
	s.bits.Set(uint(i))
	return nil
}

// Contains reports whether i is a member.
func (s *OutputSet) Contains(i int) bool {
	if s == nil || i < 0 {
		return false
	}
	return s.bits.Test(uint(i))
}

// Union adds every member of other to s. A nil other is a no-op.
func (s *OutputSet) Union(other *OutputSet) {
	if other == nil {
		return
	}
	s.bits.InPlaceUnion(other.bits)
}

// Len returns the number of members.
func (s *OutputSet) Len() int {
	if s == nil {
		return 0
	}
	return int(s.bits.Count())
}

// Each calls fn for every member in ascending order.
func (s *OutputSet) Each(fn func(i int)) {
	if s == nil {
		return
	}
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		fn(int(i))
	}
}

// Members returns the members in ascending order.
func (s *OutputSet) Members() []int {
	if s.Len() == 0 {
		return nil
	}
	out := make([]int, 0, s.Len())
	s.Each(func(i int) { out = append(out, i) })
	return out
}

// Equal reports whether both sets have the same members. Capacity is not
// compared; nil equals any empty set.
func (s *OutputSet) Equal(other *OutputSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	eq := true
	s.Each(func(i int) {
		if !other.Contains(i) {
			eq = false
		}
	})
	return eq
}
