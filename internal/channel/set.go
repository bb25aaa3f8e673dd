package channel

import (
	"sort"
)

// Set holds a set of channel ids.
type Set map[int]struct{}

// NewSet returns a set holding the given ids.
func NewSet(ids ...int) Set {
	s := make(Set, len(ids))
	s.Add(ids...)
	return s
}

// Add adds the given ids.
func (s Set) Add(ids ...int) {
	for _, id := range ids {
		s[id] = struct{}{}
	}
}

// Has returns true when id is in the set.
func (s Set) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// HasAll returns true when all ids are in the set.
func (s Set) HasAll(ids ...int) bool {
	for _, id := range ids {
		if !s.Has(id) {
			return false
		}
	}
	return true
}

// Merge adds all ids of o.
func (s Set) Merge(o Set) {
	for id := range o {
		s[id] = struct{}{}
	}
}

// Slice returns the sorted ids.
func (s Set) Slice() []int {
	out := make([]int, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
