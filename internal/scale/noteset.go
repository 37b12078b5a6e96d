package scale

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// NoteSet is a set of scale degrees that always iterates in ascending
// numeric order. The zero value is an empty set ready to use.
type NoteSet struct {
	degrees []int // sorted, unique
}

func NewNoteSet(degrees ...int) NoteSet {
	var s NoteSet
	for _, d := range degrees {
		s = s.Add(d)
	}
	return s
}

// Add returns a set that also contains degree. The receiver is not modified.
func (s NoteSet) Add(degree int) NoteSet {
	i := sort.SearchInts(s.degrees, degree)
	if i < len(s.degrees) && s.degrees[i] == degree {
		return s
	}
	out := make([]int, 0, len(s.degrees)+1)
	out = append(out, s.degrees[:i]...)
	out = append(out, degree)
	out = append(out, s.degrees[i:]...)
	return NoteSet{degrees: out}
}

// Remove returns a set without degree. The receiver is not modified.
func (s NoteSet) Remove(degree int) NoteSet {
	i := sort.SearchInts(s.degrees, degree)
	if i >= len(s.degrees) || s.degrees[i] != degree {
		return s
	}
	out := make([]int, 0, len(s.degrees)-1)
	out = append(out, s.degrees[:i]...)
	out = append(out, s.degrees[i+1:]...)
	return NoteSet{degrees: out}
}

func (s NoteSet) Toggle(degree int) NoteSet {
	if s.Contains(degree) {
		return s.Remove(degree)
	}
	return s.Add(degree)
}

func (s NoteSet) Contains(degree int) bool {
	i := sort.SearchInts(s.degrees, degree)
	return i < len(s.degrees) && s.degrees[i] == degree
}

func (s NoteSet) Len() int { return len(s.degrees) }

// Sorted returns a copy of the degrees in ascending order.
func (s NoteSet) Sorted() []int {
	out := make([]int, len(s.degrees))
	copy(out, s.degrees)
	return out
}

// at returns the i-th smallest degree without copying.
func (s NoteSet) at(i int) int { return s.degrees[i] }

func (s NoteSet) String() string {
	parts := make([]string, len(s.degrees))
	for i, d := range s.degrees {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// ParseNoteSet reads a comma or space separated list of degrees, e.g. "0,2,4".
// An empty string yields an empty set.
func ParseNoteSet(text string) (NoteSet, error) {
	var s NoteSet
	for _, field := range splitList(text) {
		d, err := strconv.Atoi(field)
		if err != nil {
			return NoteSet{}, fmt.Errorf("parse degree %q: %w", field, err)
		}
		s = s.Add(d)
	}
	return s, nil
}

// ParseCents reads a comma or space separated list of cent values.
func ParseCents(text string) ([]float64, error) {
	fields := splitList(text)
	out := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parse cents %q: %w", field, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
