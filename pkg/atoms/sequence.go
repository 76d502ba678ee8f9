// Package atoms provides the immutable atom sequences used as trie keys and cache keys.
package atoms

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Atom is the smallest unit of a sequence, one code point.
type Atom = rune

// Sequence is an ordered, immutable run of atoms.
// It is backed by a UTF-8 string so equality and hashing are by value.
type Sequence string

// Empty is the zero-length sequence.
const Empty Sequence = ""

// FromAtoms builds a sequence from a slice of atoms.
func FromAtoms(as []Atom) Sequence {
	return Sequence(string(as))
}

// Atoms returns a fresh slice holding the atoms of s.
func (s Sequence) Atoms() []Atom {
	return []rune(string(s))
}

// Len returns the number of atoms, not bytes.
func (s Sequence) Len() int {
	return utf8.RuneCountInString(string(s))
}

// IsEmpty reports whether s has no atoms.
func (s Sequence) IsEmpty() bool {
	return len(s) == 0
}

// At returns the i-th atom. It panics on a negative or out-of-range index.
func (s Sequence) At(i int) Atom {
	if i < 0 {
		panic(fmt.Sprintf("atoms: negative index %d", i))
	}
	n := 0
	for _, r := range string(s) {
		if n == i {
			return r
		}
		n++
	}
	panic(fmt.Sprintf("atoms: index %d out of range [0,%d)", i, n))
}

// Split cuts s after its first i atoms. It panics unless 0 <= i <= Len().
func (s Sequence) Split(i int) (Sequence, Sequence) {
	if i < 0 {
		panic(fmt.Sprintf("atoms: negative split %d", i))
	}
	if i == 0 {
		return Empty, s
	}
	n := 0
	for off := range string(s) {
		if n == i {
			return s[:off], s[off:]
		}
		n++
	}
	if n == i {
		return s, Empty
	}
	panic(fmt.Sprintf("atoms: split %d out of range [0,%d]", i, n))
}

// Reverse returns the atoms of s in reverse order.
func (s Sequence) Reverse() Sequence {
	as := s.Atoms()
	for i, j := 0, len(as)-1; i < j; i, j = i+1, j-1 {
		as[i], as[j] = as[j], as[i]
	}
	return FromAtoms(as)
}

// Concat appends o to s.
func (s Sequence) Concat(o Sequence) Sequence {
	return s + o
}

// First returns the first atom, if any.
func (s Sequence) First() (Atom, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(string(s))
	return r, true
}

// Last returns the last atom, if any.
func (s Sequence) Last() (Atom, bool) {
	if s.IsEmpty() {
		return 0, false
	}
	r, _ := utf8.DecodeLastRuneInString(string(s))
	return r, true
}

// String implements fmt.Stringer.
func (s Sequence) String() string {
	return string(s)
}

// Join renders sequences separated by sep, e.g. "cat|s".
func Join(parts []Sequence, sep string) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(string(p))
	}
	return b.String()
}
