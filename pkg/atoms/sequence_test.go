package atoms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceBasics(t *testing.T) {
	s := Sequence("kätzchen")

	assert.Equal(t, 8, s.Len())
	assert.Equal(t, 'ä', s.At(1))
	assert.Equal(t, Sequence("nehcztäk"), s.Reverse())
	assert.Equal(t, s, s.Reverse().Reverse())

	first, ok := s.First()
	require.True(t, ok)
	assert.Equal(t, 'k', first)
	last, ok := s.Last()
	require.True(t, ok)
	assert.Equal(t, 'n', last)

	_, ok = Empty.First()
	assert.False(t, ok)
	_, ok = Empty.Last()
	assert.False(t, ok)
}

func TestSequenceSplit(t *testing.T) {
	tests := []struct {
		name   string
		s      Sequence
		at     int
		prefix Sequence
		suffix Sequence
	}{
		{"start", "cats", 0, "", "cats"},
		{"middle", "cats", 3, "cat", "s"},
		{"end", "cats", 4, "cats", ""},
		{"multibyte", "äöü", 1, "ä", "öü"},
		{"empty", "", 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, s := tt.s.Split(tt.at)
			assert.Equal(t, tt.prefix, p)
			assert.Equal(t, tt.suffix, s)
			assert.Equal(t, tt.s, p.Concat(s))
		})
	}
}

func TestSequenceOutOfRangePanics(t *testing.T) {
	s := Sequence("dog")

	assert.Panics(t, func() { s.At(-1) })
	assert.Panics(t, func() { s.At(3) })
	assert.Panics(t, func() { s.Split(-1) })
	assert.Panics(t, func() { s.Split(4) })
}

func TestSequenceAsMapKey(t *testing.T) {
	m := map[Sequence]int{}
	m[FromAtoms([]Atom{'c', 'a', 't'})]++
	m[Sequence("cat")]++

	assert.Equal(t, 2, m["cat"])
	assert.Equal(t, "c|a|t", Join([]Sequence{"c", "a", "t"}, "|"))
}
