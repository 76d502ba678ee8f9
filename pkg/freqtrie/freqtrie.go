// Package freqtrie keeps sequence and prefix frequencies in tries, and pairs a
// forward trie with a reversed one so suffix frequencies are O(depth) as well.
package freqtrie

import (
	"errors"
	"fmt"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/trie"
)

var (
	// ErrEmptySequence is returned when a zero-length sequence is given where one is not allowed.
	ErrEmptySequence = errors.New("empty sequence")
	// ErrInconsistentFrequency signals broken frequency bookkeeping, e.g. a count going negative.
	ErrInconsistentFrequency = errors.New("inconsistent frequency")
)

// Counts is the leaf payload: the aggregate below the node and the count of the key itself.
type Counts struct {
	Prefix   int64
	Sequence int64
}

type node = trie.Value[int64, Counts]

// FrequencyTrie is a trie whose internal nodes hold prefix frequencies and
// whose leaves hold (prefix, sequence) frequency pairs.
// prefixFrequency(n) equals the sum of sequence frequencies of the leaves under n.
type FrequencyTrie struct {
	t *trie.Trie[int64, Counts]
}

// Entry is a stored sequence and its frequency.
type Entry struct {
	Sequence  atoms.Sequence
	Frequency int64
}

// New creates an empty frequency trie.
func New() *FrequencyTrie {
	return &FrequencyTrie{t: trie.New[int64, Counts](0)}
}

func prefixOf(v node) int64 {
	if c, ok := v.Leaf(); ok {
		return c.Prefix
	}
	iv, _ := v.Internal()
	return iv
}

func sequenceOf(v node) int64 {
	c, _ := v.Leaf()
	return c.Sequence
}

// ModifyFrequency adds delta to the frequency of key and to the prefix frequency
// of every node on its path. A delta that would drive the count of key below
// zero is rejected before anything changes.
func (f *FrequencyTrie) ModifyFrequency(key atoms.Sequence, delta int64) error {
	if cur := f.Frequency(key); cur+delta < 0 {
		return fmt.Errorf("%w: %q has %d, delta %d", ErrInconsistentFrequency, key, cur, delta)
	}
	f.t.MergePrefixes(key, func(old node) node {
		if c, ok := old.Leaf(); ok {
			c.Prefix += delta
			return trie.Leaf[int64, Counts](c)
		}
		iv, _ := old.Internal()
		return trie.Internal[int64, Counts](iv + delta)
	})
	f.t.Merge(key, func(old node) Counts {
		return Counts{Prefix: prefixOf(old), Sequence: sequenceOf(old) + delta}
	})
	return nil
}

// Frequency returns how often key itself was stored; 0 when absent.
func (f *FrequencyTrie) Frequency(key atoms.Sequence) int64 {
	v, ok := f.t.Get(key)
	if !ok {
		return 0
	}
	return sequenceOf(v)
}

// PrefixFrequency returns the summed frequency of all keys starting with key; 0 when absent.
func (f *FrequencyTrie) PrefixFrequency(key atoms.Sequence) int64 {
	v, ok := f.t.Get(key)
	if !ok {
		return 0
	}
	return prefixOf(v)
}

// Total is the prefix frequency of the empty key.
func (f *FrequencyTrie) Total() int64 {
	return prefixOf(f.t.Value())
}

// Unique is the number of distinct stored sequences.
func (f *FrequencyTrie) Unique() int {
	return f.t.Size()
}

// Subtrie returns a read-only view of the keys below key, with key stripped.
func (f *FrequencyTrie) Subtrie(key atoms.Sequence) *FrequencyTrie {
	return &FrequencyTrie{t: f.t.GetSubtrie(key)}
}

// PruneEmpty drops branches whose aggregate frequency is exactly zero.
func (f *FrequencyTrie) PruneEmpty() {
	f.t = f.t.Prune(func(v node) bool { return prefixOf(v) != 0 })
}

// VisitAtLeast calls visit for every stored sequence with frequency >= floor,
// in atom order, without entering subtrees whose prefix frequency is below floor.
func (f *FrequencyTrie) VisitAtLeast(floor int64, visit func(key atoms.Sequence, freq int64) error) error {
	return f.t.VisitLeaves(func(v node) bool {
		return prefixOf(v) >= floor
	}, func(key atoms.Sequence, c Counts) error {
		if c.Sequence < floor {
			return nil
		}
		return visit(key, c.Sequence)
	})
}

// Entries returns all stored sequences with their frequencies, in atom order.
func (f *FrequencyTrie) Entries() []Entry {
	es := f.t.EntrySet()
	out := make([]Entry, len(es))
	for i, e := range es {
		out[i] = Entry{Sequence: e.Key, Frequency: e.Value.Sequence}
	}
	return out
}

// Check walks every node and verifies that each prefix frequency equals the sum
// of the sequence frequencies below it and that nothing is negative.
func (f *FrequencyTrie) Check() error {
	for _, n := range f.t.NodeSet() {
		want := int64(0)
		for _, e := range f.Subtrie(n.Key).t.EntrySet() {
			want += e.Value.Sequence
		}
		got := prefixOf(n.Value)
		if got != want || got < 0 || sequenceOf(n.Value) < 0 {
			return fmt.Errorf("%w: node %q has prefix frequency %d, leaves sum to %d",
				ErrInconsistentFrequency, n.Key, got, want)
		}
	}
	return nil
}
