/*
Package trie implements a generic prefix tree over atom sequences.

Nodes live in an arena and are addressed by index. Each node carries a
Value that is either an internal payload or a leaf payload; a node is a
leaf iff its path was stored as a key. Children are kept as a small
association list sorted by atom, so every traversal is deterministic.

A subtrie returned by GetSubtrie shares the arena of its parent and is
meant for reading. Mutations must go through the trie that owns the
root, otherwise the leaf counts of the ancestors above the subtrie are
not updated.

The structure is not synchronized. Concurrent readers are fine once all
writes are done.
*/
package trie

import (
	"sort"

	"github.com/bastiangx/substitus/pkg/atoms"
)

// NodeIndex addresses a node inside the arena.
type NodeIndex int32

type edge struct {
	atom atoms.Atom
	next NodeIndex
}

type node[I, L any] struct {
	value    Value[I, L]
	children []edge
	size     int
}

type arena[I, L any] struct {
	nodes           []node[I, L]
	defaultInternal I
}

// Trie is a prefix tree whose nodes hold Value[I, L].
type Trie[I, L any] struct {
	arena *arena[I, L]
	root  NodeIndex
}

// Entry is a stored key with its leaf value.
type Entry[L any] struct {
	Key   atoms.Sequence
	Value L
}

// NodeEntry is the path to any node with its value.
type NodeEntry[I, L any] struct {
	Key   atoms.Sequence
	Value Value[I, L]
}

// New creates an empty trie. Missing intermediate nodes are initialized to defaultInternal.
func New[I, L any](defaultInternal I) *Trie[I, L] {
	a := &arena[I, L]{
		nodes:           make([]node[I, L], 0, 64),
		defaultInternal: defaultInternal,
	}
	t := &Trie[I, L]{arena: a}
	t.root = t.alloc(Internal[I, L](defaultInternal))
	return t
}

func (t *Trie[I, L]) alloc(v Value[I, L]) NodeIndex {
	t.arena.nodes = append(t.arena.nodes, node[I, L]{value: v})
	return NodeIndex(len(t.arena.nodes) - 1)
}

func (t *Trie[I, L]) at(i NodeIndex) *node[I, L] {
	return &t.arena.nodes[i]
}

func (n *node[I, L]) child(a atoms.Atom) (NodeIndex, bool) {
	cs := n.children
	i := sort.Search(len(cs), func(i int) bool { return cs[i].atom >= a })
	if i < len(cs) && cs[i].atom == a {
		return cs[i].next, true
	}
	return 0, false
}

// childOrCreate returns the child of parent under a, creating it if needed.
func (t *Trie[I, L]) childOrCreate(parent NodeIndex, a atoms.Atom) NodeIndex {
	if c, ok := t.at(parent).child(a); ok {
		return c
	}
	c := t.alloc(Internal[I, L](t.arena.defaultInternal))
	// alloc may have moved the arena; re-fetch the parent.
	p := t.at(parent)
	i := sort.Search(len(p.children), func(i int) bool { return p.children[i].atom >= a })
	p.children = append(p.children, edge{})
	copy(p.children[i+1:], p.children[i:])
	p.children[i] = edge{atom: a, next: c}
	return c
}

func (t *Trie[I, L]) find(key atoms.Sequence) (NodeIndex, bool) {
	cur := t.root
	for _, a := range string(key) {
		next, ok := t.at(cur).child(a)
		if !ok {
			return 0, false
		}
		cur = next
	}
	return cur, true
}

// path returns the nodes from the root to key inclusive, creating missing ones.
func (t *Trie[I, L]) path(key atoms.Sequence) []NodeIndex {
	p := make([]NodeIndex, 1, len(key)+1)
	p[0] = t.root
	cur := t.root
	for _, a := range string(key) {
		cur = t.childOrCreate(cur, a)
		p = append(p, cur)
	}
	return p
}

// setValues writes new values along path and keeps subtree leaf counts consistent.
func (t *Trie[I, L]) setValues(path []NodeIndex, values []Value[I, L]) {
	delta := 0
	for i := len(path) - 1; i >= 0; i-- {
		n := t.at(path[i])
		was, now := n.value.IsLeaf(), values[i].IsLeaf()
		switch {
		case now && !was:
			delta++
		case was && !now:
			delta--
		}
		n.value = values[i]
		n.size += delta
	}
}

// Put stores v at key, replacing any previous leaf value.
func (t *Trie[I, L]) Put(key atoms.Sequence, v L) {
	t.Merge(key, func(Value[I, L]) L { return v })
}

// Merge combines the current value at key into a new leaf value.
// The combiner sees the internal value when key was not stored yet.
func (t *Trie[I, L]) Merge(key atoms.Sequence, combine func(old Value[I, L]) L) {
	p := t.path(key)
	values := make([]Value[I, L], len(p))
	for i, idx := range p {
		values[i] = t.at(idx).value
	}
	last := len(p) - 1
	values[last] = Leaf[I, L](combine(values[last]))
	t.setValues(p, values)
}

// MergePrefixes applies combine to every node on the path to key, root and key included.
func (t *Trie[I, L]) MergePrefixes(key atoms.Sequence, combine func(old Value[I, L]) Value[I, L]) {
	p := t.path(key)
	values := make([]Value[I, L], len(p))
	for i, idx := range p {
		values[i] = combine(t.at(idx).value)
	}
	t.setValues(p, values)
}

// Get returns the value of the node at key and whether that node exists.
func (t *Trie[I, L]) Get(key atoms.Sequence) (Value[I, L], bool) {
	idx, ok := t.find(key)
	if !ok {
		return Value[I, L]{}, false
	}
	return t.at(idx).value, true
}

// Value returns the value of the root node.
func (t *Trie[I, L]) Value() Value[I, L] {
	return t.at(t.root).value
}

// Size returns the number of stored keys in this (sub)trie.
func (t *Trie[I, L]) Size() int {
	return t.at(t.root).size
}

// GetSubtrie returns the subtrie rooted at key, or an empty trie when key is absent.
func (t *Trie[I, L]) GetSubtrie(key atoms.Sequence) *Trie[I, L] {
	idx, ok := t.find(key)
	if !ok {
		return New[I, L](t.arena.defaultInternal)
	}
	return &Trie[I, L]{arena: t.arena, root: idx}
}

// Prune returns a copy keeping only nodes that, together with all their ancestors, satisfy keep.
// If the root fails keep the result is an empty trie.
func (t *Trie[I, L]) Prune(keep func(Value[I, L]) bool) *Trie[I, L] {
	out := New[I, L](t.arena.defaultInternal)
	rootValue := t.Value()
	if !keep(rootValue) {
		return out
	}
	out.at(out.root).value = rootValue

	type frame struct{ from, to NodeIndex }
	stack := []frame{{t.root, out.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range t.at(f.from).children {
			cv := t.at(e.next).value
			if !keep(cv) {
				continue
			}
			c := out.alloc(cv)
			dst := out.at(f.to)
			dst.children = append(dst.children, edge{atom: e.atom, next: c})
			stack = append(stack, frame{e.next, c})
		}
	}

	// Children are always allocated after their parent.
	for i := len(out.arena.nodes) - 1; i >= 0; i-- {
		n := &out.arena.nodes[i]
		n.size = 0
		if n.value.IsLeaf() {
			n.size = 1
		}
		for _, e := range n.children {
			n.size += out.arena.nodes[e.next].size
		}
	}
	return out
}

// Visit walks the trie in atom order, pre-order. A node is visited, and its
// subtree entered, only if descend accepts it; a nil descend accepts all.
// The walk stops at the first error returned by visit.
func (t *Trie[I, L]) Visit(descend func(Value[I, L]) bool, visit func(key atoms.Sequence, v Value[I, L]) error) error {
	type frame struct {
		idx   NodeIndex
		depth int
		atom  atoms.Atom
	}
	var buf []atoms.Atom
	stack := []frame{{idx: t.root, depth: -1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.at(f.idx)
		if descend != nil && !descend(n.value) {
			continue
		}
		if f.depth >= 0 {
			buf = append(buf[:f.depth], f.atom)
		}
		if err := visit(atoms.FromAtoms(buf), n.value); err != nil {
			return err
		}
		for i := len(n.children) - 1; i >= 0; i-- {
			e := n.children[i]
			stack = append(stack, frame{idx: e.next, depth: len(buf), atom: e.atom})
		}
	}
	return nil
}

// VisitLeaves is Visit restricted to stored keys.
func (t *Trie[I, L]) VisitLeaves(descend func(Value[I, L]) bool, visit func(key atoms.Sequence, v L) error) error {
	return t.Visit(descend, func(key atoms.Sequence, v Value[I, L]) error {
		if lv, ok := v.Leaf(); ok {
			return visit(key, lv)
		}
		return nil
	})
}

// EntrySet returns every stored key with its leaf value, in atom order.
func (t *Trie[I, L]) EntrySet() []Entry[L] {
	out := make([]Entry[L], 0, t.Size())
	_ = t.VisitLeaves(nil, func(key atoms.Sequence, v L) error {
		out = append(out, Entry[L]{Key: key, Value: v})
		return nil
	})
	return out
}

// NodeSet returns every node path with its value, in atom order.
func (t *Trie[I, L]) NodeSet() []NodeEntry[I, L] {
	var out []NodeEntry[I, L]
	_ = t.Visit(nil, func(key atoms.Sequence, v Value[I, L]) error {
		out = append(out, NodeEntry[I, L]{Key: key, Value: v})
		return nil
	})
	return out
}
