package trie

type kind uint8

const (
	internalKind kind = iota
	leafKind
)

// Value is the payload of a trie node: either an internal value I or a leaf value L, never both.
// A node holds a leaf value iff the path to it is a stored key.
type Value[I, L any] struct {
	kind     kind
	internal I
	leaf     L
}

// Internal wraps v as the internal case.
func Internal[I, L any](v I) Value[I, L] {
	return Value[I, L]{kind: internalKind, internal: v}
}

// Leaf wraps v as the leaf case.
func Leaf[I, L any](v L) Value[I, L] {
	return Value[I, L]{kind: leafKind, leaf: v}
}

// IsLeaf reports whether the node is a stored key.
func (v Value[I, L]) IsLeaf() bool {
	return v.kind == leafKind
}

// Internal returns the internal payload and true, or the zero value and false for leaves.
func (v Value[I, L]) Internal() (I, bool) {
	if v.kind != internalKind {
		var zero I
		return zero, false
	}
	return v.internal, true
}

// Leaf returns the leaf payload and true, or the zero value and false for internal nodes.
func (v Value[I, L]) Leaf() (L, bool) {
	if v.kind != leafKind {
		var zero L
		return zero, false
	}
	return v.leaf, true
}
