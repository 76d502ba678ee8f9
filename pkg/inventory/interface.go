// Package inventory collects the morphs produced by binarized segmentations and serves prefix lookups over them.
package inventory

import "github.com/bastiangx/substitus/pkg/atoms"

// IMorphIndex defines the interface for morph inventories
type IMorphIndex interface {
	// Add records the morphs of one word seen freq times
	Add(morphs []atoms.Sequence, freq uint64)

	// Complete returns morphs starting with prefix, most frequent first
	Complete(prefix string, limit int) []Morph

	// Top returns the most frequent morphs overall
	Top(limit int) []Morph

	// Stats returns counters about the collected morphs
	Stats() map[string]int
}
