package inventory

import (
	"sort"
	"sync"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/segmentation"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Morph is one inventory entry.
type Morph struct {
	Form string
	// Count is the number of tokens the morph occurred in, weighted by word frequency.
	Count uint64
	// Words is the number of distinct words containing the morph.
	Words int
}

type morphCount struct {
	count uint64
	words int
}

// Inventory is a patricia-trie backed morph counter, safe for concurrent use.
type Inventory struct {
	trie   *patricia.Trie
	morphs int
	words  int
	tokens uint64
	mu     sync.RWMutex
}

var _ IMorphIndex = (*Inventory)(nil)

// New creates an empty inventory.
func New() *Inventory {
	return &Inventory{trie: patricia.NewTrie()}
}

// Add records the morphs of one word seen freq times.
func (inv *Inventory) Add(morphs []atoms.Sequence, freq uint64) {
	if len(morphs) == 0 || freq == 0 {
		return
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()

	seen := make(map[atoms.Sequence]bool, len(morphs))
	for _, m := range morphs {
		if m.IsEmpty() {
			continue
		}
		key := patricia.Prefix(m)
		mc, ok := inv.trie.Get(key).(*morphCount)
		if !ok {
			mc = &morphCount{}
			inv.trie.Insert(key, mc)
			inv.morphs++
		}
		mc.count += freq
		if !seen[m] {
			seen[m] = true
			mc.words++
		}
	}
	inv.words++
	inv.tokens += freq
}

// AddSegmentation records the morphs of seg split at threshold.
func (inv *Inventory) AddSegmentation(seg *segmentation.ProbabilisticSegmentation, threshold float64, freq uint64) {
	inv.Add(seg.Morphs(threshold), freq)
}

// Complete returns up to limit morphs starting with prefix, most frequent first.
func (inv *Inventory) Complete(prefix string, limit int) []Morph {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var out []Morph
	err := inv.trie.VisitSubtree(patricia.Prefix(prefix), inv.collect(&out))
	if err != nil {
		log.Errorf("Error visiting morph subtree: %v", err)
		return nil
	}
	return rank(out, limit)
}

// Top returns the most frequent morphs overall.
func (inv *Inventory) Top(limit int) []Morph {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var out []Morph
	if err := inv.trie.Visit(inv.collect(&out)); err != nil {
		log.Errorf("Error visiting morph trie: %v", err)
		return nil
	}
	return rank(out, limit)
}

func (inv *Inventory) collect(out *[]Morph) patricia.VisitorFunc {
	return func(p patricia.Prefix, item patricia.Item) error {
		mc, ok := item.(*morphCount)
		if !ok {
			log.Errorf("Unknown item type: %T for morph %s", item, p)
			return nil
		}
		*out = append(*out, Morph{Form: string(p), Count: mc.count, Words: mc.words})
		return nil
	}
}

// rank sorts by count, then by form, and applies limit when positive.
func rank(ms []Morph, limit int) []Morph {
	sort.Slice(ms, func(i, j int) bool {
		if ms[i].Count != ms[j].Count {
			return ms[i].Count > ms[j].Count
		}
		return ms[i].Form < ms[j].Form
	})
	if limit > 0 && len(ms) > limit {
		ms = ms[:limit]
	}
	return ms
}

// Count returns the weighted count of one morph.
func (inv *Inventory) Count(form string) uint64 {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	if mc, ok := inv.trie.Get(patricia.Prefix(form)).(*morphCount); ok {
		return mc.count
	}
	return 0
}

// Stats reports the morphs, words and tokens collected so far.
func (inv *Inventory) Stats() map[string]int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return map[string]int{
		"morphs": inv.morphs,
		"words":  inv.words,
		"tokens": int(inv.tokens),
	}
}

// Reset drops every collected morph.
func (inv *Inventory) Reset() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.trie = patricia.NewTrie()
	inv.morphs, inv.words, inv.tokens = 0, 0, 0
}
