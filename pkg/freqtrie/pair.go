package freqtrie

import (
	"fmt"
	"math"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/charmbracelet/log"
)

// Pair holds a prefix trie keyed by sequences as given and a suffix trie keyed
// by the reversed sequences. Every remembered sequence goes into both.
type Pair struct {
	Prefixes *FrequencyTrie
	Suffixes *FrequencyTrie
}

// NewPair creates an empty pair.
func NewPair() *Pair {
	return &Pair{
		Prefixes: New(),
		Suffixes: New(),
	}
}

func checkedDelta(seq atoms.Sequence, freq uint64) (int64, error) {
	if seq.IsEmpty() {
		return 0, ErrEmptySequence
	}
	if freq > math.MaxInt64 {
		return 0, fmt.Errorf("frequency %d for %q overflows int64", freq, seq)
	}
	return int64(freq), nil
}

// RememberCounted adds freq to seq in both tries. Repeated calls accumulate.
func (p *Pair) RememberCounted(seq atoms.Sequence, freq uint64) error {
	delta, err := checkedDelta(seq, freq)
	if err != nil {
		return err
	}
	if err := p.Prefixes.ModifyFrequency(seq, delta); err != nil {
		return err
	}
	return p.Suffixes.ModifyFrequency(seq.Reverse(), delta)
}

// Forget subtracts freq from seq in both tries, for correcting earlier input.
func (p *Pair) Forget(seq atoms.Sequence, freq uint64) error {
	delta, err := checkedDelta(seq, freq)
	if err != nil {
		return err
	}
	rev := seq.Reverse()
	fwd, bwd := p.Prefixes.Frequency(seq), p.Suffixes.Frequency(rev)
	if fwd != bwd {
		return fmt.Errorf("%w: %q is %d forward, %d reversed", ErrInconsistentFrequency, seq, fwd, bwd)
	}
	if err := p.Prefixes.ModifyFrequency(seq, -delta); err != nil {
		return err
	}
	return p.Suffixes.ModifyFrequency(rev, -delta)
}

// Frequency returns how often seq was remembered.
func (p *Pair) Frequency(seq atoms.Sequence) int64 {
	return p.Prefixes.Frequency(seq)
}

// PrefixFrequency returns the summed frequency of sequences starting with prefix.
func (p *Pair) PrefixFrequency(prefix atoms.Sequence) int64 {
	return p.Prefixes.PrefixFrequency(prefix)
}

// SuffixFrequency returns the summed frequency of sequences ending with suffix.
func (p *Pair) SuffixFrequency(suffix atoms.Sequence) int64 {
	return p.Suffixes.PrefixFrequency(suffix.Reverse())
}

// TotalSequencesCount is the sum of all remembered frequencies.
func (p *Pair) TotalSequencesCount() int64 {
	return p.Prefixes.Total()
}

// UniqueSequencesCount is the number of distinct remembered sequences.
func (p *Pair) UniqueSequencesCount() int {
	return p.Prefixes.Unique()
}

// PruneEmpty drops zero-frequency branches from both tries.
func (p *Pair) PruneEmpty() {
	before := p.Prefixes.Unique()
	p.Prefixes.PruneEmpty()
	p.Suffixes.PruneEmpty()
	log.Debugf("Pruned empty branches: %d -> %d sequences", before, p.Prefixes.Unique())
}

// Entries returns all remembered sequences and frequencies, in atom order.
func (p *Pair) Entries() []Entry {
	return p.Prefixes.Entries()
}
