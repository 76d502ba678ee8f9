// Package dictionary reads training data into a frequency pair and persists trained pairs.
package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/freqtrie"
	"github.com/charmbracelet/log"
	"golang.org/x/text/unicode/norm"
)

const maxLineBytes = 1 << 20

// ErrNoEntries is returned when an input yields nothing to train on.
var ErrNoEntries = errors.New("no usable entries")

// Entry is one word of a frequency list.
type Entry struct {
	Word      atoms.Sequence
	Frequency uint64
}

// ReadOptions control how frequency list lines become entries.
type ReadOptions struct {
	// Lowercase folds every word after NFC normalization.
	Lowercase bool
	// MinFrequency drops entries counted fewer times.
	MinFrequency uint64
}

// DefaultReadOptions keeps case and drops zero counts.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{MinFrequency: 1}
}

// ReadStats counts what happened to the input lines.
type ReadStats struct {
	Lines     int
	Entries   int
	Skipped   int // blank, comment and below MinFrequency
	Malformed int
}

// ReadFrequencyList parses "word count" or "count word" lines.
// Malformed lines are counted and logged, never fatal.
func ReadFrequencyList(r io.Reader, opts ReadOptions) ([]Entry, ReadStats, error) {
	var (
		entries []Entry
		stats   ReadStats
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		stats.Lines++
		line := strings.TrimSpace(scanner.Text())
		if stats.Lines == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if line == "" || strings.HasPrefix(line, "#") {
			stats.Skipped++
			continue
		}

		word, freq, ok := parseLine(line)
		if !ok {
			stats.Malformed++
			log.Debugf("Malformed frequency line %d: %q", stats.Lines, line)
			continue
		}
		if freq < opts.MinFrequency {
			stats.Skipped++
			continue
		}
		entries = append(entries, Entry{Word: normalizeWord(word, opts.Lowercase), Frequency: freq})
		stats.Entries++
	}
	if err := scanner.Err(); err != nil {
		return entries, stats, fmt.Errorf("failed to read frequency list at line %d: %w", stats.Lines+1, err)
	}
	if stats.Malformed > 0 {
		log.Warnf("Skipped %d malformed lines out of %d", stats.Malformed, stats.Lines)
	}
	return entries, stats, nil
}

func parseLine(line string) (string, uint64, bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", 0, false
	}
	if n, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
		return fields[0], n, true
	}
	if n, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
		return fields[1], n, true
	}
	return "", 0, false
}

func normalizeWord(w string, lower bool) atoms.Sequence {
	w = norm.NFC.String(w)
	if lower {
		w = strings.ToLower(w)
	}
	return atoms.Sequence(w)
}

// Train remembers every entry, in order. It stops at the first rejected entry.
func Train(pair *freqtrie.Pair, entries []Entry) error {
	for i, e := range entries {
		if err := pair.RememberCounted(e.Word, e.Frequency); err != nil {
			return fmt.Errorf("failed to train entry %d (%q): %w", i, e.Word, err)
		}
	}
	return nil
}
