package dictionary

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bastiangx/substitus/pkg/freqtrie"
	"github.com/charmbracelet/log"
)

// Loader trains a frequency pair from frequency lists and snapshots
type Loader struct {
	pair  *freqtrie.Pair
	opts  ReadOptions
	stats LoaderStats
}

// LoaderStats provides statistics about the loading process
type LoaderStats struct {
	Files     int
	Lines     int
	Entries   int
	Skipped   int
	Malformed int
	Snapshots int
	Duration  time.Duration
}

// NewLoader creates a loader feeding pair
func NewLoader(pair *freqtrie.Pair, opts ReadOptions) *Loader {
	return &Loader{pair: pair, opts: opts}
}

// Pair returns the trained pair
func (l *Loader) Pair() *freqtrie.Pair {
	return l.pair
}

// Stats returns the accumulated loading statistics
func (l *Loader) Stats() LoaderStats {
	return l.stats
}

// LoadFile detects the format of filename and trains from it
func (l *Loader) LoadFile(filename string) error {
	start := time.Now()
	defer func() { l.stats.Duration += time.Since(start) }()

	format, err := DetectFileFormat(filename)
	if err != nil {
		return err
	}
	log.Debugf("Loading %s as %s", filename, format)

	switch format {
	case FormatSnapshot:
		info, err := LoadSnapshotFile(filename, l.pair)
		if err != nil {
			return err
		}
		l.stats.Files++
		l.stats.Snapshots++
		l.stats.Entries += info.Entries
		return nil
	case FormatFrequencyList:
		return l.loadFrequencyList(filename)
	}
	return fmt.Errorf("unsupported format %v for %s", format, filename)
}

func (l *Loader) loadFrequencyList(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open frequency list %s: %w", filename, err)
	}
	defer file.Close()

	entries, rs, err := ReadFrequencyList(bufio.NewReader(file), l.opts)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}
	if err := Train(l.pair, entries); err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	l.stats.Files++
	l.stats.Lines += rs.Lines
	l.stats.Entries += rs.Entries
	l.stats.Skipped += rs.Skipped
	l.stats.Malformed += rs.Malformed
	log.Debugf("Trained %d entries from %s", rs.Entries, filename)
	return nil
}

// LoadDir trains from every frequency list and snapshot in dir, in name order
func (l *Loader) LoadDir(dir string) error {
	var files []string
	for _, info := range supportedFormats {
		for _, ext := range info.Extensions {
			matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", dir, err)
			}
			files = append(files, matches...)
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return fmt.Errorf("%w: no frequency lists found in %s", ErrNoEntries, dir)
	}
	for _, f := range files {
		if err := l.LoadFile(f); err != nil {
			return err
		}
	}
	return nil
}

// Load trains from a file or a directory
func (l *Loader) Load(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		err = l.LoadDir(path)
	} else {
		err = l.LoadFile(path)
	}
	if err != nil {
		return err
	}
	if l.pair.UniqueSequencesCount() == 0 {
		return fmt.Errorf("%w in %s", ErrNoEntries, path)
	}
	return nil
}
