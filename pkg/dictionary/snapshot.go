package dictionary

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/freqtrie"
	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	snapshotMagic   = "SBSTSNAP"
	snapshotVersion = 1
)

// ErrBadSnapshot reports a snapshot that cannot be decoded.
var ErrBadSnapshot = errors.New("bad snapshot")

type snapshotEntry struct {
	Word      string `msgpack:"w"`
	Frequency uint64 `msgpack:"f"`
}

type snapshot struct {
	Version int             `msgpack:"v"`
	Created int64           `msgpack:"t"`
	Total   int64           `msgpack:"n"`
	Entries []snapshotEntry `msgpack:"e"`
}

// SnapshotInfo describes a loaded snapshot.
type SnapshotInfo struct {
	Version int
	Created time.Time
	Entries int
	Total   int64
}

// SaveSnapshot writes the stored sequences of pair to w.
func SaveSnapshot(w io.Writer, pair *freqtrie.Pair) error {
	es := pair.Entries()
	snap := snapshot{
		Version: snapshotVersion,
		Created: time.Now().Unix(),
		Total:   pair.TotalSequencesCount(),
		Entries: make([]snapshotEntry, 0, len(es)),
	}
	for _, e := range es {
		if e.Frequency < 0 {
			return fmt.Errorf("%w: %q has frequency %d", freqtrie.ErrInconsistentFrequency, e.Sequence, e.Frequency)
		}
		snap.Entries = append(snap.Entries, snapshotEntry{Word: string(e.Sequence), Frequency: uint64(e.Frequency)})
	}

	if _, err := io.WriteString(w, snapshotMagic); err != nil {
		return fmt.Errorf("failed to write snapshot header: %w", err)
	}
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}
	if err := msgpack.NewEncoder(enc).Encode(&snap); err != nil {
		enc.Close()
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot trains pair with the entries stored in r.
func LoadSnapshot(r io.Reader, pair *freqtrie.Pair) (SnapshotInfo, error) {
	header := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return SnapshotInfo{}, fmt.Errorf("%w: failed to read header: %v", ErrBadSnapshot, err)
	}
	if string(header) != snapshotMagic {
		return SnapshotInfo{}, fmt.Errorf("%w: unexpected header %q", ErrBadSnapshot, header)
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	defer dec.Close()

	var snap snapshot
	if err := msgpack.NewDecoder(dec).Decode(&snap); err != nil {
		return SnapshotInfo{}, fmt.Errorf("%w: %v", ErrBadSnapshot, err)
	}
	if snap.Version != snapshotVersion {
		return SnapshotInfo{}, fmt.Errorf("%w: unsupported version %d", ErrBadSnapshot, snap.Version)
	}

	var total int64
	for _, e := range snap.Entries {
		if err := pair.RememberCounted(atoms.Sequence(e.Word), e.Frequency); err != nil {
			return SnapshotInfo{}, fmt.Errorf("failed to restore %q: %w", e.Word, err)
		}
		total += int64(e.Frequency)
	}
	if total != snap.Total {
		return SnapshotInfo{}, fmt.Errorf("%w: entries sum to %d, header says %d",
			freqtrie.ErrInconsistentFrequency, total, snap.Total)
	}

	info := SnapshotInfo{
		Version: snap.Version,
		Created: time.Unix(snap.Created, 0),
		Entries: len(snap.Entries),
		Total:   total,
	}
	log.Debugf("Restored snapshot v%d with %d sequences (%d tokens)", info.Version, info.Entries, info.Total)
	return info, nil
}

// SaveSnapshotFile writes a snapshot through a temporary file and renames it into place.
func SaveSnapshotFile(path string, pair *freqtrie.Pair) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if err := SaveSnapshot(bw, pair); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move snapshot into place: %w", err)
	}
	return nil
}

// LoadSnapshotFile opens path and calls LoadSnapshot.
func LoadSnapshotFile(path string, pair *freqtrie.Pair) (SnapshotInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return SnapshotInfo{}, fmt.Errorf("failed to open snapshot %s: %w", path, err)
	}
	defer file.Close()
	return LoadSnapshot(bufio.NewReader(file), pair)
}
