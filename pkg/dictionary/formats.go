package dictionary

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat represents the supported training input formats
type FileFormat int

const (
	FormatUnknown       FileFormat = iota
	FormatFrequencyList            // Plain text "word count" lines
	FormatSnapshot                 // zstd-compressed msgpack entry list
)

func (f FileFormat) String() string {
	if info, ok := supportedFormats[f]; ok {
		return info.Description
	}
	return "Unknown"
}

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extensions  []string
	MinSize     int64 // Minimum expected file size in bytes
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatFrequencyList: {
		Format:      FormatFrequencyList,
		Description: "Frequency List",
		Extensions:  []string{".txt", ".freq", ".tsv"},
		MinSize:     0,
	},
	FormatSnapshot: {
		Format:      FormatSnapshot,
		Description: "Trained Snapshot",
		Extensions:  []string{".snap"},
		MinSize:     int64(len(snapshotMagic)) + 1,
	},
}

// ValidateFileFormat checks if a file matches the expected format
func ValidateFileFormat(filename string, expectedFormat FileFormat) error {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", filename, err)
	}
	if fileInfo.IsDir() {
		return fmt.Errorf("%s is a directory", filename)
	}

	formatInfo, exists := supportedFormats[expectedFormat]
	if !exists {
		return fmt.Errorf("unknown format: %v", expectedFormat)
	}

	if fileInfo.Size() < formatInfo.MinSize {
		return fmt.Errorf("file %s is too small (%d bytes) for format %s (minimum: %d bytes)",
			filename, fileInfo.Size(), formatInfo.Description, formatInfo.MinSize)
	}

	switch expectedFormat {
	case FormatSnapshot:
		return validateSnapshotHeader(filename)
	case FormatFrequencyList:
		return validateTextFormat(filename)
	}
	return nil
}

// validateSnapshotHeader checks the magic bytes of a snapshot file
func validateSnapshotHeader(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	header := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(file, header); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", filename, err)
	}
	if !bytes.Equal(header, []byte(snapshotMagic)) {
		return fmt.Errorf("%w: %s has no snapshot header", ErrBadSnapshot, filename)
	}
	log.Debugf("Snapshot file %s validated", filename)
	return nil
}

// validateTextFormat checks that the first bytes of a frequency list are not binary
func validateTextFormat(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	defer file.Close()

	buffer := make([]byte, 1024)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read from text file %s: %w", filename, err)
	}
	if bytes.IndexByte(buffer[:n], 0) >= 0 {
		return fmt.Errorf("file %s looks binary, not a frequency list", filename)
	}
	log.Debugf("Text file %s validated", filename)
	return nil
}

// DetectFileFormat sniffs the snapshot header first and falls back to the extension
func DetectFileFormat(filename string) (FileFormat, error) {
	if err := validateSnapshotHeader(filename); err == nil {
		return FormatSnapshot, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, f := range []FileFormat{FormatFrequencyList} {
		for _, e := range supportedFormats[f].Extensions {
			if ext == e {
				if err := ValidateFileFormat(filename, f); err != nil {
					return FormatUnknown, err
				}
				return f, nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("unable to detect format for file %s", filename)
}
