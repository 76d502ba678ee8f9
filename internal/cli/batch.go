package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/bastiangx/substitus/internal/utils"
	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/config"
	"github.com/bastiangx/substitus/pkg/inventory"
	"github.com/bastiangx/substitus/pkg/segmentation"
	"github.com/charmbracelet/log"
)

// BatchStats counts what a batch run did.
type BatchStats struct {
	Lines     int
	Words     int
	Segmented int
	Failed    int
}

// RunBatch segments every distinct word of r and writes one line per word to w:
//
//	word<TAB>segmented<TAB>p1,p2,...
//
// Words are deduplicated before scoring. inv may be nil.
func RunBatch(ctx context.Context, seg *segmentation.Segmenter, inv *inventory.Inventory, cfg *config.Config, r io.Reader, w io.Writer) (BatchStats, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	var stats BatchStats
	filter := utils.NewWordFilter(cfg.Train.Lowercase)

	var originals []string
	var words []atoms.Sequence
	var caps []*utils.CapitalInfo

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		stats.Lines++
		for _, word := range utils.SplitWords(scanner.Text()) {
			if !filter.ShouldInclude(word) {
				continue
			}
			lower, info := word, (*utils.CapitalInfo)(nil)
			if cfg.Train.Lowercase {
				lower, info = utils.ProcessCapitals(word)
			}
			originals = append(originals, word)
			words = append(words, atoms.Sequence(lower))
			caps = append(caps, info)
		}
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("reading batch input: %w", err)
	}
	stats.Words = len(words)
	log.Debugf("Batch: %d lines, %d distinct words, %d workers", stats.Lines, stats.Words, cfg.Segment.Workers)

	results, err := seg.SegmentAll(ctx, words, cfg.Segment.Workers)
	out := bufio.NewWriter(w)
	for i, res := range results {
		if res.Segmentation == nil {
			if res.Err != nil {
				stats.Failed++
			}
			continue
		}
		s := res.Segmentation
		if cfg.Segment.Normalize {
			s = s.Normalize(cfg.Segment.NormalizeMean)
		}
		if inv != nil {
			inv.AddSegmentation(s, cfg.Segment.Threshold, 1)
		}
		parts := make([]string, 0, len(s.Probabilities)+1)
		for _, m := range s.Morphs(cfg.Segment.Threshold) {
			parts = append(parts, m.String())
		}
		parts = utils.ApplyCapitalsToParts(parts, caps[i])
		fmt.Fprintf(out, "%s\t%s\t%s\n", originals[i], strings.Join(parts, cfg.Segment.Separator), formatProbabilities(s.Probabilities))
		stats.Segmented++
	}
	if ferr := out.Flush(); ferr != nil {
		return stats, ferr
	}
	return stats, err
}

func formatProbabilities(ps []float64) string {
	var b strings.Builder
	for i, p := range ps {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(p, 'f', 4, 64))
	}
	return b.String()
}

// TSVFeatureSink writes one line per scored boundary:
//
//	word<TAB>boundary<TAB>f1,f2,...
//
// It is safe for concurrent use.
type TSVFeatureSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

// NewTSVFeatureSink writes a header of feature names before the first row.
func NewTSVFeatureSink(w io.Writer, names []string) (*TSVFeatureSink, error) {
	s := &TSVFeatureSink{w: bufio.NewWriter(w)}
	if _, err := fmt.Fprintf(s.w, "word\tboundary\t%s\n", strings.Join(names, ",")); err != nil {
		return nil, err
	}
	return s, nil
}

// Accept implements segmentation.FeatureSink.
func (s *TSVFeatureSink) Accept(word atoms.Sequence, boundary int, features []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s\t%d\t%s\n", word, boundary, formatProbabilities(features))
	return err
}

// Flush writes buffered rows.
func (s *TSVFeatureSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Flush()
}
