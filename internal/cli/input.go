// Package cli provides an interactive line mode for inspecting segmentations in real time
package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bastiangx/substitus/internal/utils"
	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/config"
	"github.com/bastiangx/substitus/pkg/inventory"
	"github.com/bastiangx/substitus/pkg/segmentation"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	morphStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// InputHandler reads words line by line and prints their segmentation.
// Lines starting with ':' are commands: ":morphs <prefix>", ":tune k=<n> min=<n>", ":info", ":reset".
type InputHandler struct {
	segmenter    *segmentation.Segmenter
	inventory    *inventory.Inventory
	config       *config.Config
	in           io.Reader
	out          io.Writer
	requestCount int
	noFilter     bool
}

// NewInputHandler handles initialization of the InputHandler. inv may be nil.
func NewInputHandler(seg *segmentation.Segmenter, inv *inventory.Inventory, cfg *config.Config, in io.Reader, out io.Writer, noFilter bool) *InputHandler {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &InputHandler{
		segmenter: seg,
		inventory: inv,
		config:    cfg,
		in:        in,
		out:       out,
		noFilter:  noFilter,
	}
}

// Start runs the loop until the input ends
func (h *InputHandler) Start() error {
	fmt.Fprintln(h.out, "substitus CLI")
	fmt.Fprintln(h.out, "type words and press Enter to see their boundaries (Ctrl+C to exit):")

	reader := bufio.NewReader(h.in)
	for {
		fmt.Fprint(h.out, "> ")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			h.handleInput(line)
		}
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(h.out)
				return nil
			}
			return err
		}
	}
}

func (h *InputHandler) handleInput(line string) {
	h.requestCount++
	if strings.HasPrefix(line, ":") {
		h.handleCommand(strings.Fields(line[1:]))
		return
	}
	for _, word := range utils.SplitWords(line) {
		if !h.noFilter && !utils.IsValidInput(word) {
			log.Warnf("Skipping '%s'", word)
			continue
		}
		h.segment(word)
	}
}

func (h *InputHandler) segment(word string) {
	lower, caps := word, (*utils.CapitalInfo)(nil)
	if h.config.Train.Lowercase {
		lower, caps = utils.ProcessCapitals(word)
	}

	start := time.Now()
	seg, err := h.segmenter.SegmentizeP(atoms.Sequence(lower))
	if err != nil {
		log.Errorf("Cannot segment '%s': %v", word, err)
		return
	}
	elapsed := time.Since(start)
	log.Debugf("Took [ %v ] for '%s'", elapsed, word)

	threshold := h.config.Segment.Threshold
	shown := seg
	if h.config.Segment.Normalize {
		shown = seg.Normalize(h.config.Segment.NormalizeMean)
	}
	if h.inventory != nil {
		h.inventory.AddSegmentation(shown, threshold, 1)
	}

	morphs := shown.Morphs(threshold)
	parts := make([]string, len(morphs))
	for i, m := range morphs {
		parts[i] = m.String()
	}
	parts = utils.ApplyCapitalsToParts(parts, caps)
	for i, p := range parts {
		parts[i] = morphStyle.Render(p)
	}

	fmt.Fprintf(h.out, "%s  %s  %s\n", word, strings.Join(parts, h.config.Segment.Separator),
		dimStyle.Render("("+utils.FormatDuration(elapsed)+")"))
	fmt.Fprintf(h.out, "  raw:        %s\n", seg)
	if h.config.Segment.Normalize {
		fmt.Fprintf(h.out, "  normalized: %s\n", shown)
	}
}

func (h *InputHandler) handleCommand(args []string) {
	if len(args) == 0 {
		return
	}
	switch args[0] {
	case "morphs":
		h.showMorphs(args[1:])
	case "tune":
		h.tune(args[1:])
	case "info":
		h.info()
	case "reset":
		if h.inventory != nil {
			h.inventory.Reset()
		}
		h.segmenter.Purge()
		fmt.Fprintln(h.out, "morphs and cache cleared")
	default:
		log.Errorf("Unknown command: %s", args[0])
	}
}

func (h *InputHandler) showMorphs(args []string) {
	if h.inventory == nil {
		log.Warn("Morph collection is disabled")
		return
	}
	prefix := ""
	if len(args) > 0 {
		prefix = args[0]
	}
	morphs := h.inventory.Complete(prefix, 20)
	if len(morphs) == 0 {
		log.Warnf("No morphs found for prefix: '%s'", prefix)
		return
	}
	for i, m := range morphs {
		fmt.Fprintf(h.out, "%2d. %-24s (count: %8s, words: %d)\n",
			i+1, morphStyle.Render(m.Form), utils.FormatWithCommas(int64(m.Count)), m.Words)
	}
}

func (h *InputHandler) tune(args []string) {
	var minFreq int64
	var k int
	for _, a := range args {
		key, val, ok := strings.Cut(a, "=")
		n, err := strconv.ParseInt(val, 10, 64)
		if !ok || err != nil {
			log.Errorf("Expected key=number, got '%s'", a)
			return
		}
		if n < 1 {
			log.Errorf("%s must be at least 1, got %d", key, n)
			return
		}
		switch key {
		case "min":
			minFreq = n
		case "k":
			k = int(n)
		default:
			log.Errorf("Unknown tunable: %s", key)
			return
		}
	}
	if err := h.segmenter.Tune(minFreq, k); err != nil {
		log.Errorf("Tune failed: %v", err)
		return
	}
	o := h.segmenter.Options()
	fmt.Fprintf(h.out, "min compound frequency %d, k most frequent %d\n", o.MinCompoundFrequency, o.KMostFrequent)
}

func (h *InputHandler) info() {
	pair := h.segmenter.Engine().Pair()
	o := h.segmenter.Options()
	fmt.Fprintf(h.out, "sequences: %s, tokens: %s\n",
		utils.FormatWithCommas(int64(pair.UniqueSequencesCount())), utils.FormatWithCommas(pair.TotalSequencesCount()))
	fmt.Fprintf(h.out, "min compound frequency %d, k most frequent %d, square %d, boundary policy %s\n",
		o.MinCompoundFrequency, o.KMostFrequent, o.SquareSize, o.BoundaryPolicy)
	fmt.Fprintf(h.out, "cached words: %d, requests: %d\n", h.segmenter.CacheLen(), h.requestCount)
}
