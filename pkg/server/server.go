package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/substitus/internal/logger"
	"github.com/bastiangx/substitus/internal/utils"
	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/config"
	"github.com/bastiangx/substitus/pkg/inventory"
	"github.com/bastiangx/substitus/pkg/segmentation"
	"github.com/bastiangx/substitus/pkg/substitus"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/text/unicode/norm"
)

// Server handles the IPC for segmentation
type Server struct {
	segmenter  *segmentation.Segmenter
	inventory  *inventory.Inventory
	config     *config.Config
	configPath string
	reader     *bufio.Reader
	writer     *bufio.Writer
	logger     *log.Logger
	requests   int
}

// NewServer creates a segmentation server using stdin/stdout for IPC.
// inv may be nil when morphs are not collected.
func NewServer(seg *segmentation.Segmenter, inv *inventory.Inventory, cfg *config.Config, configPath string) *Server {
	return NewServerWithIO(seg, inv, cfg, configPath, os.Stdin, os.Stdout)
}

// NewServerWithIO is NewServer over arbitrary streams
func NewServerWithIO(seg *segmentation.Segmenter, inv *inventory.Inventory, cfg *config.Config, configPath string, r io.Reader, w io.Writer) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		segmenter:  seg,
		inventory:  inv,
		config:     cfg,
		configPath: configPath,
		reader:     bufio.NewReader(r),
		writer:     bufio.NewWriter(w),
		logger:     logger.New("server"),
	}
}

// Start serves frames until the input ends
func (s *Server) Start() error {
	s.logger.Debug("Starting server")
	if err := s.send(map[string]string{"status": "ready"}); err != nil {
		return err
	}

	for {
		body, err := ReadFrame(s.reader)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debugf("Input closed after %d requests", s.requests)
				return nil
			}
			if errors.Is(err, ErrFrameTooLarge) {
				s.logger.Warnf("Dropping request: %v", err)
				if err := s.sendError("", err.Error(), CodeBadRequest); err != nil {
					return err
				}
				continue
			}
			s.logger.Errorf("Reading request: %v", err)
			return err
		}
		s.requests++
		if err := s.handleRequest(body); err != nil {
			return err
		}
	}
}

// handleRequest routes one frame; only write failures are returned
func (s *Server) handleRequest(body []byte) error {
	var env envelope
	if err := msgpack.Unmarshal(body, &env); err != nil {
		s.logger.Errorf("Unmarshaling request: %v", err)
		return s.sendError("", "invalid msgpack request", CodeBadRequest)
	}

	switch env.Action {
	case "", ActionSegment:
		var req SegmentRequest
		if err := msgpack.Unmarshal(body, &req); err != nil {
			return s.sendError(env.ID, "invalid segment request", CodeBadRequest)
		}
		return s.handleSegment(req)
	case ActionTune:
		var req TuneRequest
		if err := msgpack.Unmarshal(body, &req); err != nil {
			return s.sendError(env.ID, "invalid tune request", CodeBadRequest)
		}
		return s.handleTune(req)
	case ActionMorphs:
		var req MorphsRequest
		if err := msgpack.Unmarshal(body, &req); err != nil {
			return s.sendError(env.ID, "invalid morphs request", CodeBadRequest)
		}
		return s.handleMorphs(req)
	case ActionInfo:
		return s.handleInfo(env.ID)
	default:
		return s.sendError(env.ID, fmt.Sprintf("unknown action: %s", env.Action), CodeBadRequest)
	}
}

func (s *Server) handleSegment(req SegmentRequest) error {
	word := norm.NFC.String(req.Word)
	if word == "" {
		return s.sendError(req.ID, "missing 'w' parameter", CodeBadRequest)
	}
	if n := atoms.Sequence(word).Len(); n > s.config.Server.MaxWordLength {
		return s.sendError(req.ID, fmt.Sprintf("word exceeds maximum length of %d atoms", s.config.Server.MaxWordLength), CodeBadRequest)
	}

	var caps *utils.CapitalInfo
	if s.config.Train.Lowercase {
		word, caps = utils.ProcessCapitals(word)
	}
	seq := atoms.Sequence(word)
	threshold := s.config.Segment.Threshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	start := time.Now()
	seg, err := s.segmenter.SegmentizeP(seq)
	if err != nil {
		return s.sendEngineError(req.ID, err)
	}
	if req.Normalize || s.config.Segment.Normalize {
		seg = seg.Normalize(s.config.Segment.NormalizeMean)
	}
	var features [][]float64
	if req.Features {
		if features, err = s.segmenter.Features(seq); err != nil {
			return s.sendEngineError(req.ID, err)
		}
	}
	elapsed := time.Since(start)

	if s.inventory != nil && s.config.Server.CollectMorphs {
		s.inventory.AddSegmentation(seg, threshold, 1)
	}

	morphs := seg.Morphs(threshold)
	parts := make([]string, len(morphs))
	for i, m := range morphs {
		parts[i] = m.String()
	}
	parts = utils.ApplyCapitalsToParts(parts, caps)

	as := seq.Atoms()
	atomStrs := make([]string, len(as))
	for i, a := range as {
		atomStrs[i] = string(a)
	}
	s.logger.Debugf("Segmented %q as %v in %s", req.Word, parts, utils.FormatDuration(elapsed))

	return s.send(SegmentResponse{
		ID:            req.ID,
		Atoms:         atomStrs,
		Probabilities: seg.Probabilities,
		Boundaries:    seg.Boundaries(threshold),
		Segmented:     joinParts(parts, s.config.Segment.Separator),
		Morphs:        parts,
		Features:      features,
		TimeTaken:     elapsed.Microseconds(),
	})
}

func joinParts(parts []string, sep string) string {
	seqs := make([]atoms.Sequence, len(parts))
	for i, p := range parts {
		seqs[i] = atoms.Sequence(p)
	}
	return atoms.Join(seqs, sep)
}

func (s *Server) handleTune(req TuneRequest) error {
	if !s.config.Server.AllowTune {
		return s.sendError(req.ID, "tuning is disabled", CodeBadRequest)
	}
	var minFreq int64
	var k int
	if req.MinCompoundFrequency != nil {
		if *req.MinCompoundFrequency < 1 {
			return s.sendError(req.ID, "min_compound_frequency must be at least 1", CodeBadRequest)
		}
		minFreq = *req.MinCompoundFrequency
	}
	if req.KMostFrequent != nil {
		if *req.KMostFrequent < 1 {
			return s.sendError(req.ID, "k_most_frequent must be at least 1", CodeBadRequest)
		}
		k = *req.KMostFrequent
	}
	if err := s.segmenter.Tune(minFreq, k); err != nil {
		return s.sendEngineError(req.ID, err)
	}

	o := s.segmenter.Options()
	if s.config.Server.PersistTunables && s.configPath != "" {
		if err := s.config.UpdateTunables(s.configPath, req.MinCompoundFrequency, req.KMostFrequent); err != nil {
			s.logger.Warnf("Failed to persist tunables to %s: %v", s.configPath, err)
		}
	}
	return s.send(TuneResponse{
		ID:                   req.ID,
		Status:               "ok",
		MinCompoundFrequency: o.MinCompoundFrequency,
		KMostFrequent:        o.KMostFrequent,
		SquareSize:           o.SquareSize,
	})
}

func (s *Server) handleMorphs(req MorphsRequest) error {
	if s.inventory == nil {
		return s.sendError(req.ID, "morph collection is disabled", CodeBadRequest)
	}
	limit := req.Limit
	if limit < 1 {
		limit = 10
	}
	found := s.inventory.Complete(req.Prefix, limit)
	out := make([]MorphEntry, len(found))
	for i, m := range found {
		out[i] = MorphEntry{Morph: m.Form, Count: m.Count, Words: m.Words}
	}
	return s.send(MorphsResponse{ID: req.ID, Morphs: out, Count: len(out)})
}

func (s *Server) handleInfo(id string) error {
	pair := s.segmenter.Engine().Pair()
	o := s.segmenter.Options()
	resp := InfoResponse{
		ID:                   id,
		Status:               "ok",
		Sequences:            pair.UniqueSequencesCount(),
		Tokens:               pair.TotalSequencesCount(),
		MinCompoundFrequency: o.MinCompoundFrequency,
		KMostFrequent:        o.KMostFrequent,
		SquareSize:           o.SquareSize,
		BoundaryPolicy:       o.BoundaryPolicy.String(),
		FeatureCount:         len(s.segmenter.Engine().FeatureNames()),
		CachedWords:          s.segmenter.CacheLen(),
		Requests:             s.requests,
	}
	if s.inventory != nil {
		resp.Morphs = s.inventory.Stats()["morphs"]
	}
	return s.send(resp)
}

// sendEngineError maps engine errors onto response codes
func (s *Server) sendEngineError(id string, err error) error {
	code := CodeInternal
	if errors.Is(err, substitus.ErrEmptySequence) || errors.Is(err, substitus.ErrInvalidOptions) {
		code = CodeBadRequest
	}
	if code == CodeInternal {
		s.logger.Errorf("Request %s failed: %v", id, err)
	}
	return s.sendError(id, err.Error(), code)
}

// send writes one response frame and flushes it
func (s *Server) send(v any) error {
	if err := WriteFrame(s.writer, v); err != nil {
		s.logger.Errorf("Writing response: %v", err)
		return err
	}
	return s.writer.Flush()
}

// sendError sends an error response
func (s *Server) sendError(id, message string, code int) error {
	return s.send(ErrorResponse{ID: id, Error: message, Code: code})
}
