package segmentation

import (
	"context"
	"fmt"
	"sync"

	"github.com/bastiangx/substitus/pkg/atoms"
	"github.com/bastiangx/substitus/pkg/substitus"
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// DefaultCacheSize bounds the number of finished segmentations kept in memory.
const DefaultCacheSize = 10_000

// FeatureSink receives the feature vector of every scored boundary.
// Accept may be called from several goroutines during SegmentAll.
type FeatureSink interface {
	Accept(word atoms.Sequence, boundary int, features []float64) error
}

// FeatureSinkFunc adapts a function to FeatureSink.
type FeatureSinkFunc func(word atoms.Sequence, boundary int, features []float64) error

func (f FeatureSinkFunc) Accept(word atoms.Sequence, boundary int, features []float64) error {
	return f(word, boundary, features)
}

// Segmenter scores every boundary of a word with a substitus engine.
type Segmenter struct {
	engine *substitus.Engine
	cache  *lru.Cache[atoms.Sequence, []float64]
	sink   FeatureSink

	// tunables and purges change under mu.Lock; scoring holds mu.RLock
	mu sync.RWMutex
}

// Option configures a Segmenter.
type Option func(*Segmenter) error

// WithCacheSize replaces the default cache; a size of 0 disables caching.
func WithCacheSize(size int) Option {
	return func(s *Segmenter) error {
		if size == 0 {
			s.cache = nil
			return nil
		}
		c, err := lru.New[atoms.Sequence, []float64](size)
		if err != nil {
			return fmt.Errorf("segmentation cache: %w", err)
		}
		s.cache = c
		return nil
	}
}

// WithFeatureSink attaches a sink. Cached words are not rescored, so a sink
// only sees words scored since the last purge.
func WithFeatureSink(sink FeatureSink) Option {
	return func(s *Segmenter) error {
		s.sink = sink
		return nil
	}
}

// NewSegmenter wraps engine.
func NewSegmenter(engine *substitus.Engine, opts ...Option) (*Segmenter, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: nil engine", substitus.ErrInvalidOptions)
	}
	s := &Segmenter{engine: engine}
	if err := WithCacheSize(DefaultCacheSize)(s); err != nil {
		return nil, err
	}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Engine returns the wrapped engine.
func (s *Segmenter) Engine() *substitus.Engine {
	return s.engine
}

// Options returns the engine tunables.
func (s *Segmenter) Options() substitus.Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Options()
}

// Tune changes the search tunables; zero values leave a tunable unchanged.
// Any change purges the cache.
func (s *Segmenter) Tune(minCompoundFrequency int64, kMostFrequent int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	if minCompoundFrequency != 0 {
		if err := s.engine.SetMinCompoundFrequency(minCompoundFrequency); err != nil {
			return err
		}
		changed = true
	}
	if kMostFrequent != 0 {
		if err := s.engine.SetKMostFrequent(kMostFrequent); err != nil {
			return err
		}
		changed = true
	}
	if changed {
		s.Purge()
		o := s.engine.Options()
		log.Debugf("tuned engine: min compound frequency %d, k most frequent %d",
			o.MinCompoundFrequency, o.KMostFrequent)
	}
	return nil
}

// Purge drops every cached segmentation.
func (s *Segmenter) Purge() {
	if s.cache != nil {
		s.cache.Purge()
	}
}

// CacheLen returns the number of cached segmentations.
func (s *Segmenter) CacheLen() int {
	if s.cache == nil {
		return 0
	}
	return s.cache.Len()
}

// SegmentizeP computes the n-1 boundary probabilities of seq.
func (s *Segmenter) SegmentizeP(seq atoms.Sequence) (*ProbabilisticSegmentation, error) {
	if seq.IsEmpty() {
		return nil, fmt.Errorf("%w: cannot segment an empty word", substitus.ErrEmptySequence)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cache != nil {
		if probs, ok := s.cache.Get(seq); ok {
			return &ProbabilisticSegmentation{Atoms: seq, Probabilities: append([]float64(nil), probs...)}, nil
		}
	}
	probs, err := s.score(seq)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Add(seq, append([]float64(nil), probs...))
	}
	return &ProbabilisticSegmentation{Atoms: seq, Probabilities: probs}, nil
}

func (s *Segmenter) score(seq atoms.Sequence) ([]float64, error) {
	n := seq.Len()
	probs := make([]float64, boundaries(seq))
	for i := 1; i < n; i++ {
		prefix, suffix := seq.Split(i)
		r, err := s.engine.Score(prefix, suffix, s.sink != nil)
		if err != nil {
			return nil, fmt.Errorf("boundary %s|%s: %w", prefix, suffix, err)
		}
		probs[i-1] = r.Segmentability
		if s.sink != nil {
			if err := s.sink.Accept(seq, i-1, r.Features); err != nil {
				return nil, fmt.Errorf("feature sink: %w", err)
			}
		}
	}
	return probs, nil
}

// WordResult is the outcome for one word of a batch.
type WordResult struct {
	Word         atoms.Sequence
	Segmentation *ProbabilisticSegmentation
	Err          error
}

// SegmentAll segments words with up to workers concurrent words, in input
// order. A failing word carries its error and does not stop the others; the
// returned error is only set when ctx ends before every word was processed.
func (s *Segmenter) SegmentAll(ctx context.Context, words []atoms.Sequence, workers int) ([]WordResult, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]WordResult, len(words))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, w := range words {
		if gctx.Err() != nil {
			break
		}
		i, w := i, w
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			seg, err := s.SegmentizeP(w)
			if err != nil {
				log.Warnf("skipping %q: %v", w, err)
			}
			results[i] = WordResult{Word: w, Segmentation: seg, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

// Features scores every boundary of seq with its feature vector. Results are
// neither cached nor sent to the sink.
func (s *Segmenter) Features(seq atoms.Sequence) ([][]float64, error) {
	if seq.IsEmpty() {
		return nil, fmt.Errorf("%w: cannot segment an empty word", substitus.ErrEmptySequence)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([][]float64, 0, boundaries(seq))
	for i := 1; i < seq.Len(); i++ {
		prefix, suffix := seq.Split(i)
		r, err := s.engine.Score(prefix, suffix, true)
		if err != nil {
			return nil, fmt.Errorf("boundary %s|%s: %w", prefix, suffix, err)
		}
		out = append(out, r.Features)
	}
	return out, nil
}
