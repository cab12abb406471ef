package scoring

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Selector picks the winning alternative per item and orchestrates
// gathering and scoring across a whole shopping list.
type Selector struct {
	gatherer *Gatherer
	scorer   *AlternativeScorer
	cfg      *Config
	metrics  *MetricsRecorder
	logger   zerolog.Logger
}

// NewSelector creates a selector over the given gatherer.
func NewSelector(gatherer *Gatherer, cfg *Config, metrics *MetricsRecorder) *Selector {
	return &Selector{
		gatherer: gatherer,
		scorer:   NewAlternativeScorer(cfg),
		cfg:      cfg,
		metrics:  metrics,
		logger:   log.With().Str("component", "optimal_selector").Logger(),
	}
}

// SelectBest gathers and scores the candidates for one item and picks the
// best one. A zero-candidate outcome is reported via SelectionResult, not as
// an error. Preferences are normalized here, on read; a zero weight vector
// surfaces ErrInvalidWeights.
func (s *Selector) SelectBest(ctx context.Context, item ListItem, prefs Preferences) (SelectionResult, error) {
	prefs, err := normalizePreferences(prefs)
	if err != nil {
		return SelectionResult{}, err
	}
	return s.selectNormalized(ctx, item, prefs)
}

// selectNormalized assumes prefs have already been normalized. SelectList
// uses it to normalize once per run instead of once per item.
func (s *Selector) selectNormalized(ctx context.Context, item ListItem, prefs Preferences) (SelectionResult, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordSelectionDuration(time.Since(start))
		}
	}()

	candidates, err := s.gatherer.Gather(ctx, item, prefs)
	if err != nil {
		return SelectionResult{}, err
	}
	if s.metrics != nil {
		s.metrics.RecordCandidateCount(len(candidates))
	}

	if len(candidates) == 0 {
		if s.metrics != nil {
			s.metrics.RecordNoCandidate()
		}
		return SelectionResult{ItemID: item.ItemID, NoCandidate: true, Ranked: []ScoredAlternative{}}, nil
	}

	ranked := s.scorer.ScoreAll(candidates, prefs)
	s.rank(ranked)

	chosen := ranked[0]
	if s.metrics != nil {
		s.metrics.RecordCompositeScore(chosen.CompositeScore)
	}

	return SelectionResult{
		ItemID: item.ItemID,
		Chosen: &chosen,
		Ranked: ranked,
	}, nil
}

// SelectList optimizes every item of a list independently, fanning out one
// scoring task per item and preserving the input item order in the result.
// There is no cross-item budget constraint or joint optimization.
func (s *Selector) SelectList(ctx context.Context, items []ListItem, prefs Preferences) ([]SelectionResult, error) {
	prefs, err := normalizePreferences(prefs)
	if err != nil {
		return nil, err
	}

	results := make([]SelectionResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrentItems)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			result, err := s.selectNormalized(gctx, item, prefs)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordListSize(len(items))
	}
	return results, nil
}

// rank sorts alternatives best-first. Ties on composite score (within the
// configured epsilon) break on lower price, then store name ascending, then
// observation id, so the selection is reproducible for identical inputs.
func (s *Selector) rank(ranked []ScoredAlternative) {
	// Collators carry internal buffers, so build one per call rather than
	// sharing across the concurrent per-item runs.
	coll := collate.New(language.Und)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]

		if math.Abs(a.CompositeScore-b.CompositeScore) > s.cfg.ScoreEpsilon {
			return a.CompositeScore > b.CompositeScore
		}
		if a.Amount != b.Amount {
			return a.Amount < b.Amount
		}
		if c := coll.CompareString(a.StoreName, b.StoreName); c != 0 {
			return c < 0
		}
		return a.PriceObservationID < b.PriceObservationID
	})
}

// normalizePreferences normalizes both weight groups, leaving the stored
// record untouched.
func normalizePreferences(prefs Preferences) (Preferences, error) {
	weights, err := prefs.Weights.Normalize()
	if err != nil {
		return Preferences{}, err
	}
	qualityWeights, err := prefs.QualityWeights.Normalize()
	if err != nil {
		return Preferences{}, err
	}
	prefs.Weights = weights
	prefs.QualityWeights = qualityWeights
	return prefs, nil
}
