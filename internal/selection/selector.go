package selection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"curate/internal/domain"
	"curate/internal/pkg/logger"
)

// Result messages for selections that did not fill the target size.
const (
	MessageEmptyPool     = "no candidate samples provided"
	MessageNoneQualified = "no samples passed the quality threshold"
)

// Candidates is a validated, filtered and scored pool ready for one or more
// greedy passes. It is read-only once built.
type Candidates struct {
	Config            domain.SelectionConfig
	TotalOriginal     int
	Filtered          []domain.Sample
	Scored            []ScoredSample
	Baseline          domain.DatasetStats
	DuplicatesRemoved int
}

// Empty reports whether the caller supplied no samples at all.
func (c *Candidates) Empty() bool { return c.TotalOriginal == 0 }

// Bypass reports whether the filtered pool already fits the target size, in
// which case it is returned unchanged without selection.
func (c *Candidates) Bypass() bool { return len(c.Filtered) <= c.Config.TargetSize }

// Selector runs the quality gate, scorer and greedy selector as one chain.
type Selector struct {
	analyzer domain.DiversityAnalyzer
	log      *zap.Logger
}

// NewSelector creates a selection chain backed by analyzer.
func NewSelector(analyzer domain.DiversityAnalyzer, log *zap.Logger) *Selector {
	return &Selector{analyzer: analyzer, log: logger.OrNop(log)}
}

// Analyzer exposes the analyzer used for scoring and reporting.
func (s *Selector) Analyzer() domain.DiversityAnalyzer { return s.analyzer }

// Select runs the full chain once over samples in the given order.
func (s *Selector) Select(ctx context.Context, samples []domain.Sample, cfg domain.SelectionConfig) (domain.SelectionResult, error) {
	c, err := s.Prepare(samples, cfg)
	if err != nil {
		return domain.SelectionResult{}, err
	}
	return s.Run(ctx, c, c.Scored)
}

// Prepare validates cfg, applies the quality gate and optional
// deduplication, and scores the remaining pool against its own baseline.
func (s *Selector) Prepare(samples []domain.Sample, cfg domain.SelectionConfig) (*Candidates, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Candidates{Config: cfg, TotalOriginal: len(samples)}
	if len(samples) == 0 {
		return c, nil
	}

	filtered := samples
	if cfg.EnableQualityFilter {
		filtered = FilterByQuality(samples, cfg.QualityThreshold)
	}
	if cfg.EnableDeduplication && len(filtered) > 1 {
		filtered, c.DuplicatesRemoved = s.analyzer.RemoveDuplicates(filtered)
	}
	c.Filtered = filtered
	s.log.Info("candidate pool prepared",
		zap.Int("total", len(samples)),
		zap.Int("filtered", len(filtered)),
		zap.Int("duplicates_removed", c.DuplicatesRemoved),
		zap.Int("target_size", cfg.TargetSize))

	if c.Bypass() {
		return c, nil
	}
	if cfg.EnableDiversityOptimization {
		c.Baseline = s.analyzer.Analyze(filtered)
	}
	c.Scored = NewScorer(s.analyzer, cfg).Score(filtered, c.Baseline)
	return c, nil
}

// Run performs one greedy pass over order, which must be a permutation of
// c.Scored. Ties in score are broken by position in order.
func (s *Selector) Run(ctx context.Context, c *Candidates, order []ScoredSample) (domain.SelectionResult, error) {
	if c.Empty() {
		return s.finish(c, nil, 0, MessageEmptyPool), nil
	}
	if c.Bypass() {
		msg := ""
		switch {
		case len(c.Filtered) == 0:
			msg = MessageNoneQualified
		case len(c.Filtered) < c.Config.TargetSize:
			msg = fmt.Sprintf("only %d samples available after filtering, fewer than target size %d; returning all of them",
				len(c.Filtered), c.Config.TargetSize)
		}
		return s.finish(c, c.Filtered, 0, msg), nil
	}

	outcome, err := NewGreedySelector(c.Config, s.log).Select(ctx, Rank(order))
	if err != nil {
		return domain.SelectionResult{}, err
	}
	selected := make([]domain.Sample, len(outcome.Selected))
	for i, picked := range outcome.Selected {
		selected[i] = picked.Sample
	}
	return s.finish(c, selected, outcome.RelaxedPicks, ""), nil
}

func (s *Selector) finish(c *Candidates, selected []domain.Sample, relaxed int, msg string) domain.SelectionResult {
	if selected == nil {
		selected = []domain.Sample{}
	}
	stats := BuildStats(s.analyzer, c.TotalOriginal, selected)
	stats.TotalFiltered = len(c.Filtered)
	stats.DuplicatesRemoved = c.DuplicatesRemoved
	stats.RelaxedPicks = relaxed
	return domain.SelectionResult{SelectedSamples: selected, Stats: stats, Message: msg}
}
