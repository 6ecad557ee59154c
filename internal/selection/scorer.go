package selection

import (
	"sort"

	"curate/internal/domain"
)

// ScoredSample pairs a candidate with its rank score.
type ScoredSample struct {
	Sample domain.Sample
	Score  float64
}

// Scorer combines quality and diversity contribution into one rank score.
//
// Contributions are computed once against the aggregate stats of the whole
// filtered pool and are not refreshed as picks are made.
type Scorer struct {
	analyzer domain.DiversityAnalyzer
	cfg      domain.SelectionConfig
}

// NewScorer creates a scorer for one selection config.
func NewScorer(analyzer domain.DiversityAnalyzer, cfg domain.SelectionConfig) *Scorer {
	return &Scorer{analyzer: analyzer, cfg: cfg}
}

// Score returns candidates in pool order with their scores. baseline is the
// analysis of the same pool; it is ignored when diversity optimisation is off.
func (s *Scorer) Score(samples []domain.Sample, baseline domain.DatasetStats) []ScoredSample {
	out := make([]ScoredSample, len(samples))
	for i, sample := range samples {
		score := sample.Quality
		if s.cfg.EnableDiversityOptimization {
			score = s.cfg.QualityWeight*sample.Quality +
				s.cfg.DiversityWeight*s.analyzer.Contribution(sample, baseline)
		}
		out[i] = ScoredSample{Sample: sample, Score: score}
	}
	return out
}

// Rank returns a copy of scored sorted by descending score. Equal scores keep
// their input order.
func Rank(scored []ScoredSample) []ScoredSample {
	ranked := append([]ScoredSample(nil), scored...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
