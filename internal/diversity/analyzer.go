package diversity

import (
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"curate/internal/domain"
	"curate/internal/pkg/logger"
	"curate/internal/similarity"
	"curate/internal/vectorize"
)

const (
	// neutralSemanticDiversity stands in when vectorisation fails or the
	// batch is too large to compare pairwise.
	neutralSemanticDiversity = 0.5
	// semanticContribution approximates a sample's marginal semantic value
	// without re-vectorising the growing selection.
	semanticContribution = 0.5

	defaultMaxPairwiseSamples = 5000
)

// Diversity score weights.
const (
	semanticWeight   = 0.5
	domainWeight     = 0.3
	difficultyWeight = 0.2

	contributionDomainWeight     = 0.4
	contributionDifficultyWeight = 0.3
	contributionSemanticWeight   = 0.3
)

// Config tunes the analyzer.
type Config struct {
	SimilarityThreshold float64           `yaml:"similarity_threshold"`
	MaxPairwiseSamples  int               `yaml:"max_pairwise_samples"`
	Vectorizer          vectorize.Options `yaml:"vectorizer"`
}

// DefaultConfig returns a 0.8 duplicate threshold over default TF-IDF options.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: similarity.DefaultDuplicateThreshold,
		MaxPairwiseSamples:  defaultMaxPairwiseSamples,
		Vectorizer:          vectorize.DefaultOptions(),
	}
}

// Analyzer measures semantic, domain and difficulty diversity. It holds no
// per-call state and is safe for concurrent use.
type Analyzer struct {
	cfg           Config
	newVectorizer func() domain.Vectorizer
	log           *zap.Logger
}

// NewAnalyzer creates an analyzer backed by batch TF-IDF.
func NewAnalyzer(cfg Config, log *zap.Logger) *Analyzer {
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = similarity.DefaultDuplicateThreshold
	}
	if cfg.MaxPairwiseSamples <= 0 {
		cfg.MaxPairwiseSamples = defaultMaxPairwiseSamples
	}
	opts := cfg.Vectorizer
	return &Analyzer{
		cfg:           cfg,
		newVectorizer: func() domain.Vectorizer { return vectorize.New(opts) },
		log:           logger.OrNop(log),
	}
}

// Analyze computes the diversity snapshot of samples.
func (a *Analyzer) Analyze(samples []domain.Sample) domain.DatasetStats {
	stats := domain.DatasetStats{
		Total:                  len(samples),
		DomainDistribution:     DomainDistribution(samples),
		DifficultyDistribution: DifficultyDistribution(samples),
		SemanticDiversity:      1.0,
		DuplicatePairs:         []domain.DuplicatePair{},
	}

	if len(samples) >= 2 {
		idx, ok := a.index(samples)
		if ok {
			stats.SemanticDiversity = clamp01(1 - idx.MeanPairwise())
			if pairs := idx.DuplicatePairs(a.cfg.SimilarityThreshold); pairs != nil {
				stats.DuplicatePairs = pairs
			}
		} else {
			stats.SemanticDiversity = neutralSemanticDiversity
		}
	}

	stats.DomainBalance = NormalizedEntropy(stats.DomainDistribution)
	stats.DifficultyBalance = NormalizedEntropy(bucketCounts(stats.DifficultyDistribution))
	stats.DiversityScore = semanticWeight*stats.SemanticDiversity +
		domainWeight*stats.DomainBalance +
		difficultyWeight*stats.DifficultyBalance
	return stats
}

// Contribution estimates how much sample would add to a set described by
// stats. Categories absent from stats contribute fully.
func (a *Analyzer) Contribution(sample domain.Sample, stats domain.DatasetStats) float64 {
	domainPart := 1.0
	difficultyPart := 1.0
	if stats.Total > 0 {
		if count := stats.DomainDistribution[sample.Domain]; count > 0 {
			domainPart = 1 - float64(count)/float64(stats.Total)
		}
		if count := stats.DifficultyDistribution[sample.Bucket()]; count > 0 {
			difficultyPart = 1 - float64(count)/float64(stats.Total)
		}
	}
	return contributionDomainWeight*domainPart +
		contributionDifficultyWeight*difficultyPart +
		contributionSemanticWeight*semanticContribution
}

// FindDuplicatePairs returns the near-duplicate pairs of samples at threshold.
func (a *Analyzer) FindDuplicatePairs(samples []domain.Sample, threshold float64) []domain.DuplicatePair {
	if len(samples) < 2 {
		return nil
	}
	idx, ok := a.index(samples)
	if !ok {
		return nil
	}
	return idx.DuplicatePairs(threshold)
}

// RemoveDuplicates drops the lower-quality member of every near-duplicate
// pair, keeping the earlier sample on ties. Passes repeat until none flags a
// pair, because dropping samples changes the batch IDF. The result is
// therefore a fixed point and the operation is idempotent.
func (a *Analyzer) RemoveDuplicates(samples []domain.Sample) ([]domain.Sample, int) {
	kept := append([]domain.Sample(nil), samples...)
	removed := 0
	for pass := 1; ; pass++ {
		pairs := a.FindDuplicatePairs(kept, a.cfg.SimilarityThreshold)
		if len(pairs) == 0 {
			return kept, removed
		}
		drop := make(map[int]bool)
		for _, p := range pairs {
			if drop[p.I] || drop[p.J] {
				continue
			}
			if kept[p.J].Quality > kept[p.I].Quality {
				drop[p.I] = true
			} else {
				drop[p.J] = true
			}
		}
		next := make([]domain.Sample, 0, len(kept)-len(drop))
		for i, s := range kept {
			if !drop[i] {
				next = append(next, s)
			}
		}
		a.log.Debug("dedup pass",
			zap.Int("pass", pass),
			zap.Int("pairs", len(pairs)),
			zap.Int("dropped", len(drop)))
		removed += len(drop)
		kept = next
	}
}

// index vectorises samples and builds their similarity index. ok is false
// when the batch is too large or vectorisation failed.
func (a *Analyzer) index(samples []domain.Sample) (*similarity.Index, bool) {
	if len(samples) > a.cfg.MaxPairwiseSamples {
		a.log.Warn("batch too large for pairwise similarity, using neutral estimate",
			zap.Int("samples", len(samples)),
			zap.Int("max_pairwise_samples", a.cfg.MaxPairwiseSamples))
		return nil, false
	}
	corpus := make([]string, len(samples))
	for i, s := range samples {
		corpus[i] = s.Content()
	}
	vectors, err := a.newVectorizer().FitTransform(corpus)
	if err != nil {
		a.log.Debug("vectorisation failed, using neutral estimate", zap.Error(err))
		return nil, false
	}
	return similarity.Build(vectors), true
}

// DomainDistribution counts samples per domain.
func DomainDistribution(samples []domain.Sample) map[string]int {
	counts := make(map[string]int)
	for _, s := range samples {
		counts[s.Domain]++
	}
	return counts
}

// DifficultyDistribution counts samples per bucket; every bucket is present.
func DifficultyDistribution(samples []domain.Sample) map[domain.DifficultyBucket]int {
	counts := make(map[domain.DifficultyBucket]int, 3)
	for _, b := range domain.AllBuckets() {
		counts[b] = 0
	}
	for _, s := range samples {
		counts[s.Bucket()]++
	}
	return counts
}

// NormalizedEntropy is the Shannon entropy of counts divided by its maximum
// for the number of categories present. A single category scores 0.
func NormalizedEntropy(counts map[string]int) float64 {
	keys := make([]string, 0, len(counts))
	total := 0
	for k, c := range counts {
		if c > 0 {
			keys = append(keys, k)
			total += c
		}
	}
	if len(keys) <= 1 {
		return 0
	}
	sort.Strings(keys)
	p := make([]float64, len(keys))
	for i, k := range keys {
		p[i] = float64(counts[k]) / float64(total)
	}
	return clamp01(stat.Entropy(p) / math.Log(float64(len(keys))))
}

func bucketCounts(dist map[domain.DifficultyBucket]int) map[string]int {
	out := make(map[string]int, len(dist))
	for b, c := range dist {
		out[string(b)] = c
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
