package selection

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"curate/internal/diversity"
	"curate/internal/domain"
)

// BuildStats reports on a selection drawn from a pool of totalOriginal samples.
func BuildStats(analyzer domain.DiversityAnalyzer, totalOriginal int, selected []domain.Sample) domain.SelectionStats {
	ratio := 0.0
	if totalOriginal > 0 {
		ratio = float64(len(selected)) / float64(totalOriginal)
	}
	return domain.SelectionStats{
		TotalOriginal:          totalOriginal,
		TotalSelected:          len(selected),
		SelectionRatio:         ratio,
		QualityStats:           Quality(selected),
		DomainDistribution:     diversity.DomainDistribution(selected),
		DifficultyDistribution: diversity.DifficultyDistribution(selected),
		DiversityAnalysis:      analyzer.Analyze(selected),
	}
}

// Quality summarises quality scores; std is the population deviation.
func Quality(samples []domain.Sample) domain.QualityStats {
	if len(samples) == 0 {
		return domain.QualityStats{}
	}
	scores := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = s.Quality
	}
	mean, variance := stat.MeanVariance(scores, nil)
	std := 0.0
	if n := float64(len(scores)); n > 1 {
		// MeanVariance is the unbiased estimate; rescale to population.
		std = math.Sqrt(variance * (n - 1) / n)
	}
	return domain.QualityStats{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(scores),
		Max:  floats.Max(scores),
	}
}
