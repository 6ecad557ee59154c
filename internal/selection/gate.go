package selection

import "curate/internal/domain"

// FilterByQuality keeps samples whose quality is at least threshold, in
// their original order.
func FilterByQuality(samples []domain.Sample, threshold float64) []domain.Sample {
	out := make([]domain.Sample, 0, len(samples))
	for _, s := range samples {
		if s.Quality >= threshold {
			out = append(out, s)
		}
	}
	return out
}
