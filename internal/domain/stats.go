package domain

// Vector is a sparse term -> weight map for one sample's text.
type Vector map[string]float64

// DuplicatePair flags two pool positions whose similarity reached the
// duplicate threshold. I is always smaller than J.
type DuplicatePair struct {
	I          int     `json:"i"`
	J          int     `json:"j"`
	Similarity float64 `json:"similarity"`
}

// DatasetStats is a derived snapshot of a sample set.
type DatasetStats struct {
	Total                  int                      `json:"total"`
	DomainDistribution     map[string]int           `json:"domain_distribution"`
	DifficultyDistribution map[DifficultyBucket]int `json:"difficulty_distribution"`
	SemanticDiversity      float64                  `json:"semantic_diversity"`
	DomainBalance          float64                  `json:"domain_balance"`
	DifficultyBalance      float64                  `json:"difficulty_balance"`
	DiversityScore         float64                  `json:"diversity_score"`
	DuplicatePairs         []DuplicatePair          `json:"duplicate_pairs"`
}

// QualityStats summarises the quality scores of a selection.
type QualityStats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// SelectionStats is the report attached to every selection result.
type SelectionStats struct {
	TotalOriginal          int                      `json:"total_original"`
	TotalFiltered          int                      `json:"total_filtered"`
	TotalSelected          int                      `json:"total_selected"`
	SelectionRatio         float64                  `json:"selection_ratio"`
	DuplicatesRemoved      int                      `json:"duplicates_removed"`
	RelaxedPicks           int                      `json:"relaxed_picks"`
	QualityStats           QualityStats             `json:"quality_stats"`
	DomainDistribution     map[string]int           `json:"domain_distribution"`
	DifficultyDistribution map[DifficultyBucket]int `json:"difficulty_distribution"`
	DiversityAnalysis      DatasetStats             `json:"diversity_analysis"`
}

// SelectionResult is the output handed to downstream writers.
type SelectionResult struct {
	SelectedSamples []Sample       `json:"-"`
	Stats           SelectionStats `json:"selection_stats"`
	// Message explains empty or partial results. It is empty when the
	// selection filled the target size.
	Message string `json:"message,omitempty"`
}
