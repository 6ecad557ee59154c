package domain

import "context"

// Vectorizer converts a batch of texts into comparable sparse vectors.
// Implementations fit their vocabulary on the batch they are given.
type Vectorizer interface {
	Name() string
	FitTransform(corpus []string) ([]Vector, error)
}

// DiversityAnalyzer measures how spread out a sample set is.
type DiversityAnalyzer interface {
	Analyze(samples []Sample) DatasetStats
	Contribution(sample Sample, stats DatasetStats) float64
	FindDuplicatePairs(samples []Sample, threshold float64) []DuplicatePair
	RemoveDuplicates(samples []Sample) ([]Sample, int)
}

// CurationService defines the operations exposed by the application core.
type CurationService interface {
	Select(ctx context.Context, samples []Sample, cfg SelectionConfig) (CurationReport, error)
	Analyze(samples []Sample) DatasetStats
	Deduplicate(samples []Sample) ([]Sample, int)
}

// CurationReport is a selection result together with the optimizer run that
// produced it.
type CurationReport struct {
	Result        SelectionResult `json:"result"`
	BestIteration int             `json:"best_iteration"`
	BestObjective float64         `json:"best_objective"`
	Runs          []RunSummary    `json:"runs,omitempty"`
}

// RunSummary records the outcome of one optimizer run.
type RunSummary struct {
	Iteration int     `json:"iteration"`
	Objective float64 `json:"objective"`
	Selected  int     `json:"selected"`
	Error     string  `json:"error,omitempty"`
}
