package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curate/internal/domain"
)

func TestObserveSelection(t *testing.T) {
	r := NewRecorder()
	res := domain.SelectionResult{Stats: domain.SelectionStats{
		TotalOriginal:     10,
		TotalFiltered:     8,
		TotalSelected:     5,
		RelaxedPicks:      2,
		DuplicatesRemoved: 1,
		QualityStats:      domain.QualityStats{Mean: 0.8},
		DomainDistribution: map[string]int{
			"math": 3,
			"code": 2,
		},
		DifficultyDistribution: map[domain.DifficultyBucket]int{
			domain.BucketEasy: 3, domain.BucketMedium: 0, domain.BucketHard: 2,
		},
		DiversityAnalysis: domain.DatasetStats{DiversityScore: 0.42},
	}}

	r.ObserveSelection(res, 150*time.Millisecond)

	assert.Equal(t, 10.0, testutil.ToFloat64(r.poolSamples))
	assert.Equal(t, 8.0, testutil.ToFloat64(r.filteredSamples))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.selectedSamples))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.relaxedPicks))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.duplicatesRemoved))
	assert.InDelta(t, 0.42, testutil.ToFloat64(r.diversityScore), 1e-12)
	assert.InDelta(t, 0.8, testutil.ToFloat64(r.qualityMean), 1e-12)
	assert.Equal(t, 3.0, testutil.ToFloat64(r.selectedByDomain.WithLabelValues("math")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.selectedByDifficulty.WithLabelValues("medium")))
	assert.Equal(t, 1, testutil.CollectAndCount(r.selectionDuration))
}

func TestObserveOptimization(t *testing.T) {
	r := NewRecorder()
	r.ObserveOptimization(domain.CurationReport{
		BestIteration: 1,
		BestObjective: 0.77,
		Runs: []domain.RunSummary{
			{Iteration: 0, Objective: 0.7},
			{Iteration: 1, Objective: 0.77},
			{Iteration: 2, Error: "context canceled"},
		},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.optimizerRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.optimizerRuns.WithLabelValues("failed")))
	assert.InDelta(t, 0.77, testutil.ToFloat64(r.bestObjective), 1e-12)
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveOptimization(domain.CurationReport{BestIteration: 0, BestObjective: 0.5, Runs: []domain.RunSummary{{}}})

	path := filepath.Join(t.TempDir(), "textfiles", "curate.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "curate_optimizer_best_objective 0.5")
	assert.Contains(t, string(data), `curate_optimizer_runs_total{outcome="ok"} 1`)
}
