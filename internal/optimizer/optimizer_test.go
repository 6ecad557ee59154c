package optimizer

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curate/internal/diversity"
	"curate/internal/domain"
	apperrors "curate/internal/pkg/errors"
	"curate/internal/selection"
)

func newSelector() *selection.Selector {
	return selection.NewSelector(diversity.NewAnalyzer(diversity.DefaultConfig(), nil), nil)
}

func pool() []domain.Sample {
	domains := []string{"math", "code", "writing", "science"}
	words := []string{"algebra", "recursion", "poetry", "chemistry", "geometry", "sorting", "essay", "physics"}
	out := make([]domain.Sample, 0, 24)
	for i := 0; i < 24; i++ {
		out = append(out, domain.Sample{
			ID:         fmt.Sprintf("s%02d", i),
			Text:       fmt.Sprintf("%s question about %s number %d", domains[i%4], words[i%len(words)], i),
			Domain:     domains[i%4],
			Difficulty: float64(i%10) / 10,
			Quality:    0.6 + float64(i%5)*0.08,
		})
	}
	return out
}

func ids(samples []domain.Sample) []string {
	out := make([]string, len(samples))
	for i, s := range samples {
		out[i] = s.ID
	}
	return out
}

func TestOptimize_SingleIterationMatchesDirectChain(t *testing.T) {
	sel := newSelector()
	cfg := domain.DefaultSelectionConfig(8)

	direct, err := sel.Select(context.Background(), pool(), cfg)
	require.NoError(t, err)

	opt := New(sel, Config{Iterations: 1, Seed: 7, Workers: 1}, nil)
	report, err := opt.Optimize(context.Background(), pool(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 0, report.BestIteration)
	assert.Equal(t, ids(direct.SelectedSamples), ids(report.Result.SelectedSamples))
	assert.Equal(t, direct.Stats, report.Result.Stats)
	assert.InDelta(t, Objective(direct), report.BestObjective, 1e-12)
	require.Len(t, report.Runs, 1)
}

func TestOptimize_Deterministic(t *testing.T) {
	cfg := domain.DefaultSelectionConfig(8)
	sequential := New(newSelector(), Config{Iterations: 6, Seed: 99, Workers: 1}, nil)
	parallel := New(newSelector(), Config{Iterations: 6, Seed: 99, Workers: 4}, nil)

	a, err := sequential.Optimize(context.Background(), pool(), cfg)
	require.NoError(t, err)
	b, err := parallel.Optimize(context.Background(), pool(), cfg)
	require.NoError(t, err)

	assert.Equal(t, a.BestIteration, b.BestIteration)
	assert.Equal(t, ids(a.Result.SelectedSamples), ids(b.Result.SelectedSamples))
	assert.Equal(t, a.Runs, b.Runs)
}

func TestOptimize_BestIsAtLeastFirstRun(t *testing.T) {
	opt := New(newSelector(), Config{Iterations: 8, Seed: 3, Workers: 2}, nil)
	report, err := opt.Optimize(context.Background(), pool(), domain.DefaultSelectionConfig(8))
	require.NoError(t, err)

	require.Len(t, report.Runs, 8)
	for _, run := range report.Runs {
		assert.Empty(t, run.Error)
		assert.LessOrEqual(t, run.Objective, report.BestObjective)
		assert.LessOrEqual(t, run.Selected, 8)
	}
	// Ties keep the earliest run.
	for _, run := range report.Runs[:report.BestIteration] {
		assert.Less(t, run.Objective, report.BestObjective)
	}
}

func TestOptimize_EmptyPool(t *testing.T) {
	opt := New(newSelector(), DefaultConfig(), nil)
	report, err := opt.Optimize(context.Background(), nil, domain.DefaultSelectionConfig(5))
	require.NoError(t, err)

	assert.Empty(t, report.Result.SelectedSamples)
	assert.Equal(t, selection.MessageEmptyPool, report.Result.Message)
	assert.Equal(t, -1, report.BestIteration)
	assert.Empty(t, report.Runs)
}

func TestOptimize_CanceledContextExhaustsRuns(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt := New(newSelector(), Config{Iterations: 3, Seed: 1, Workers: 2}, nil)
	_, err := opt.Optimize(ctx, pool(), domain.DefaultSelectionConfig(8))
	require.Error(t, err)
	assert.True(t, apperrors.IsOptimizerExhausted(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptimize_InvalidConfig(t *testing.T) {
	opt := New(newSelector(), Config{Iterations: 0, Workers: 1}, nil)
	_, err := opt.Optimize(context.Background(), pool(), domain.DefaultSelectionConfig(8))
	assert.True(t, apperrors.IsConfiguration(err))

	opt = New(newSelector(), DefaultConfig(), nil)
	_, err = opt.Optimize(context.Background(), pool(), domain.DefaultSelectionConfig(0))
	assert.True(t, apperrors.IsConfiguration(err))
}

func TestRunSeed(t *testing.T) {
	assert.Equal(t, RunSeed(42, 1), RunSeed(42, 1))
	assert.NotEqual(t, RunSeed(42, 1), RunSeed(42, 2))
	assert.NotEqual(t, RunSeed(42, 1), RunSeed(43, 1))
}
