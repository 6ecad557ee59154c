package selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curate/internal/domain"
)

func scored(id, dom string, difficulty, score float64) ScoredSample {
	return ScoredSample{
		Sample: domain.Sample{ID: id, Domain: dom, Difficulty: difficulty},
		Score:  score,
	}
}

func pickedIDs(out GreedyOutcome) []string {
	got := make([]string, len(out.Selected))
	for i, s := range out.Selected {
		got[i] = s.Sample.ID
	}
	return got
}

func TestNewGreedySelector_Caps(t *testing.T) {
	g := NewGreedySelector(domain.DefaultSelectionConfig(5), nil)
	assert.Equal(t, 2, g.DomainCap())
	assert.Equal(t, 1, g.BucketCap(domain.BucketEasy))
	assert.Equal(t, 2, g.BucketCap(domain.BucketMedium))
	assert.Equal(t, 1, g.BucketCap(domain.BucketHard))
}

func TestGreedySelect_ConstrainedSkipsCappedDomain(t *testing.T) {
	cfg := domain.DefaultSelectionConfig(5)
	cfg.EnableDifficultyBalance = false
	ranked := []ScoredSample{
		scored("a1", "a", 0.5, 0.9),
		scored("a2", "a", 0.5, 0.8),
		scored("a3", "a", 0.5, 0.7),
		scored("b1", "b", 0.5, 0.6),
		scored("c1", "c", 0.5, 0.5),
		scored("a4", "a", 0.5, 0.4),
	}
	out, err := NewGreedySelector(cfg, nil).Select(context.Background(), ranked)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "b1", "c1", "a3"}, pickedIDs(out))
	assert.Equal(t, 4, out.ConstrainedPicks)
	assert.Equal(t, 1, out.RelaxedPicks)
}

func TestGreedySelect_InfeasibleCapsStillTerminate(t *testing.T) {
	cfg := domain.DefaultSelectionConfig(2)
	cfg.MaxDomainRatio = 0.1 // cap floor(0.2) = 0
	ranked := []ScoredSample{
		scored("x", "a", 0.5, 0.9),
		scored("y", "a", 0.5, 0.8),
		scored("z", "a", 0.5, 0.7),
	}
	out, err := NewGreedySelector(cfg, nil).Select(context.Background(), ranked)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, pickedIDs(out))
	assert.Equal(t, 2, out.RelaxedPicks)
}

func TestGreedySelect_ExhaustsPool(t *testing.T) {
	cfg := domain.DefaultSelectionConfig(10)
	ranked := []ScoredSample{scored("x", "a", 0.1, 0.9), scored("y", "b", 0.9, 0.8)}
	out, err := NewGreedySelector(cfg, nil).Select(context.Background(), ranked)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, pickedIDs(out))
}

func TestGreedySelect_RelaxedPickIsRemoved(t *testing.T) {
	// Domain "a" is capped after one pick; the relaxed pick of a2 must not
	// be offered again.
	cfg := domain.DefaultSelectionConfig(3)
	cfg.MaxDomainRatio = 0.34 // cap 1, medium cap floor(1.5) = 1
	ranked := []ScoredSample{
		scored("a1", "a", 0.5, 0.9),
		scored("a2", "a", 0.5, 0.8),
		scored("a3", "a", 0.5, 0.7),
	}
	out, err := NewGreedySelector(cfg, nil).Select(context.Background(), ranked)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "a3"}, pickedIDs(out))
	assert.Equal(t, 1, out.ConstrainedPicks)
	assert.Equal(t, 2, out.RelaxedPicks)
}

func TestGreedySelect_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewGreedySelector(domain.DefaultSelectionConfig(2), nil).
		Select(ctx, []ScoredSample{scored("x", "a", 0.5, 1)})
	assert.ErrorIs(t, err, context.Canceled)
}
