package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curate/internal/domain"
)

func TestBuild_CosineValues(t *testing.T) {
	idx := Build([]domain.Vector{
		{"a": 1},
		{"a": 1, "b": 1},
		{"c": 2},
		{},
	})
	require.Equal(t, 4, idx.Len())

	assert.InDelta(t, 1.0, idx.Similarity(0, 0), 1e-9)
	assert.InDelta(t, 0.7071067811865475, idx.Similarity(0, 1), 1e-9)
	assert.InDelta(t, idx.Similarity(0, 1), idx.Similarity(1, 0), 1e-12)
	assert.Zero(t, idx.Similarity(0, 2))
	assert.Zero(t, idx.Similarity(3, 3), "zero vector is similar to nothing")
}

func TestDuplicatePairs_OrderedAndThresholded(t *testing.T) {
	idx := Build([]domain.Vector{
		{"x": 1},
		{"y": 1},
		{"x": 1},
		{"x": 3},
	})
	pairs := idx.DuplicatePairs(DefaultDuplicateThreshold)
	require.Len(t, pairs, 3)
	assert.Equal(t, 0, pairs[0].I)
	assert.Equal(t, 2, pairs[0].J)
	assert.Equal(t, 0, pairs[1].I)
	assert.Equal(t, 3, pairs[1].J)
	assert.Equal(t, 2, pairs[2].I)
	assert.Equal(t, 3, pairs[2].J)
	for _, p := range pairs {
		assert.Less(t, p.I, p.J)
		assert.InDelta(t, 1.0, p.Similarity, 1e-9)
	}
}

func TestMeanPairwise(t *testing.T) {
	idx := Build([]domain.Vector{{"a": 1}, {"a": 1}, {"b": 1}})
	// pairs: (0,1)=1 (0,2)=0 (1,2)=0
	assert.InDelta(t, 1.0/3.0, idx.MeanPairwise(), 1e-9)

	assert.Zero(t, Build([]domain.Vector{{"a": 1}}).MeanPairwise())
}

func TestBuild_EmptyBatches(t *testing.T) {
	assert.Zero(t, Build(nil).Len())

	idx := Build([]domain.Vector{{}, {}})
	assert.Equal(t, 2, idx.Len())
	assert.Zero(t, idx.MeanPairwise())
	assert.Empty(t, idx.DuplicatePairs(0.5))
}
