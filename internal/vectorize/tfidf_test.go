package vectorize

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"curate/internal/domain"
)

func squaredNorm(v domain.Vector) float64 {
	sum := 0.0
	for _, w := range v {
		sum += w * w
	}
	return sum
}

func TestFitTransform_UnigramsAndBigrams(t *testing.T) {
	v := New(Options{NGramMax: 2})
	vecs, err := v.FitTransform([]string{"The cat sat", "the dog sat"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)

	assert.Equal(t, 5, v.Dimension(), "cat, dog, sat, cat sat, dog sat")
	assert.Contains(t, vecs[0], "cat sat")
	assert.Contains(t, vecs[1], "dog sat")
	assert.NotContains(t, vecs[0], "the", "stopwords are dropped")
	for _, vec := range vecs {
		assert.InDelta(t, 1.0, squaredNorm(vec), 1e-9)
	}
	// shared term carries less weight than the distinguishing one
	assert.Less(t, vecs[0]["sat"], vecs[0]["cat"])
}

func TestFitTransform_UnigramOnly(t *testing.T) {
	v := New(Options{NGramMax: 1})
	vecs, err := v.FitTransform([]string{"alpha beta", "beta gamma"})
	require.NoError(t, err)
	assert.Equal(t, 3, v.Dimension())
	assert.NotContains(t, vecs[0], "alpha beta")
}

func TestFitTransform_EmptyTextIsZeroVector(t *testing.T) {
	v := New(DefaultOptions())
	vecs, err := v.FitTransform([]string{"gradient descent converges", ""})
	require.NoError(t, err)
	assert.Empty(t, vecs[1])
	assert.Zero(t, squaredNorm(vecs[1]))
}

func TestFitTransform_EmptyVocabulary(t *testing.T) {
	v := New(DefaultOptions())
	_, err := v.FitTransform([]string{"the and of", "   "})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestFitTransform_IdenticalTextsIdenticalVectors(t *testing.T) {
	v := New(DefaultOptions())
	vecs, err := v.FitTransform([]string{"solve the quadratic equation", "solve the quadratic equation", "write a poem"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], vecs[1])
}

func TestFitTransform_Stemming(t *testing.T) {
	stemmed := New(Options{NGramMax: 1, Stem: true})
	vecs, err := stemmed.FitTransform([]string{"running", "runs"})
	require.NoError(t, err)
	assert.Equal(t, vecs[0], vecs[1])
	assert.Equal(t, 1, stemmed.Dimension())

	plain := New(Options{NGramMax: 1})
	vecs, err = plain.FitTransform([]string{"running", "runs"})
	require.NoError(t, err)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestPrepare_MaxFeatures(t *testing.T) {
	v := New(Options{NGramMax: 1, MaxFeatures: 2})
	require.NoError(t, v.Prepare([]string{"apple apple banana", "apple cherry banana", "durian"}))
	assert.Equal(t, 2, v.Dimension())

	vec, err := v.Transform("durian")
	require.NoError(t, err)
	assert.Empty(t, vec, "durian was cut from the vocabulary")
}

func TestTransform_RequiresPrepare(t *testing.T) {
	_, err := New(DefaultOptions()).Transform("anything")
	assert.Error(t, err)
}

func TestFitTransform_BitIdenticalAcrossCalls(t *testing.T) {
	words := []string{"matrix", "vector", "kernel", "gradient", "tensor", "scalar", "sparse", "dense", "norm", "basis"}
	corpus := make([]string, 40)
	for i := range corpus {
		corpus[i] = fmt.Sprintf("%s %s %s lesson %d about %s and %s",
			words[i%10], words[(i*3)%10], words[(i*7)%10], i, words[(i+4)%10], words[(i*9+1)%10])
	}

	first, err := New(DefaultOptions()).FitTransform(corpus)
	require.NoError(t, err)
	for run := 0; run < 50; run++ {
		got, err := New(DefaultOptions()).FitTransform(corpus)
		require.NoError(t, err)
		require.Len(t, got, len(first))
		for i := range got {
			require.Len(t, got[i], len(first[i]))
			for term, w := range first[i] {
				require.Equal(t, math.Float64bits(w), math.Float64bits(got[i][term]),
					"run %d doc %d term %q", run, i, term)
			}
		}
	}
}
