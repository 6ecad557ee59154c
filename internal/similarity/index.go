// Package similarity computes pairwise cosine similarity over a batch of
// sparse vectors.
//
// The full n×n matrix is materialised, so cost is O(n²) in both time and
// memory. Callers are expected to cap the batch size; a few thousand samples
// is the practical ceiling.
package similarity

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"curate/internal/domain"
)

// DefaultDuplicateThreshold is the similarity at or above which two samples
// count as near-duplicates.
const DefaultDuplicateThreshold = 0.8

// Index holds the pairwise cosine similarities of one batch.
type Index struct {
	n    int
	gram *mat.Dense
}

// Build densifies vectors over their joint vocabulary and computes the Gram
// matrix of the row-normalised batch. Zero vectors are similar to nothing,
// themselves included.
func Build(vectors []domain.Vector) *Index {
	n := len(vectors)
	columns := vocabulary(vectors)
	if n == 0 || len(columns) == 0 {
		return &Index{n: n}
	}

	x := mat.NewDense(n, len(columns), nil)
	row := make([]float64, len(columns))
	for i, vec := range vectors {
		for j := range row {
			row[j] = 0
		}
		for term, w := range vec {
			row[columns[term]] = w
		}
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		x.SetRow(i, row)
	}

	var gram mat.Dense
	gram.Mul(x, x.T())
	return &Index{n: n, gram: &gram}
}

// Len returns the number of indexed vectors.
func (idx *Index) Len() int { return idx.n }

// Similarity returns the cosine similarity of vectors i and j, in [0,1] for
// non-negative weights.
func (idx *Index) Similarity(i, j int) float64 {
	if idx.gram == nil {
		return 0
	}
	s := idx.gram.At(i, j)
	if s > 1 {
		return 1
	}
	if s < 0 {
		return 0
	}
	return s
}

// MeanPairwise averages the similarity over every pair i<j. It is 0 when
// fewer than two vectors are indexed.
func (idx *Index) MeanPairwise() float64 {
	if idx.n < 2 {
		return 0
	}
	sum := 0.0
	for i := 0; i < idx.n; i++ {
		for j := i + 1; j < idx.n; j++ {
			sum += idx.Similarity(i, j)
		}
	}
	pairs := idx.n * (idx.n - 1) / 2
	return sum / float64(pairs)
}

// DuplicatePairs returns every pair i<j with similarity >= threshold, in
// (i, j) order.
func (idx *Index) DuplicatePairs(threshold float64) []domain.DuplicatePair {
	var pairs []domain.DuplicatePair
	for i := 0; i < idx.n; i++ {
		for j := i + 1; j < idx.n; j++ {
			if s := idx.Similarity(i, j); s >= threshold {
				pairs = append(pairs, domain.DuplicatePair{I: i, J: j, Similarity: s})
			}
		}
	}
	return pairs
}

// vocabulary assigns a stable column to every term used by the batch.
func vocabulary(vectors []domain.Vector) map[string]int {
	seen := make(map[string]struct{})
	for _, vec := range vectors {
		for term := range vec {
			seen[term] = struct{}{}
		}
	}
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	columns := make(map[string]int, len(terms))
	for i, term := range terms {
		columns[term] = i
	}
	return columns
}
