package vectorize

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/kljensen/snowball"

	"curate/internal/domain"
)

// ErrEmptyVocabulary is returned when no batch text yields a usable token.
var ErrEmptyVocabulary = errors.New("no tokens found in batch; every text is empty or stopwords")

// Options tunes the TF-IDF vectorizer.
type Options struct {
	// MaxFeatures caps the vocabulary to the most frequent terms. Zero means unlimited.
	MaxFeatures int `yaml:"max_features"`
	// NGramMax is the longest n-gram produced: 1 for words only, 2 adds bigrams.
	NGramMax int `yaml:"ngram_max"`
	// Stem applies english snowball stemming to every kept token.
	Stem bool `yaml:"stem"`
}

// DefaultOptions returns 1-gram + 2-gram TF-IDF over at most 1000 stemmed terms.
func DefaultOptions() Options {
	return Options{MaxFeatures: 1000, NGramMax: 2, Stem: true}
}

// Vectorizer implements batch TF-IDF. The vocabulary and IDF values are fit on
// the batch passed to Prepare, so vectors from different batches are not
// comparable. A Vectorizer is not safe for concurrent use.
type Vectorizer struct {
	opts         Options
	vocabulary   map[string]int
	idf          []float64
	prepared     bool
	tokenPattern *regexp.Regexp
	stopwords    map[string]struct{}
}

// New creates an unprepared vectorizer.
func New(opts Options) *Vectorizer {
	if opts.NGramMax < 1 {
		opts.NGramMax = 1
	}
	return &Vectorizer{
		opts:         opts,
		vocabulary:   make(map[string]int),
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords:    defaultStopwords(),
	}
}

// Name returns the identifier of this vectorizer implementation.
func (v *Vectorizer) Name() string { return "tfidf" }

// Prepare builds the vocabulary and smoothed IDF values from the batch.
func (v *Vectorizer) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	// Document frequencies and total counts per term
	df := make(map[string]int)
	freq := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, term := range v.terms(text) {
			freq[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			df[term]++
		}
	}
	if len(df) == 0 {
		return ErrEmptyVocabulary
	}
	terms := v.limitFeatures(freq)
	// Stable ordering for vocabulary
	sort.Strings(terms)

	v.vocabulary = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		v.vocabulary[term] = i
		// Smoothed IDF
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	v.prepared = true
	return nil
}

// Dimension returns the vocabulary size after Prepare.
func (v *Vectorizer) Dimension() int { return len(v.vocabulary) }

// Transform computes the L2-normalised TF-IDF vector of text. Text with no
// in-vocabulary terms yields an empty vector.
func (v *Vectorizer) Transform(text string) (domain.Vector, error) {
	if !v.prepared {
		return nil, errors.New("tfidf vectorizer not prepared")
	}
	tf := make(map[int]int)
	terms := make(map[int]string)
	total := 0
	for _, term := range v.terms(text) {
		if col, ok := v.vocabulary[term]; ok {
			tf[col]++
			terms[col] = term
			total++
		}
	}
	vec := make(domain.Vector, len(tf))
	if total == 0 {
		return vec, nil
	}
	// Weights are accumulated in column order so the float sum is the same
	// on every call.
	cols := make([]int, 0, len(tf))
	for col := range tf {
		cols = append(cols, col)
	}
	sort.Ints(cols)
	weights := make([]float64, len(cols))
	norm := 0.0
	for i, col := range cols {
		w := float64(tf[col]) / float64(total) * v.idf[col]
		weights[i] = w
		norm += w * w
	}
	// L2 normalize
	norm = math.Sqrt(norm)
	for i, col := range cols {
		w := weights[i]
		if norm > 0 {
			w /= norm
		}
		vec[terms[col]] = w
	}
	return vec, nil
}

// FitTransform prepares on corpus and returns one vector per text.
func (v *Vectorizer) FitTransform(corpus []string) ([]domain.Vector, error) {
	if err := v.Prepare(corpus); err != nil {
		return nil, err
	}
	out := make([]domain.Vector, len(corpus))
	for i, text := range corpus {
		vec, err := v.Transform(text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// limitFeatures keeps the MaxFeatures most frequent terms, ties broken by term.
func (v *Vectorizer) limitFeatures(freq map[string]int) []string {
	terms := make([]string, 0, len(freq))
	for term := range freq {
		terms = append(terms, term)
	}
	if v.opts.MaxFeatures <= 0 || len(terms) <= v.opts.MaxFeatures {
		return terms
	}
	sort.Slice(terms, func(i, j int) bool {
		if freq[terms[i]] != freq[terms[j]] {
			return freq[terms[i]] > freq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	return terms[:v.opts.MaxFeatures]
}

// terms returns unigrams followed by the higher n-grams of text.
func (v *Vectorizer) terms(text string) []string {
	tokens := v.tokenize(text)
	if v.opts.NGramMax < 2 || len(tokens) < 2 {
		return tokens
	}
	out := make([]string, 0, len(tokens)*v.opts.NGramMax)
	out = append(out, tokens...)
	for n := 2; n <= v.opts.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}

func (v *Vectorizer) tokenize(text string) []string {
	lower := strings.ToLower(text)
	raw := v.tokenPattern.FindAllString(lower, -1)
	if len(raw) == 0 {
		return nil
	}
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := v.stopwords[t]; isStop {
			continue
		}
		if v.opts.Stem {
			if stemmed, err := snowball.Stem(t, "english", true); err == nil && stemmed != "" {
				t = stemmed
			}
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
