package domain

import (
	"math"
	"strings"

	"github.com/google/uuid"
)

// Metadata defaults applied when an upstream record leaves a field out.
const (
	DefaultDomain       = "uncategorized"
	DefaultDifficulty   = 0.5
	DefaultOverallScore = 0.0
)

// DifficultyBucket is one of the fixed easy/medium/hard difficulty ranges.
type DifficultyBucket string

// Difficulty buckets. A difficulty d is easy when d <= 0.3, medium when
// 0.3 < d <= 0.7 and hard above 0.7.
const (
	BucketEasy   DifficultyBucket = "easy"
	BucketMedium DifficultyBucket = "medium"
	BucketHard   DifficultyBucket = "hard"
)

const (
	easyUpperBound   = 0.3
	mediumUpperBound = 0.7
)

// AllBuckets returns the buckets in ascending difficulty order.
func AllBuckets() []DifficultyBucket {
	return []DifficultyBucket{BucketEasy, BucketMedium, BucketHard}
}

// BucketFor maps a continuous difficulty onto its bucket.
func BucketFor(difficulty float64) DifficultyBucket {
	switch {
	case difficulty <= easyUpperBound:
		return BucketEasy
	case difficulty <= mediumUpperBound:
		return BucketMedium
	default:
		return BucketHard
	}
}

// Sample is one candidate record with its metadata already resolved.
// Samples are owned by the caller and never modified by the pipeline.
type Sample struct {
	ID          string
	Instruction string
	Input       string
	Output      string
	Text        string

	Domain     string
	Difficulty float64
	// Quality is the upstream metadata.evaluations.overall_score.
	Quality float64

	// Raw holds the record exactly as it was read, if it came from a file.
	Raw []byte
}

// Content joins the non-empty text fields used for vectorisation.
func (s Sample) Content() string {
	parts := make([]string, 0, 4)
	for _, field := range []string{s.Instruction, s.Input, s.Output, s.Text} {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n")
}

// Bucket returns the sample's difficulty bucket.
func (s Sample) Bucket() DifficultyBucket {
	return BucketFor(s.Difficulty)
}

// Normalize resolves missing identity and domain and clamps scores into [0,1].
// A NaN score is replaced by its default.
// Samples without an ID get a name-based UUID over their content so repeated
// ingestion of the same record yields the same ID.
func (s Sample) Normalize() Sample {
	if strings.TrimSpace(s.Domain) == "" {
		s.Domain = DefaultDomain
	}
	s.Difficulty = clamp01(s.Difficulty, DefaultDifficulty)
	s.Quality = clamp01(s.Quality, DefaultOverallScore)
	if s.ID == "" {
		s.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(s.Content())).String()
	}
	return s
}

// clamp01 limits v to [0,1]; NaN becomes fallback.
func clamp01(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
