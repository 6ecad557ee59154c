package domain

import (
	apperrors "curate/internal/pkg/errors"
)

// DifficultyTargets are the desired bucket fractions of a selection.
type DifficultyTargets struct {
	Easy   float64 `yaml:"easy" json:"easy"`
	Medium float64 `yaml:"medium" json:"medium"`
	Hard   float64 `yaml:"hard" json:"hard"`
}

// Fraction returns the target fraction for a bucket.
func (t DifficultyTargets) Fraction(bucket DifficultyBucket) float64 {
	switch bucket {
	case BucketEasy:
		return t.Easy
	case BucketMedium:
		return t.Medium
	case BucketHard:
		return t.Hard
	}
	return 0
}

// SelectionConfig controls one selection call.
type SelectionConfig struct {
	QualityThreshold             float64           `yaml:"quality_threshold" json:"quality_threshold"`
	DiversityWeight              float64           `yaml:"diversity_weight" json:"diversity_weight"`
	QualityWeight                float64           `yaml:"quality_weight" json:"quality_weight"`
	MaxDomainRatio               float64           `yaml:"max_domain_ratio" json:"max_domain_ratio"`
	TargetDifficultyDistribution DifficultyTargets `yaml:"target_difficulty_distribution" json:"target_difficulty_distribution"`
	TargetSize                   int               `yaml:"target_size" json:"target_size"`

	EnableQualityFilter         bool `yaml:"enable_quality_filter" json:"enable_quality_filter"`
	EnableDiversityOptimization bool `yaml:"enable_diversity_optimization" json:"enable_diversity_optimization"`
	EnableDomainBalance         bool `yaml:"enable_domain_balance" json:"enable_domain_balance"`
	EnableDifficultyBalance     bool `yaml:"enable_difficulty_balance" json:"enable_difficulty_balance"`
	EnableDeduplication         bool `yaml:"enable_deduplication" json:"enable_deduplication"`
}

// DefaultSelectionConfig returns the documented defaults for a target size.
func DefaultSelectionConfig(targetSize int) SelectionConfig {
	return SelectionConfig{
		QualityThreshold:             0.6,
		DiversityWeight:              0.3,
		QualityWeight:                0.7,
		MaxDomainRatio:               0.4,
		TargetDifficultyDistribution: DifficultyTargets{Easy: 0.3, Medium: 0.5, Hard: 0.2},
		TargetSize:                   targetSize,
		EnableQualityFilter:          true,
		EnableDiversityOptimization:  true,
		EnableDomainBalance:          true,
		EnableDifficultyBalance:      true,
	}
}

// Validate rejects configurations the pipeline cannot run with.
// Weights are not required to sum to one.
func (c SelectionConfig) Validate() error {
	if c.TargetSize <= 0 {
		return apperrors.Configurationf("target_size must be > 0, got %d", c.TargetSize)
	}
	if !inUnit(c.QualityThreshold) {
		return apperrors.Configurationf("quality_threshold must be in [0,1], got %g", c.QualityThreshold)
	}
	if !inUnit(c.DiversityWeight) {
		return apperrors.Configurationf("diversity_weight must be in [0,1], got %g", c.DiversityWeight)
	}
	if !inUnit(c.QualityWeight) {
		return apperrors.Configurationf("quality_weight must be in [0,1], got %g", c.QualityWeight)
	}
	if c.MaxDomainRatio <= 0 || c.MaxDomainRatio > 1 {
		return apperrors.Configurationf("max_domain_ratio must be in (0,1], got %g", c.MaxDomainRatio)
	}
	total := 0.0
	for _, bucket := range AllBuckets() {
		fraction := c.TargetDifficultyDistribution.Fraction(bucket)
		if !inUnit(fraction) {
			return apperrors.Configurationf("target_difficulty_distribution.%s must be in [0,1], got %g", bucket, fraction)
		}
		total += fraction
	}
	if total <= 0 {
		return apperrors.Configuration("target_difficulty_distribution must have a positive fraction")
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
