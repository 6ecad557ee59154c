package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"curate/internal/dataset"
	"curate/internal/domain"
	"curate/internal/metrics"
	"curate/internal/optimizer"
	apperrors "curate/internal/pkg/errors"
	"curate/internal/pkg/logger"
)

// CurationServiceImpl runs optimised selections and reports on pools.
type CurationServiceImpl struct {
	optimizer *optimizer.Optimizer
	analyzer  domain.DiversityAnalyzer
	recorder  *metrics.Recorder
	log       *zap.Logger
}

var _ domain.CurationService = (*CurationServiceImpl)(nil)

// NewCurationService wires the service. recorder may be nil.
func NewCurationService(opt *optimizer.Optimizer, analyzer domain.DiversityAnalyzer, recorder *metrics.Recorder, log *zap.Logger) *CurationServiceImpl {
	return &CurationServiceImpl{optimizer: opt, analyzer: analyzer, recorder: recorder, log: logger.OrNop(log)}
}

// Select picks a balanced subset of samples.
func (s *CurationServiceImpl) Select(ctx context.Context, samples []domain.Sample, cfg domain.SelectionConfig) (domain.CurationReport, error) {
	start := time.Now()
	report, err := s.optimizer.Optimize(ctx, samples, cfg)
	if err != nil {
		s.log.Error("selection failed", zap.Int("pool", len(samples)), zap.Error(err))
		return domain.CurationReport{}, err
	}
	if s.recorder != nil {
		s.recorder.ObserveSelection(report.Result, time.Since(start))
		s.recorder.ObserveOptimization(report)
	}
	if report.Result.Message != "" {
		s.log.Warn("selection incomplete", zap.String("reason", report.Result.Message))
	}
	return report, nil
}

// Analyze reports the diversity of samples.
func (s *CurationServiceImpl) Analyze(samples []domain.Sample) domain.DatasetStats {
	return s.analyzer.Analyze(samples)
}

// Deduplicate drops near-duplicates, keeping the higher quality sample of each pair.
func (s *CurationServiceImpl) Deduplicate(samples []domain.Sample) ([]domain.Sample, int) {
	kept, removed := s.analyzer.RemoveDuplicates(samples)
	s.log.Info("deduplicated pool", zap.Int("total", len(samples)), zap.Int("removed", removed))
	return kept, removed
}

// LoadPool reads every .json and .jsonl file matched by paths, in sorted
// match order per pattern, into one pool.
func LoadPool(paths []string) ([]domain.Sample, error) {
	var pool []domain.Sample
	files := 0
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("bad input pattern %q", p)).WithError(err)
		}
		if matches == nil {
			matches = []string{p}
		}
		sort.Strings(matches)
		for _, m := range matches {
			ext := strings.ToLower(filepath.Ext(m))
			if ext != ".jsonl" && ext != ".json" {
				continue
			}
			samples, err := dataset.ReadFile(m)
			if err != nil {
				return nil, apperrors.InvalidInput("cannot load input").WithDetail("path", m).WithError(err)
			}
			pool = append(pool, samples...)
			files++
		}
	}
	if files == 0 {
		return nil, apperrors.InvalidInput("no .json or .jsonl input files found")
	}
	return pool, nil
}
