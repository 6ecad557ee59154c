package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	concpool "github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"curate/internal/domain"
	apperrors "curate/internal/pkg/errors"
	"curate/internal/pkg/logger"
	"curate/internal/selection"
)

// Objective weights.
const (
	objectiveDiversityWeight = 0.4
	objectiveQualityWeight   = 0.6
)

// Config controls the randomised restarts.
type Config struct {
	Iterations int   `yaml:"iterations"`
	Seed       int64 `yaml:"seed"`
	Workers    int   `yaml:"workers"`
}

// DefaultConfig runs 10 iterations sequentially from seed 42.
func DefaultConfig() Config {
	return Config{Iterations: 10, Seed: 42, Workers: 1}
}

// Validate rejects unusable optimizer settings.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return apperrors.Configurationf("optimizer.iterations must be >= 1, got %d", c.Iterations)
	}
	if c.Workers < 1 {
		return apperrors.Configurationf("optimizer.workers must be >= 1, got %d", c.Workers)
	}
	return nil
}

// Optimizer reruns the selection chain under shuffled candidate orders and
// keeps the run with the best objective.
//
// Run 0 uses the pool order as given, so a single iteration is identical to
// calling the chain directly. Later runs shuffle with an RNG seeded from
// (Seed, run index). Runs may execute concurrently; results are reduced in
// run order, so the outcome does not depend on scheduling.
type Optimizer struct {
	selector *selection.Selector
	cfg      Config
	log      *zap.Logger
}

// New creates an optimizer around selector.
func New(selector *selection.Selector, cfg Config, log *zap.Logger) *Optimizer {
	return &Optimizer{selector: selector, cfg: cfg, log: logger.OrNop(log)}
}

type runOutcome struct {
	result    domain.SelectionResult
	objective float64
	err       error
}

// Optimize selects from samples. It returns a configuration error before any
// work, an explicit empty result for an empty pool, and an optimizer
// exhaustion error when every run fails.
func (o *Optimizer) Optimize(ctx context.Context, samples []domain.Sample, cfg domain.SelectionConfig) (domain.CurationReport, error) {
	if err := o.cfg.Validate(); err != nil {
		return domain.CurationReport{}, err
	}
	candidates, err := o.selector.Prepare(samples, cfg)
	if err != nil {
		return domain.CurationReport{}, err
	}
	if candidates.Empty() {
		res, err := o.selector.Run(ctx, candidates, nil)
		if err != nil {
			return domain.CurationReport{}, err
		}
		return domain.CurationReport{Result: res, BestIteration: -1}, nil
	}

	start := time.Now()
	outcomes := make([]runOutcome, o.cfg.Iterations)
	p := concpool.New().WithMaxGoroutines(o.cfg.Workers)
	for i := 0; i < o.cfg.Iterations; i++ {
		i := i
		p.Go(func() {
			outcomes[i] = o.run(ctx, candidates, i)
		})
	}
	p.Wait()

	report := domain.CurationReport{BestIteration: -1, Runs: make([]domain.RunSummary, len(outcomes))}
	var errs []error
	for i, out := range outcomes {
		summary := domain.RunSummary{Iteration: i}
		if out.err != nil {
			summary.Error = out.err.Error()
			errs = append(errs, fmt.Errorf("run %d: %w", i, out.err))
			report.Runs[i] = summary
			continue
		}
		summary.Objective = out.objective
		summary.Selected = len(out.result.SelectedSamples)
		report.Runs[i] = summary
		if report.BestIteration < 0 || out.objective > report.BestObjective {
			report.BestIteration = i
			report.BestObjective = out.objective
			report.Result = out.result
		}
	}
	if report.BestIteration < 0 {
		return domain.CurationReport{}, apperrors.OptimizerExhausted(len(outcomes), errors.Join(errs...))
	}

	o.log.Info("optimization finished",
		zap.Int("iterations", o.cfg.Iterations),
		zap.Int("failed_runs", len(errs)),
		zap.Int("best_iteration", report.BestIteration),
		zap.Float64("best_objective", report.BestObjective),
		zap.Int("selected", len(report.Result.SelectedSamples)),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (o *Optimizer) run(ctx context.Context, c *selection.Candidates, iteration int) runOutcome {
	if err := ctx.Err(); err != nil {
		return runOutcome{err: err}
	}
	order := c.Scored
	if iteration > 0 && len(order) > 1 {
		order = append([]selection.ScoredSample(nil), c.Scored...)
		rng := rand.New(rand.NewSource(RunSeed(o.cfg.Seed, iteration)))
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	res, err := o.selector.Run(ctx, c, order)
	if err != nil {
		return runOutcome{err: err}
	}
	objective := Objective(res)
	o.log.Debug("optimizer run",
		zap.Int("iteration", iteration),
		zap.Float64("objective", objective),
		zap.Int("selected", len(res.SelectedSamples)))
	return runOutcome{result: res, objective: objective}
}

// Objective scores a selection: 0.4 diversity score + 0.6 mean quality.
func Objective(res domain.SelectionResult) float64 {
	return objectiveDiversityWeight*res.Stats.DiversityAnalysis.DiversityScore +
		objectiveQualityWeight*res.Stats.QualityStats.Mean
}

// RunSeed derives an independent seed for one run with a splitmix64 step.
func RunSeed(master int64, run int) int64 {
	z := uint64(master) + uint64(run+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return int64(z ^ (z >> 31))
}
