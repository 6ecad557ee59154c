package selection

import (
	"context"
	"math"

	"go.uber.org/zap"

	"curate/internal/domain"
	"curate/internal/pkg/logger"
)

type pickState int

const (
	stateSelecting pickState = iota
	stateConstrained
	stateRelaxed
	stateDone
)

func (s pickState) String() string {
	switch s {
	case stateSelecting:
		return "selecting"
	case stateConstrained:
		return "constrained"
	case stateRelaxed:
		return "relaxed"
	case stateDone:
		return "done"
	}
	return "unknown"
}

// GreedyOutcome is the ordered pick list of one greedy pass.
type GreedyOutcome struct {
	Selected         []ScoredSample
	ConstrainedPicks int
	RelaxedPicks     int
}

// GreedySelector picks candidates in score order under soft per-domain and
// per-difficulty caps. When no remaining candidate fits both caps it falls
// back to the best remaining candidate, so it always terminates.
type GreedySelector struct {
	cfg        domain.SelectionConfig
	domainCap  int
	bucketCaps map[domain.DifficultyBucket]int
	log        *zap.Logger
}

// NewGreedySelector derives the caps for cfg.TargetSize.
func NewGreedySelector(cfg domain.SelectionConfig, log *zap.Logger) *GreedySelector {
	n := float64(cfg.TargetSize)
	caps := make(map[domain.DifficultyBucket]int, 3)
	for _, b := range domain.AllBuckets() {
		caps[b] = int(math.Floor(n * cfg.TargetDifficultyDistribution.Fraction(b)))
	}
	return &GreedySelector{
		cfg:        cfg,
		domainCap:  int(math.Floor(n * cfg.MaxDomainRatio)),
		bucketCaps: caps,
		log:        logger.OrNop(log),
	}
}

// DomainCap returns the per-domain cap.
func (g *GreedySelector) DomainCap() int { return g.domainCap }

// BucketCap returns the cap for one difficulty bucket.
func (g *GreedySelector) BucketCap(b domain.DifficultyBucket) int { return g.bucketCaps[b] }

// Select runs the greedy pass over ranked candidates. ctx is checked before
// every pick.
func (g *GreedySelector) Select(ctx context.Context, ranked []ScoredSample) (GreedyOutcome, error) {
	target := g.cfg.TargetSize
	out := GreedyOutcome{Selected: make([]ScoredSample, 0, min(target, len(ranked)))}
	taken := make([]bool, len(ranked))
	remaining := len(ranked)
	domainCounts := make(map[string]int)
	bucketCounts := make(map[domain.DifficultyBucket]int, 3)

	state := stateSelecting
	g.log.Debug("greedy selection started",
		zap.String("state", state.String()),
		zap.Int("target", target),
		zap.Int("candidates", len(ranked)),
		zap.Int("domain_cap", g.domainCap))
	for len(out.Selected) < target && remaining > 0 {
		if err := ctx.Err(); err != nil {
			return GreedyOutcome{}, err
		}

		pick := -1
		for i, c := range ranked {
			if !taken[i] && g.fits(c.Sample, domainCounts, bucketCounts) {
				pick = i
				break
			}
		}
		if pick >= 0 {
			state = stateConstrained
			out.ConstrainedPicks++
		} else {
			state = stateRelaxed
			out.RelaxedPicks++
			for i := range ranked {
				if !taken[i] {
					pick = i
					break
				}
			}
		}

		chosen := ranked[pick]
		taken[pick] = true
		remaining--
		out.Selected = append(out.Selected, chosen)
		domainCounts[chosen.Sample.Domain]++
		bucketCounts[chosen.Sample.Bucket()]++

		if ce := g.log.Check(zap.DebugLevel, "picked candidate"); ce != nil {
			ce.Write(
				zap.String("state", state.String()),
				zap.String("id", chosen.Sample.ID),
				zap.String("domain", chosen.Sample.Domain),
				zap.Float64("score", chosen.Score))
		}
	}
	state = stateDone
	g.log.Debug("greedy selection finished",
		zap.String("state", state.String()),
		zap.Int("selected", len(out.Selected)),
		zap.Int("relaxed_picks", out.RelaxedPicks))
	return out, nil
}

func (g *GreedySelector) fits(
	s domain.Sample,
	domainCounts map[string]int,
	bucketCounts map[domain.DifficultyBucket]int,
) bool {
	if g.cfg.EnableDomainBalance && domainCounts[s.Domain] >= g.domainCap {
		return false
	}
	if g.cfg.EnableDifficultyBalance {
		b := s.Bucket()
		if bucketCounts[b] >= g.bucketCaps[b] {
			return false
		}
	}
	return true
}
