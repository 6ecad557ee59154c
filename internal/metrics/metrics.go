// Package metrics records batch selection metrics in a Prometheus registry
// that can be written out as a node-exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"curate/internal/domain"
)

// Recorder owns a private registry so that repeated runs in one process do
// not collide on metric registration.
type Recorder struct {
	registry *prometheus.Registry

	poolSamples       prometheus.Gauge
	filteredSamples   prometheus.Gauge
	selectedSamples   prometheus.Gauge
	relaxedPicks      prometheus.Gauge
	duplicatesRemoved prometheus.Gauge
	diversityScore    prometheus.Gauge
	qualityMean       prometheus.Gauge

	// selectedByDomain tracks the selected sample count per domain
	selectedByDomain *prometheus.GaugeVec
	// selectedByDifficulty tracks the selected sample count per difficulty bucket
	selectedByDifficulty *prometheus.GaugeVec

	optimizerRuns     *prometheus.CounterVec
	bestObjective     prometheus.Gauge
	selectionDuration prometheus.Histogram
}

// NewRecorder creates a recorder with all curate metrics registered.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	return &Recorder{
		registry:          reg,
		poolSamples:       gauge("curate_pool_samples", "Samples in the candidate pool"),
		filteredSamples:   gauge("curate_filtered_samples", "Samples left after the quality gate and deduplication"),
		selectedSamples:   gauge("curate_selected_samples", "Samples in the final selection"),
		relaxedPicks:      gauge("curate_relaxed_picks", "Picks made after no candidate satisfied the balance caps"),
		duplicatesRemoved: gauge("curate_duplicates_removed", "Near-duplicate samples dropped before selection"),
		diversityScore:    gauge("curate_selection_diversity_score", "Composite diversity score of the selection"),
		qualityMean:       gauge("curate_selection_quality_mean", "Mean quality score of the selection"),
		selectedByDomain: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "curate_selected_samples_by_domain",
			Help: "Selected samples per domain",
		}, []string{"domain"}),
		selectedByDifficulty: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "curate_selected_samples_by_difficulty",
			Help: "Selected samples per difficulty bucket",
		}, []string{"bucket"}),
		optimizerRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "curate_optimizer_runs_total",
			Help: "Optimizer runs by outcome",
		}, []string{"outcome"}),
		bestObjective: gauge("curate_optimizer_best_objective", "Objective of the winning optimizer run"),
		selectionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "curate_selection_duration_seconds",
			Help:    "Wall time of a full selection including all optimizer runs",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveSelection records the counts and scores of a finished selection.
func (r *Recorder) ObserveSelection(res domain.SelectionResult, elapsed time.Duration) {
	st := res.Stats
	r.poolSamples.Set(float64(st.TotalOriginal))
	r.filteredSamples.Set(float64(st.TotalFiltered))
	r.selectedSamples.Set(float64(st.TotalSelected))
	r.relaxedPicks.Set(float64(st.RelaxedPicks))
	r.duplicatesRemoved.Set(float64(st.DuplicatesRemoved))
	r.diversityScore.Set(st.DiversityAnalysis.DiversityScore)
	r.qualityMean.Set(st.QualityStats.Mean)

	r.selectedByDomain.Reset()
	for name, count := range st.DomainDistribution {
		r.selectedByDomain.WithLabelValues(name).Set(float64(count))
	}
	for _, bucket := range domain.AllBuckets() {
		r.selectedByDifficulty.WithLabelValues(string(bucket)).Set(float64(st.DifficultyDistribution[bucket]))
	}
	r.selectionDuration.Observe(elapsed.Seconds())
}

// ObserveOptimization records the per-run outcomes of an optimizer report.
func (r *Recorder) ObserveOptimization(report domain.CurationReport) {
	for _, run := range report.Runs {
		outcome := "ok"
		if run.Error != "" {
			outcome = "failed"
		}
		r.optimizerRuns.WithLabelValues(outcome).Inc()
	}
	if report.BestIteration >= 0 {
		r.bestObjective.Set(report.BestObjective)
	}
}

// WriteTextfile writes the registry in the text exposition format to path,
// creating its directory if needed.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", filepath.Dir(path), err)
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
