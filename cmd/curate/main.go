package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"curate/internal/config"
	"curate/internal/dataset"
	"curate/internal/diversity"
	"curate/internal/domain"
	"curate/internal/metrics"
	"curate/internal/optimizer"
	apperrors "curate/internal/pkg/errors"
	"curate/internal/pkg/logger"
	"curate/internal/selection"
	"curate/internal/service"
	"curate/internal/tui"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "curate: %s\n", describe(err))
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError()
	}

	switch args[0] {
	case "select":
		return runSelect(ctx, args[1:])
	case "analyze":
		return runAnalyze(args[1:])
	case "dedup":
		return runDedup(args[1:])
	case "browse":
		return runBrowse(args[1:])
	default:
		return usageError()
	}
}

// app holds what every subcommand needs once config is loaded.
type app struct {
	cfg      *config.AppConfig
	log      *zap.Logger
	analyzer *diversity.Analyzer
	recorder *metrics.Recorder
	svc      *service.CurationServiceImpl
}

func loadConfig(cfgPath string) (*config.AppConfig, error) {
	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newApp(cfgPath string) (*app, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	return assemble(cfg)
}

func assemble(cfg *config.AppConfig) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := logger.New(cfg.Log)
	analyzer := diversity.NewAnalyzer(cfg.Analyzer, log.Named("diversity"))
	selector := selection.NewSelector(analyzer, log.Named("selection"))
	opt := optimizer.New(selector, cfg.Optimizer, log.Named("optimizer"))
	recorder := metrics.NewRecorder()
	return &app{
		cfg:      cfg,
		log:      log,
		analyzer: analyzer,
		recorder: recorder,
		svc:      service.NewCurationService(opt, analyzer, recorder, log.Named("service")),
	}, nil
}

func inputs(fs *pflag.FlagSet, flagged []string) ([]string, error) {
	paths := append(append([]string(nil), flagged...), fs.Args()...)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s requires at least one input file", fs.Name())
	}
	return paths, nil
}

func runSelect(ctx context.Context, args []string) error {
	fs := pflag.NewFlagSet("select", pflag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to YAML config (default ./curate.yaml or ~/.config/curate/config.yaml)")
	inputFlags := fs.StringSliceP("input", "i", nil, "input .jsonl or .json files or globs")
	outDir := fs.StringP("out", "o", "", "output directory for selected.jsonl and report.json")
	targetSize := fs.IntP("target-size", "n", 0, "number of samples to select (overrides config)")
	iterations := fs.Int("iterations", 0, "optimizer iterations (overrides config)")
	seed := fs.Int64("seed", 0, "optimizer master seed (overrides config)")
	workers := fs.Int("workers", 0, "concurrent optimizer runs (overrides config)")
	dedup := fs.Bool("dedup", false, "drop near-duplicates before selection")
	metricsFile := fs.String("metrics-file", "", "write Prometheus textfile metrics to this path")
	browse := fs.Bool("browse", false, "open the selection in the browser after writing it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outDir == "" {
		return errors.New("select requires --out")
	}
	paths, err := inputs(fs, *inputFlags)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if fs.Changed("iterations") {
		cfg.Optimizer.Iterations = *iterations
	}
	if fs.Changed("seed") {
		cfg.Optimizer.Seed = *seed
	}
	if fs.Changed("workers") {
		cfg.Optimizer.Workers = *workers
	}
	if fs.Changed("target-size") {
		cfg.Selection.TargetSize = *targetSize
	}
	if fs.Changed("dedup") {
		cfg.Selection.EnableDeduplication = *dedup
	}
	if fs.Changed("metrics-file") {
		cfg.Metrics.TextfilePath = *metricsFile
	}
	a, err := assemble(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	pool, err := service.LoadPool(paths)
	if err != nil {
		return err
	}
	report, err := a.svc.Select(ctx, pool, cfg.Selection)
	if err != nil {
		return err
	}

	selectedPath := filepath.Join(*outDir, "selected.jsonl")
	reportPath := filepath.Join(*outDir, "report.json")
	if err := dataset.WriteSamples(selectedPath, report.Result.SelectedSamples); err != nil {
		return err
	}
	if err := dataset.WriteJSON(reportPath, report); err != nil {
		return err
	}
	if path := a.cfg.Metrics.TextfilePath; path != "" {
		if err := a.recorder.WriteTextfile(path); err != nil {
			return apperrors.Internal("write metrics").WithDetail("path", path).WithError(err)
		}
		fmt.Printf("metrics:  %s\n", path)
	}

	fmt.Printf("selected: %s (%d of %d)\n", selectedPath, len(report.Result.SelectedSamples), len(pool))
	fmt.Printf("report:   %s\n", reportPath)
	if report.Result.Message != "" {
		fmt.Printf("note:     %s\n", report.Result.Message)
	}
	if *browse {
		return openBrowser(a, report.Result.SelectedSamples, "curate: selection")
	}
	return nil
}

func runAnalyze(args []string) error {
	fs := pflag.NewFlagSet("analyze", pflag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to YAML config")
	inputFlags := fs.StringSliceP("input", "i", nil, "input .jsonl or .json files or globs")
	outPath := fs.StringP("out", "o", "", "write the stats report here instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths, err := inputs(fs, *inputFlags)
	if err != nil {
		return err
	}
	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	pool, err := service.LoadPool(paths)
	if err != nil {
		return err
	}
	stats := a.svc.Analyze(pool)
	if *outPath != "" {
		if err := dataset.WriteJSON(*outPath, stats); err != nil {
			return err
		}
		fmt.Printf("stats: %s\n", *outPath)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func runDedup(args []string) error {
	fs := pflag.NewFlagSet("dedup", pflag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to YAML config")
	inputFlags := fs.StringSliceP("input", "i", nil, "input .jsonl or .json files or globs")
	outPath := fs.StringP("out", "o", "", "path of the deduplicated .jsonl")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outPath == "" {
		return errors.New("dedup requires --out")
	}
	paths, err := inputs(fs, *inputFlags)
	if err != nil {
		return err
	}
	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	pool, err := service.LoadPool(paths)
	if err != nil {
		return err
	}
	kept, removed := a.svc.Deduplicate(pool)
	if err := dataset.WriteSamples(*outPath, kept); err != nil {
		return err
	}
	fmt.Printf("deduplicated: %s (kept %d, removed %d)\n", *outPath, len(kept), removed)
	return nil
}

func runBrowse(args []string) error {
	fs := pflag.NewFlagSet("browse", pflag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to YAML config")
	inputFlags := fs.StringSliceP("input", "i", nil, "input .jsonl or .json files or globs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths, err := inputs(fs, *inputFlags)
	if err != nil {
		return err
	}
	a, err := newApp(*cfgPath)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	pool, err := service.LoadPool(paths)
	if err != nil {
		return err
	}
	return openBrowser(a, pool, fmt.Sprintf("curate: %d samples", len(pool)))
}

func openBrowser(a *app, samples []domain.Sample, title string) error {
	m := tui.New(a.svc, samples, title)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}

// describe renders err, leading with its code when it is an application error.
func describe(err error) string {
	appErr := apperrors.GetAppError(err)
	if appErr == nil || appErr.Error() == err.Error() {
		return err.Error()
	}
	return fmt.Sprintf("[%s] %v", appErr.Code, err)
}

// exitCode is 1 for bad configuration or input and 2 otherwise.
func exitCode(err error) int {
	if apperrors.IsConfiguration(err) || apperrors.IsInvalidInput(err) {
		return 1
	}
	return 2
}

func usageError() error {
	return errors.New("usage: curate <select|analyze|dedup|browse> [flags] [input files]")
}
