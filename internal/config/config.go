package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"curate/internal/diversity"
	"curate/internal/domain"
	"curate/internal/optimizer"
	apperrors "curate/internal/pkg/errors"
	"curate/internal/pkg/logger"
)

// Environment variables read at load time.
const (
	EnvConfigPath = "CURATE_CONFIG"
	EnvLogLevel   = "CURATE_LOG_LEVEL"
)

// MetricsConfig controls the Prometheus textfile written after a run.
type MetricsConfig struct {
	// TextfilePath is empty when no metrics should be written.
	TextfilePath string `yaml:"textfile_path"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Selection domain.SelectionConfig `yaml:"selection"`
	Analyzer  diversity.Config       `yaml:"analyzer"`
	Optimizer optimizer.Config       `yaml:"optimizer"`
	Log       logger.Config          `yaml:"log"`
	Metrics   MetricsConfig          `yaml:"metrics"`
}

// Validate checks the parts of the config that do not depend on a run.
// The selection block is validated when a selection starts, since the
// target size is usually supplied on the command line.
func (c *AppConfig) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	if t := c.Analyzer.SimilarityThreshold; t <= 0 || t > 1 {
		return apperrors.Configurationf("analyzer.similarity_threshold must be in (0,1], got %g", t)
	}
	if c.Analyzer.MaxPairwiseSamples < 2 {
		return apperrors.Configurationf("analyzer.max_pairwise_samples must be >= 2, got %d", c.Analyzer.MaxPairwiseSamples)
	}
	if c.Analyzer.Vectorizer.MaxFeatures < 1 {
		return apperrors.Configurationf("analyzer.vectorizer.max_features must be >= 1, got %d", c.Analyzer.Vectorizer.MaxFeatures)
	}
	if n := c.Analyzer.Vectorizer.NGramMax; n < 1 || n > 2 {
		return apperrors.Configurationf("analyzer.vectorizer.ngram_max must be 1 or 2, got %d", n)
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Keys missing from the file keep their default values.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyConfigDefaults(cfg)
			return cfg, nil
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Configuration(fmt.Sprintf("parse %s", path)).WithError(err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault honours CURATE_CONFIG, then tries ./curate.yaml, then
// ~/.config/curate/config.yaml. If none exists, it writes defaults to
// ~/.config/curate/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	if envPath := strings.TrimSpace(os.Getenv(EnvConfigPath)); envPath != "" {
		cfg, err := Load(envPath)
		return cfg, envPath, err
	}
	cwdPath := "curate.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyConfigDefaults(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "curate", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Selection: domain.DefaultSelectionConfig(0),
		Analyzer:  diversity.DefaultConfig(),
		Optimizer: optimizer.DefaultConfig(),
		Log:       logger.Config{Level: "info", Format: "json"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		cfg.Log.Level = level
	}
	if cfg.Optimizer.Workers == 0 {
		cfg.Optimizer.Workers = 1
	}
}
