// Package config loads the chessperf configuration from YAML and
// CHESSPERF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/hailam/chessperf/internal/forest"
)

// EnvPrefix prefixes every environment override, e.g. CHESSPERF_MODEL_FOREST_TREES.
const EnvPrefix = "CHESSPERF"

// Config represents the complete application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Model    ModelConfig    `mapstructure:"model"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// LoggerConfig defines logging settings.
type LoggerConfig struct {
	// Level is debug, info, warn, warning or error, case-insensitive.
	Level string `mapstructure:"level"`
	// Format is json or text.
	Format string `mapstructure:"format"`
	// File rotates logs into this file instead of stderr when set.
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// DatasetConfig describes the training data.
type DatasetConfig struct {
	Path string `mapstructure:"path"`
	// Filter is an optional CEL expression rows must satisfy.
	Filter       string  `mapstructure:"filter"`
	TestFraction float64 `mapstructure:"test_fraction"`
	Seed         int64   `mapstructure:"seed"`
	MaxRows      int     `mapstructure:"max_rows"`
}

// ModelConfig holds the regressor settings.
type ModelConfig struct {
	Name string `mapstructure:"name"`
	// Output is the artifact path; empty means <name>.json in the model directory.
	Output string `mapstructure:"output"`
	// Performance adds the final-position evaluation as a feature.
	Performance bool          `mapstructure:"performance"`
	Forest      forest.Config `mapstructure:"forest"`
}

// StorageConfig locates the model registry.
type StorageConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Dir is the registry directory; empty means the platform data directory.
	Dir string `mapstructure:"dir"`
}

// AnalysisConfig tunes batch evaluation.
type AnalysisConfig struct {
	Workers   int   `mapstructure:"workers"`
	CacheSize int64 `mapstructure:"cache_size"`
	Openings  bool  `mapstructure:"openings"`
}

// MetricsConfig sets the class thresholds of the metrics table. A zero
// threshold is derived from the median actual value of the train split.
type MetricsConfig struct {
	ActualThreshold    float64 `mapstructure:"actual_threshold"`
	PredictedThreshold float64 `mapstructure:"predicted_threshold"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.compress", false)

	v.SetDefault("dataset.path", "matches.csv")
	v.SetDefault("dataset.filter", "")
	v.SetDefault("dataset.test_fraction", 0.2)
	v.SetDefault("dataset.seed", 42)
	v.SetDefault("dataset.max_rows", 0)

	fc := forest.DefaultConfig()
	v.SetDefault("model.name", "white-elo")
	v.SetDefault("model.output", "")
	v.SetDefault("model.performance", false)
	v.SetDefault("model.forest.trees", fc.Trees)
	v.SetDefault("model.forest.max_depth", fc.MaxDepth)
	v.SetDefault("model.forest.min_samples_split", fc.MinSamplesSplit)
	v.SetDefault("model.forest.min_samples_leaf", fc.MinSamplesLeaf)
	v.SetDefault("model.forest.max_features", fc.MaxFeatures)
	v.SetDefault("model.forest.bootstrap", fc.Bootstrap)
	v.SetDefault("model.forest.seed", fc.Seed)
	v.SetDefault("model.forest.workers", 0)

	v.SetDefault("storage.enabled", true)
	v.SetDefault("storage.dir", "")

	v.SetDefault("analysis.workers", 0)
	v.SetDefault("analysis.cache_size", 100000)
	v.SetDefault("analysis.openings", true)

	v.SetDefault("metrics.actual_threshold", 0)
	v.SetDefault("metrics.predicted_threshold", 0)
}

// Load reads configPath, if not empty, over the defaults and applies
// environment overrides.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration with no file and no environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Validate checks every section and returns the first error.
func (c *Config) Validate() error {
	for _, fn := range []func() error{
		c.Logger.Validate,
		c.Dataset.Validate,
		c.Model.Validate,
		c.Storage.Validate,
		c.Analysis.Validate,
		c.Metrics.Validate,
	} {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the log level and format.
func (l *LoggerConfig) Validate() error {
	if l.Level == "" {
		return errors.New("logger.level: must be specified")
	}
	valid := map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !valid[strings.ToLower(l.Level)] {
		return fmt.Errorf("logger.level: unsupported level '%s'", l.Level)
	}
	switch strings.ToLower(l.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("logger.format: unsupported format '%s'", l.Format)
	}
	if l.MaxSize < 0 || l.MaxBackups < 0 {
		return errors.New("logger: max_size and max_backups must be >= 0")
	}
	return nil
}

// Validate checks the split parameters.
func (d *DatasetConfig) Validate() error {
	if d.TestFraction < 0 || d.TestFraction >= 1 {
		return fmt.Errorf("dataset.test_fraction: %v not in [0, 1)", d.TestFraction)
	}
	if d.MaxRows < 0 {
		return errors.New("dataset.max_rows: must be >= 0")
	}
	return nil
}

// Validate checks the model name and forest parameters.
func (m *ModelConfig) Validate() error {
	if m.Name == "" || strings.Contains(m.Name, "/") {
		return fmt.Errorf("model.name: invalid name '%s'", m.Name)
	}
	if err := m.Forest.Validate(); err != nil {
		return fmt.Errorf("model.forest: %w", err)
	}
	return nil
}

// Validate checks the worker and cache settings.
func (a *AnalysisConfig) Validate() error {
	if a.Workers < 0 {
		return errors.New("analysis.workers: must be >= 0")
	}
	if a.CacheSize < 0 {
		return errors.New("analysis.cache_size: must be >= 0")
	}
	return nil
}

// Validate checks that the registry directory, when set, is not a file.
func (st *StorageConfig) Validate() error {
	if !st.Enabled || st.Dir == "" {
		return nil
	}
	info, err := os.Stat(st.Dir)
	if err == nil && !info.IsDir() {
		return fmt.Errorf("storage.dir: '%s' is not a directory", st.Dir)
	}
	return nil
}

// Validate checks that both thresholds are finite and not negative.
func (m *MetricsConfig) Validate() error {
	for _, th := range []struct {
		key string
		v   float64
	}{
		{"metrics.actual_threshold", m.ActualThreshold},
		{"metrics.predicted_threshold", m.PredictedThreshold},
	} {
		if math.IsNaN(th.v) || math.IsInf(th.v, 0) || th.v < 0 {
			return fmt.Errorf("%s: %v must be a finite value >= 0", th.key, th.v)
		}
	}
	return nil
}
