package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 0.2, cfg.Dataset.TestFraction)
	assert.Equal(t, int64(42), cfg.Dataset.Seed)
	assert.Equal(t, 100, cfg.Model.Forest.Trees)
	assert.Equal(t, int64(42), cfg.Model.Forest.Seed)
	assert.True(t, cfg.Model.Forest.Bootstrap)
	assert.True(t, cfg.Storage.Enabled)
	assert.Equal(t, 0.0, cfg.Metrics.ActualThreshold)
	assert.Equal(t, 0.0, cfg.Metrics.PredictedThreshold)
	assert.Empty(t, cfg.Model.Output)

	assert.Equal(t, cfg, Default())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logger:
  level: debug
  format: json
dataset:
  path: data/matches.csv
  filter: 'MoveCount > 10'
model:
  name: blitz
  forest:
    trees: 25
    max_depth: 12
analysis:
  workers: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "data/matches.csv", cfg.Dataset.Path)
	assert.Equal(t, "MoveCount > 10", cfg.Dataset.Filter)
	assert.Equal(t, "blitz", cfg.Model.Name)
	assert.Equal(t, 25, cfg.Model.Forest.Trees)
	assert.Equal(t, 12, cfg.Model.Forest.MaxDepth)
	assert.Equal(t, 2, cfg.Model.Forest.MinSamplesSplit)
	assert.Equal(t, 3, cfg.Analysis.Workers)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CHESSPERF_MODEL_FOREST_TREES", "7")
	t.Setenv("CHESSPERF_LOGGER_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Model.Forest.Trees)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"level", "logger:\n  level: loud\n"},
		{"format", "logger:\n  format: xml\n"},
		{"fraction", "dataset:\n  test_fraction: 1.5\n"},
		{"trees", "model:\n  forest:\n    trees: 0\n"},
		{"name", "model:\n  name: a/b\n"},
		{"workers", "analysis:\n  workers: -1\n"},
		{"actual threshold", "metrics:\n  actual_threshold: -1\n"},
		{"predicted threshold", "metrics:\n  predicted_threshold: .nan\n"},
		{"infinite threshold", "metrics:\n  actual_threshold: .inf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMetricsThresholdEnv(t *testing.T) {
	t.Setenv("CHESSPERF_METRICS_ACTUAL_THRESHOLD", "1650")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1650.0, cfg.Metrics.ActualThreshold)
	assert.Equal(t, 0.0, cfg.Metrics.PredictedThreshold)

	t.Setenv("CHESSPERF_METRICS_PREDICTED_THRESHOLD", "NaN")
	_, err = Load("")
	assert.ErrorContains(t, err, "metrics.predicted_threshold")
}

func TestStorageDirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "registry")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := Load(writeConfig(t, "storage:\n  dir: "+file+"\n"))
	assert.ErrorContains(t, err, "storage.dir")

	cfg := Default()
	cfg.Storage.Dir = file
	cfg.Storage.Enabled = false
	assert.NoError(t, cfg.Validate())
}
