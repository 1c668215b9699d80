package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessperf/internal/forest"
	"github.com/hailam/chessperf/internal/metrics"
)

func openTemp(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func fitted(t *testing.T, target float64) *forest.Artifact {
	t.Helper()
	cfg := forest.DefaultConfig()
	cfg.Trees = 3
	f := forest.New(cfg)
	X := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{target, target, target, target}
	require.NoError(t, f.Fit(context.Background(), X, y))
	a, err := f.Artifact([]string{"x"}, nil)
	require.NoError(t, err)
	return a
}

func TestStorage(t *testing.T) {
	s := openTemp(t)

	t.Run("NotFound", func(t *testing.T) {
		_, err := s.LoadModel("missing")
		assert.True(t, errors.Is(err, ErrModelNotFound))

		_, _, err = s.LatestModel()
		assert.True(t, errors.Is(err, ErrModelNotFound))
	})

	t.Run("SaveLoad", func(t *testing.T) {
		run := TrainingRun{
			Dataset:   "matches.csv",
			TrainRows: 4,
			Test:      metrics.Regression{N: 1, MAE: 3},
		}
		require.NoError(t, s.SaveModel("elo", fitted(t, 1500), run))

		a, err := s.LoadModel("elo")
		require.NoError(t, err)
		f, err := a.Forest()
		require.NoError(t, err)
		p, err := f.Predict([]float64{10})
		require.NoError(t, err)
		assert.Equal(t, 1500.0, p)

		runs, err := s.Runs("elo")
		require.NoError(t, err)
		require.Len(t, runs, 1)
		assert.Equal(t, "elo", runs[0].Model)
		assert.Equal(t, "matches.csv", runs[0].Dataset)
		assert.Equal(t, 3.0, runs[0].Test.MAE)
	})

	t.Run("Latest", func(t *testing.T) {
		require.NoError(t, s.SaveModel("blitz", fitted(t, 1700), TrainingRun{}))
		name, a, err := s.LatestModel()
		require.NoError(t, err)
		assert.Equal(t, "blitz", name)
		assert.NotNil(t, a)

		names, err := s.Models()
		require.NoError(t, err)
		assert.Equal(t, []string{"blitz", "elo"}, names)
	})

	t.Run("RunsOrdered", func(t *testing.T) {
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		for i := 2; i >= 0; i-- {
			run := TrainingRun{StartedAt: base.Add(time.Duration(i) * time.Hour), TestRows: i}
			require.NoError(t, s.SaveModel("history", fitted(t, 1), run))
		}
		runs, err := s.Runs("history")
		require.NoError(t, err)
		require.Len(t, runs, 3)
		for i, r := range runs {
			assert.Equal(t, i, r.TestRows)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, s.DeleteModel("blitz"))
		_, err := s.LoadModel("blitz")
		assert.True(t, errors.Is(err, ErrModelNotFound))
		runs, err := s.Runs("blitz")
		require.NoError(t, err)
		assert.Empty(t, runs)

		assert.True(t, errors.Is(s.DeleteModel("blitz"), ErrModelNotFound))
	})

	t.Run("InvalidName", func(t *testing.T) {
		assert.Error(t, s.SaveModel("a/b", fitted(t, 1), TrainingRun{}))
		assert.Error(t, s.SaveModel("", fitted(t, 1), TrainingRun{}))
	})
}

func TestDataPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dataDir, err := GetDataDir()
	require.NoError(t, err)
	assert.NotEmpty(t, dataDir)

	_, err = os.Stat(dataDir)
	assert.NoError(t, err)

	for _, fn := range []func() (string, error){GetDatabaseDir, GetModelDir} {
		dir, err := fn()
		require.NoError(t, err)
		_, err = os.Stat(dir)
		assert.NoError(t, err)
	}

	path, err := ModelPath("blitz")
	require.NoError(t, err)
	modelDir, err := GetModelDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(modelDir, "blitz.json"), path)

	_, err = ModelPath("a/b")
	assert.Error(t, err)

	t.Logf("Data directory: %s", dataDir)
}
