package rating

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hailam/chessperf/internal/dataset"
	"github.com/hailam/chessperf/internal/forest"
	"github.com/hailam/chessperf/internal/game"
	"github.com/hailam/chessperf/internal/storage"
)

const matchesCSV = `WhiteElo,BlackElo,WhiteRatingDiff,Opening,TimeControl,Result,Moves
1500,1480,6,Sicilian Defense,300+3,1-0,1. e4 c5 2. Nf3 d6
1620,1700,-9,French Defense,300+0,0-1,1. e4 e6 2. d4 d5 3. Nc3
1810,1805,2,Scandinavian Defense,900+15,1/2-1/2,1. e4 d5
1400,1390,3,Sicilian Defense,60+0,1-0,1. e4 c5
2050,2010,5,French Defense,180+2,1-0,1. e4 e6 2. d4
1720,1760,-4,Scandinavian Defense,600+0,0-1,1. e4 d5 2. exd5 Qxd5
`

const gamePGN = `[White "a"]
[Black "b"]
[Result "1-0"]
[WhiteRatingDiff "+5"]
[Opening "French Defense"]
[TimeControl "180+2"]

1. e4 e6 2. d4 1-0
`

type trained struct {
	artifact *forest.Artifact
	forest   *forest.Forest
	encoder  *dataset.Encoder
	matches  []dataset.Match
}

func train(t *testing.T, performance bool) trained {
	t.Helper()
	ms, _, err := dataset.Load(strings.NewReader(matchesCSV), 0)
	require.NoError(t, err)

	enc := dataset.NewEncoder(performance)
	enc.Fit(ms)
	X, y := enc.TransformAll(ms)

	cfg := forest.DefaultConfig()
	cfg.Trees = 10
	f := forest.New(cfg)
	require.NoError(t, f.Fit(context.Background(), X, y))

	a, err := f.Artifact(enc.FeatureNames(), enc)
	require.NoError(t, err)
	return trained{artifact: a, forest: f, encoder: enc, matches: ms}
}

func openRegistry(t *testing.T) *storage.Storage {
	t.Helper()
	reg, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { reg.Close() })
	return reg
}

func assertSamePredictions(t *testing.T, tr trained, m *Model) {
	t.Helper()
	for i, match := range tr.matches {
		want, err := tr.forest.Predict(tr.encoder.Transform(match))
		require.NoError(t, err)
		got, err := m.Predict(match)
		require.NoError(t, err)
		assert.Equal(t, want, got, "row %d", i)
	}
}

func TestResolve(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	tr := train(t, true)

	reg := openRegistry(t)
	require.NoError(t, reg.SaveModel("blitz", tr.artifact, storage.TrainingRun{}))

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, forest.SaveFile(path, tr.artifact))

	exported, err := storage.ModelPath("exported")
	require.NoError(t, err)
	require.NoError(t, forest.SaveFile(exported, tr.artifact))

	tests := []struct {
		name string
		ref  string
		reg  *storage.Storage
		want string
	}{
		{"File", path, reg, path},
		{"Registry", "blitz", reg, "blitz"},
		{"Latest", Latest, reg, "blitz"},
		{"ModelDir", "exported", reg, "exported"},
		{"ModelDirWithoutRegistry", "exported", nil, "exported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Resolve(tt.ref, tt.reg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Name)
			assert.Equal(t, tr.encoder.FeatureNames(), m.Features)
			assertSamePredictions(t, tr, m)
		})
	}
}

func TestResolveNotFound(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	reg := openRegistry(t)

	_, err := Resolve("missing", reg)
	assert.True(t, errors.Is(err, storage.ErrModelNotFound))

	_, err = Resolve(Latest, nil)
	assert.True(t, errors.Is(err, storage.ErrModelNotFound))

	_, err = Resolve("", reg)
	assert.Error(t, err)
}

func TestPredictGame(t *testing.T) {
	tr := train(t, false)
	m, err := FromArtifact("blitz", tr.artifact)
	require.NoError(t, err)

	g, err := game.ParsePGN(strings.NewReader(gamePGN))
	require.NoError(t, err)

	got, err := m.PredictGame(g, "")
	require.NoError(t, err)

	want, err := tr.forest.Predict(tr.encoder.Transform(dataset.Match{
		WhiteRatingDiff: 5,
		Opening:         "French Defense",
		TimeControl:     "180+2",
		Result:          "1-0",
		Moves:           "e4 e6 d4",
	}))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.GreaterOrEqual(t, got, 1400.0)
	assert.LessOrEqual(t, got, 2050.0)
}

func TestFromArtifactErrors(t *testing.T) {
	tr := train(t, false)

	noEncoder := *tr.artifact
	noEncoder.Encoder = nil
	_, err := FromArtifact("x", &noEncoder)
	assert.Error(t, err)

	// an encoder with the performance column no longer fits the forest
	wider, err := tr.forest.Artifact(nil, dataset.NewEncoder(true))
	require.NoError(t, err)
	_, err = FromArtifact("x", wider)
	assert.True(t, errors.Is(err, forest.ErrDimension))
}
