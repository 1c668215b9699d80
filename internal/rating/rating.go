// Package rating predicts a game's WhiteElo with a trained forest artifact.
package rating

import (
	"errors"
	"fmt"
	"os"

	"github.com/notnil/chess"

	"github.com/hailam/chessperf/internal/dataset"
	"github.com/hailam/chessperf/internal/forest"
	"github.com/hailam/chessperf/internal/storage"
)

// Latest names the most recently recorded registry model.
const Latest = "latest"

// Model pairs a fitted forest with the encoder it was trained with.
type Model struct {
	Name     string
	Features []string

	forest  *forest.Forest
	encoder *dataset.Encoder
}

// FromArtifact rebuilds a model. The artifact must carry the encoder and
// agree with it on the feature count.
func FromArtifact(name string, a *forest.Artifact) (*Model, error) {
	f, err := a.Forest()
	if err != nil {
		return nil, err
	}
	enc := &dataset.Encoder{}
	if err := a.DecodeEncoder(enc); err != nil {
		return nil, fmt.Errorf("model %s: %w", name, err)
	}
	if n := len(enc.FeatureNames()); n != f.NumFeatures() {
		return nil, fmt.Errorf("model %s: %w: encoder has %d features, forest %d",
			name, forest.ErrDimension, n, f.NumFeatures())
	}
	return &Model{
		Name:     name,
		Features: a.Features,
		forest:   f,
		encoder:  enc,
	}, nil
}

// Resolve loads the model named by ref. ref is tried as an artifact file,
// then as a registry name (Latest for the newest), then as a name exported
// to the model directory. reg may be nil to skip the registry.
func Resolve(ref string, reg *storage.Storage) (*Model, error) {
	if ref == "" {
		return nil, errors.New("rating: empty model reference")
	}
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return loadFile(ref, ref)
	}

	if reg != nil {
		var (
			name = ref
			a    *forest.Artifact
			err  error
		)
		if ref == Latest {
			name, a, err = reg.LatestModel()
		} else {
			a, err = reg.LoadModel(ref)
		}
		if err == nil {
			return FromArtifact(name, a)
		}
		if !errors.Is(err, storage.ErrModelNotFound) {
			return nil, err
		}
	}

	path, err := storage.ModelPath(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", storage.ErrModelNotFound, ref)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %q", storage.ErrModelNotFound, ref)
	}
	return loadFile(ref, path)
}

func loadFile(name, path string) (*Model, error) {
	a, err := forest.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return FromArtifact(name, a)
}

// Predict returns the predicted WhiteElo of a dataset row.
func (m *Model) Predict(match dataset.Match) (float64, error) {
	return m.forest.Predict(m.encoder.Transform(match))
}

// PredictGame predicts WhiteElo from a PGN game's tags and moves. When the
// game has no Opening tag, opening is used in its place.
func (m *Model) PredictGame(g *chess.Game, opening string) (float64, error) {
	match := dataset.MatchFromGame(g)
	if match.Opening == "" {
		match.Opening = opening
	}
	return m.Predict(match)
}
