// Package forest implements a random-forest regressor: bootstrap-sampled
// CART trees whose predictions are averaged.
package forest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotFitted is returned when predicting with a forest that has no trees.
	ErrNotFitted = errors.New("forest: not fitted")

	// ErrDimension is returned when a feature vector has the wrong length.
	ErrDimension = errors.New("forest: feature dimension mismatch")
)

// Config holds the forest hyperparameters.
type Config struct {
	Trees           int   `json:"trees" mapstructure:"trees"`
	MaxDepth        int   `json:"max_depth" mapstructure:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split" mapstructure:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf" mapstructure:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features" mapstructure:"max_features"`
	Bootstrap       bool  `json:"bootstrap" mapstructure:"bootstrap"`
	Seed            int64 `json:"seed" mapstructure:"seed"`
	Workers         int   `json:"-" mapstructure:"workers"`
}

// DefaultConfig returns 100 unpruned trees on bootstrap samples, seed 42.
// MaxDepth 0 means unlimited and MaxFeatures 0 means all features.
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Seed:            42,
	}
}

// Validate checks the hyperparameters.
func (c Config) Validate() error {
	if c.Trees < 1 {
		return fmt.Errorf("trees must be >= 1, got %d", c.Trees)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth)
	}
	if c.MinSamplesSplit < 2 {
		return fmt.Errorf("min_samples_split must be >= 2, got %d", c.MinSamplesSplit)
	}
	if c.MinSamplesLeaf < 1 {
		return fmt.Errorf("min_samples_leaf must be >= 1, got %d", c.MinSamplesLeaf)
	}
	if c.MaxFeatures < 0 {
		return fmt.Errorf("max_features must be >= 0, got %d", c.MaxFeatures)
	}
	return nil
}

// Forest is a fitted or unfitted random-forest regressor. A fitted forest is
// read-only and safe for concurrent prediction.
type Forest struct {
	cfg         Config
	nFeatures   int
	trees       []Tree
	importances []float64
}

// New returns an unfitted forest.
func New(cfg Config) *Forest {
	return &Forest{cfg: cfg}
}

// Config returns the forest's hyperparameters.
func (f *Forest) Config() Config { return f.cfg }

// NumFeatures returns the feature dimension seen at fit time.
func (f *Forest) NumFeatures() int { return f.nFeatures }

// Trees returns the fitted trees.
func (f *Forest) Trees() []Tree { return f.trees }

// Fit grows the trees in parallel. Tree i draws from its own RNG seeded from
// Seed and i, so the result does not depend on scheduling.
func (f *Forest) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if err := f.cfg.Validate(); err != nil {
		return err
	}
	if len(X) == 0 {
		return errors.New("forest: empty training set")
	}
	if len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d targets", ErrDimension, len(X), len(y))
	}
	nf := len(X[0])
	if nf == 0 {
		return fmt.Errorf("%w: no features", ErrDimension)
	}
	for i, row := range X {
		if len(row) != nf {
			return fmt.Errorf("%w: row %d has %d features, want %d", ErrDimension, i, len(row), nf)
		}
	}

	workers := f.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	trees := make([]Tree, f.cfg.Trees)
	imps := make([][]float64, f.cfg.Trees)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for t := range trees {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(f.cfg.Seed + int64(t)))
			idx := f.sample(len(X), rng)
			trees[t], imps[t] = growTree(f.cfg, X, y, idx, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.nFeatures = nf
	f.trees = trees
	f.importances = averageImportances(imps, nf)
	return nil
}

func (f *Forest) sample(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		if f.cfg.Bootstrap {
			idx[i] = rng.Intn(n)
		} else {
			idx[i] = i
		}
	}
	return idx
}

// averageImportances normalizes each tree's impurity decrease to sum 1 and
// averages across trees.
func averageImportances(imps [][]float64, nf int) []float64 {
	out := make([]float64, nf)
	counted := 0
	for _, imp := range imps {
		total := 0.0
		for _, v := range imp {
			total += v
		}
		if total == 0 {
			continue
		}
		for j, v := range imp {
			out[j] += v / total
		}
		counted++
	}
	if counted > 0 {
		for j := range out {
			out[j] /= float64(counted)
		}
	}
	return out
}

// Importances returns the mean impurity-decrease importance per feature.
func (f *Forest) Importances() []float64 {
	return append([]float64(nil), f.importances...)
}

// Predict returns the mean prediction of all trees.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrDimension, len(x), f.nFeatures)
	}
	sum := 0.0
	for i := range f.trees {
		sum += f.trees[i].Predict(x)
	}
	return sum / float64(len(f.trees)), nil
}

// PredictBatch predicts every row of X.
func (f *Forest) PredictBatch(X [][]float64) ([]float64, error) {
	out := make([]float64, len(X))
	for i, x := range X {
		p, err := f.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}
