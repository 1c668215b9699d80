package forest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Layout tags the artifact format.
const Layout = "chessperf_forest_v1"

// Artifact is the serialized form of a fitted forest together with what is
// needed to encode new inputs.
type Artifact struct {
	Layout      string          `json:"layout"`
	CreatedAt   time.Time       `json:"created_at"`
	NumFeatures int             `json:"num_features"`
	Features    []string        `json:"features,omitempty"`
	Encoder     json.RawMessage `json:"encoder,omitempty"`
	Config      Config          `json:"config"`
	Importances []float64       `json:"importances,omitempty"`
	Trees       []Tree          `json:"trees"`
}

// Artifact packages a fitted forest. encoder, if non-nil, is stored as JSON.
func (f *Forest) Artifact(features []string, encoder any) (*Artifact, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotFitted
	}
	if features != nil && len(features) != f.nFeatures {
		return nil, fmt.Errorf("%w: %d names for %d features", ErrDimension, len(features), f.nFeatures)
	}
	a := &Artifact{
		Layout:      Layout,
		CreatedAt:   time.Now().UTC(),
		NumFeatures: f.nFeatures,
		Features:    features,
		Config:      f.cfg,
		Importances: f.importances,
		Trees:       f.trees,
	}
	if encoder != nil {
		raw, err := json.Marshal(encoder)
		if err != nil {
			return nil, fmt.Errorf("encode encoder: %w", err)
		}
		a.Encoder = raw
	}
	return a, nil
}

// Forest rebuilds the forest from the artifact.
func (a *Artifact) Forest() (*Forest, error) {
	if a.Layout != Layout {
		return nil, fmt.Errorf("forest: unknown layout %q", a.Layout)
	}
	if len(a.Trees) == 0 {
		return nil, ErrNotFitted
	}
	nf := a.NumFeatures
	if nf <= 0 {
		return nil, fmt.Errorf("%w: artifact has no features", ErrDimension)
	}
	for ti, t := range a.Trees {
		if len(t.Nodes) == 0 {
			return nil, fmt.Errorf("forest: tree %d is empty", ti)
		}
		for ni, n := range t.Nodes {
			if n.Feature == leaf {
				continue
			}
			if n.Feature < 0 || n.Feature >= nf ||
				int(n.Left) <= ni || int(n.Right) <= ni ||
				int(n.Left) >= len(t.Nodes) || int(n.Right) >= len(t.Nodes) {
				return nil, fmt.Errorf("forest: tree %d node %d is malformed", ti, ni)
			}
		}
	}
	return &Forest{
		cfg:         a.Config,
		nFeatures:   nf,
		trees:       a.Trees,
		importances: a.Importances,
	}, nil
}

// DecodeEncoder unmarshals the stored encoder into v.
func (a *Artifact) DecodeEncoder(v any) error {
	if len(a.Encoder) == 0 {
		return fmt.Errorf("forest: artifact has no encoder")
	}
	return json.Unmarshal(a.Encoder, v)
}

// Marshal returns the artifact as JSON.
func (a *Artifact) Marshal() ([]byte, error) {
	return json.Marshal(a)
}

// Unmarshal parses an artifact and checks its layout.
func Unmarshal(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	if a.Layout != Layout {
		return nil, fmt.Errorf("forest: unknown layout %q", a.Layout)
	}
	return &a, nil
}

// SaveFile writes the artifact to path through a temporary file and rename.
func SaveFile(path string, a *Artifact) error {
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// LoadFile reads an artifact written by SaveFile.
func LoadFile(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(b)
}
