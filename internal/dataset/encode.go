package dataset

import (
	"log/slog"
	"sort"

	"github.com/hailam/chessperf/internal/eval"
	"github.com/hailam/chessperf/internal/game"
)

// Feature names in encoding order.
const (
	FeatWhiteRatingDiff = "WhiteRatingDiff"
	FeatOpening         = "Opening"
	FeatTimeBase        = "TimeControlBase"
	FeatTimeIncrement   = "TimeControlIncrement"
	FeatResult          = "Result"
	FeatMoveCount       = "MoveCount"
	FeatPerformance     = "WhitePerformance"
)

// Encoder maps matches to numeric feature vectors. Openings are encoded as
// their index in the sorted list of names seen by Fit; unseen names get -1.
// The zero value encodes every opening as -1.
type Encoder struct {
	Openings    []string `json:"openings"`
	Performance bool     `json:"performance"`
}

// NewEncoder returns an unfitted encoder. With performance set, the final
// position evaluation of SAN movetext is appended as a feature.
func NewEncoder(performance bool) *Encoder {
	return &Encoder{Performance: performance}
}

// Fit records the opening vocabulary of ms.
func (e *Encoder) Fit(ms []Match) {
	seen := make(map[string]struct{})
	for _, m := range ms {
		seen[m.Opening] = struct{}{}
	}
	e.Openings = make([]string, 0, len(seen))
	for name := range seen {
		e.Openings = append(e.Openings, name)
	}
	sort.Strings(e.Openings)
}

// FeatureNames lists the columns produced by Transform.
func (e *Encoder) FeatureNames() []string {
	names := []string{
		FeatWhiteRatingDiff,
		FeatOpening,
		FeatTimeBase,
		FeatTimeIncrement,
		FeatResult,
		FeatMoveCount,
	}
	if e.Performance {
		names = append(names, FeatPerformance)
	}
	return names
}

func (e *Encoder) opening(name string) float64 {
	i := sort.SearchStrings(e.Openings, name)
	if i < len(e.Openings) && e.Openings[i] == name {
		return float64(i)
	}
	return -1
}

// Transform encodes one match.
func (e *Encoder) Transform(m Match) []float64 {
	base, inc, err := ParseTimeControl(m.TimeControl)
	if err != nil {
		base, inc = -1, -1
	}
	x := []float64{
		m.WhiteRatingDiff,
		e.opening(m.Opening),
		base,
		inc,
		ParseResult(m.Result),
		float64(m.MoveCount()),
	}
	if e.Performance {
		x = append(x, performance(m))
	}
	return x
}

// TransformAll encodes ms and returns the WhiteElo targets alongside.
func (e *Encoder) TransformAll(ms []Match) (X [][]float64, y []float64) {
	X = make([][]float64, len(ms))
	y = make([]float64, len(ms))
	for i, m := range ms {
		X[i] = e.Transform(m)
		y[i] = m.WhiteElo
	}
	return X, y
}

// performance is white's share of the final position evaluation, or 50 when
// the row has no playable movetext.
func performance(m Match) float64 {
	if !m.HasMovetext() {
		return 50
	}
	g, err := game.FromMovetext(m.Moves)
	if err != nil {
		slog.Debug("movetext not playable", "err", err)
		return 50
	}
	w, _ := eval.EvaluatePerformance(eval.FromGame(g))
	return w
}
