package dataset

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// Split shuffles the indices 0..n-1 with seed and returns the train and test
// parts. The test part holds ceil(n*testFraction) indices.
func Split(n int, testFraction float64, seed int64) (train, test []int) {
	if n <= 0 {
		return nil, nil
	}
	nTest := int(math.Ceil(float64(n) * testFraction))
	nTest = max(0, min(n, nTest))

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest]
}

// Select returns ms[i] for every i in idx.
func Select(ms []Match, idx []int) []Match {
	out := make([]Match, len(idx))
	for j, i := range idx {
		out[j] = ms[i]
	}
	return out
}

// Summary describes the target distribution of a set of matches.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize computes WhiteElo statistics.
func Summarize(ms []Match) Summary {
	if len(ms) == 0 {
		return Summary{}
	}
	elo := make([]float64, len(ms))
	for i, m := range ms {
		elo[i] = m.WhiteElo
	}
	s := Summary{N: len(ms), Min: elo[0], Max: elo[0]}
	if len(elo) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(elo, nil)
	} else {
		s.Mean = elo[0]
	}
	for _, v := range elo {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
	}
	return s
}
