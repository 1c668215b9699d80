package metrics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// Predictions are paired actual and predicted values of one split.
type Predictions struct {
	Actual    []float64
	Predicted []float64
}

// Labels thresholds the actual values into classes.
func (p Predictions) Labels(threshold float64) []bool {
	return Binarize(p.Actual, threshold)
}

// Scores computes the metrics of one split. Actual values at or above
// actualThreshold are positive; predictions at or above predThreshold are
// predicted positive and their raw values rank the AUC.
func (p Predictions) Scores(actualThreshold, predThreshold float64) (Scores, error) {
	return Compute(p.Labels(actualThreshold), Binarize(p.Predicted, predThreshold), p.Predicted)
}

// MedianActual returns the median of the actual values, or 0 when there are
// none. An even count averages the two middle values.
func (p Predictions) MedianActual() float64 {
	n := len(p.Actual)
	if n == 0 {
		return 0
	}
	v := append([]float64(nil), p.Actual...)
	sort.Float64s(v)
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}

// Thresholds fills in unset (zero) thresholds with the median actual value
// of train, so Elo-scale predictions split into above and below the typical
// rating when no boundary is configured.
func Thresholds(train *Predictions, actual, predicted float64) (float64, float64) {
	if train == nil || (actual != 0 && predicted != 0) {
		return actual, predicted
	}
	median := train.MedianActual()
	if actual == 0 {
		actual = median
	}
	if predicted == 0 {
		predicted = median
	}
	return actual, predicted
}

// ReadPredictions parses a CSV with split, actual and predicted columns
// (header required, column order free) keyed by split name.
func ReadPredictions(r io.Reader) (map[string]*Predictions, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range []string{"split", "actual", "predicted"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	out := map[string]*Predictions{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		split := strings.TrimSpace(rec[col["split"]])
		a, err := strconv.ParseFloat(strings.TrimSpace(rec[col["actual"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: actual: %w", line, err)
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(rec[col["predicted"]]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: predicted: %w", line, err)
		}
		ps, ok := out[split]
		if !ok {
			ps = &Predictions{}
			out[split] = ps
		}
		ps.Actual = append(ps.Actual, a)
		ps.Predicted = append(ps.Predicted, p)
	}
	return out, nil
}

// TableFrom builds the train/test table from two prediction sets. Zero
// thresholds are resolved with Thresholds.
func TableFrom(train, test *Predictions, actualThreshold, predThreshold float64) (Table, error) {
	if train == nil || test == nil {
		return Table{}, errors.New("metrics: train and test predictions are required")
	}
	actualThreshold, predThreshold = Thresholds(train, actualThreshold, predThreshold)
	tr, err := train.Scores(actualThreshold, predThreshold)
	if err != nil {
		return Table{}, fmt.Errorf("train: %w", err)
	}
	te, err := test.Scores(actualThreshold, predThreshold)
	if err != nil {
		return Table{}, fmt.Errorf("test: %w", err)
	}
	return Table{Train: tr, Test: te, Differs: tr.Sub(te)}, nil
}
