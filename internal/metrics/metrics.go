// Package metrics scores binary predictions and regression fits.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// ErrLengthMismatch is returned when paired slices differ in length.
var ErrLengthMismatch = errors.New("metrics: length mismatch")

// Confusion is a binary confusion matrix.
type Confusion struct {
	TP, FP, TN, FN int
}

// NewConfusion counts outcomes. yTrue and yPred must have equal length.
func NewConfusion(yTrue, yPred []bool) (Confusion, error) {
	if len(yTrue) != len(yPred) {
		return Confusion{}, fmt.Errorf("%w: %d labels, %d predictions", ErrLengthMismatch, len(yTrue), len(yPred))
	}
	var c Confusion
	for i, t := range yTrue {
		switch {
		case t && yPred[i]:
			c.TP++
		case t:
			c.FN++
		case yPred[i]:
			c.FP++
		default:
			c.TN++
		}
	}
	return c, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Accuracy is (TP+TN)/N.
func (c Confusion) Accuracy() float64 { return ratio(c.TP+c.TN, c.TP+c.TN+c.FP+c.FN) }

// Precision is TP/(TP+FP).
func (c Confusion) Precision() float64 { return ratio(c.TP, c.TP+c.FP) }

// Recall is TP/(TP+FN).
func (c Confusion) Recall() float64 { return ratio(c.TP, c.TP+c.FN) }

// Specificity is TN/(TN+FP).
func (c Confusion) Specificity() float64 { return ratio(c.TN, c.TN+c.FP) }

// F1 is the harmonic mean of precision and recall.
func (c Confusion) F1() float64 { return ratio(2*c.TP, 2*c.TP+c.FP+c.FN) }

// Scores is one column of the metrics table.
type Scores struct {
	Accuracy    float64 `yaml:"accuracy" json:"accuracy"`
	F1          float64 `yaml:"f1" json:"f1"`
	AUC         float64 `yaml:"auc" json:"auc"`
	Precision   float64 `yaml:"precision" json:"precision"`
	Recall      float64 `yaml:"recall" json:"recall"`
	Specificity float64 `yaml:"specificity" json:"specificity"`
}

// Sub returns s - o metric by metric.
func (s Scores) Sub(o Scores) Scores {
	return Scores{
		Accuracy:    s.Accuracy - o.Accuracy,
		F1:          s.F1 - o.F1,
		AUC:         s.AUC - o.AUC,
		Precision:   s.Precision - o.Precision,
		Recall:      s.Recall - o.Recall,
		Specificity: s.Specificity - o.Specificity,
	}
}

// Compute scores hard predictions yPred against yTrue. AUC ranks yScore,
// which may be the hard predictions as 0/1.
func Compute(yTrue, yPred []bool, yScore []float64) (Scores, error) {
	c, err := NewConfusion(yTrue, yPred)
	if err != nil {
		return Scores{}, err
	}
	auc, err := AUC(yTrue, yScore)
	if err != nil {
		return Scores{}, err
	}
	return Scores{
		Accuracy:    c.Accuracy(),
		F1:          c.F1(),
		AUC:         auc,
		Precision:   c.Precision(),
		Recall:      c.Recall(),
		Specificity: c.Specificity(),
	}, nil
}

// FromScores labels every score >= threshold positive and computes Scores.
func FromScores(yTrue []bool, yScore []float64, threshold float64) (Scores, error) {
	return Compute(yTrue, Binarize(yScore, threshold), yScore)
}

// Binarize returns v >= threshold for each value.
func Binarize(values []float64, threshold float64) []bool {
	out := make([]bool, len(values))
	for i, v := range values {
		out[i] = v >= threshold
	}
	return out
}

// AUC is the area under the ROC curve. It is 0 when only one class is
// present.
func AUC(yTrue []bool, yScore []float64) (float64, error) {
	if len(yTrue) != len(yScore) {
		return 0, fmt.Errorf("%w: %d labels, %d scores", ErrLengthMismatch, len(yTrue), len(yScore))
	}
	pos := 0
	for _, t := range yTrue {
		if t {
			pos++
		}
	}
	if pos == 0 || pos == len(yTrue) {
		return 0, nil
	}

	y := append([]float64(nil), yScore...)
	classes := append([]bool(nil), yTrue...)
	stat.SortWeightedLabeled(y, classes, nil)
	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// Regression summarizes a regression fit.
type Regression struct {
	N    int     `yaml:"n" json:"n"`
	MAE  float64 `yaml:"mae" json:"mae"`
	RMSE float64 `yaml:"rmse" json:"rmse"`
	R2   float64 `yaml:"r2" json:"r2"`
}

// Regress compares predicted against actual values.
func Regress(actual, predicted []float64) (Regression, error) {
	if len(actual) != len(predicted) {
		return Regression{}, fmt.Errorf("%w: %d actual, %d predicted", ErrLengthMismatch, len(actual), len(predicted))
	}
	r := Regression{N: len(actual)}
	if r.N == 0 {
		return r, nil
	}
	var absSum, sqSum float64
	for i, a := range actual {
		d := predicted[i] - a
		absSum += math.Abs(d)
		sqSum += d * d
	}
	r.MAE = absSum / float64(r.N)
	r.RMSE = math.Sqrt(sqSum / float64(r.N))
	if r.N > 1 {
		r.R2 = stat.RSquaredFrom(predicted, actual, nil)
	}
	if math.IsNaN(r.R2) || math.IsInf(r.R2, 0) {
		r.R2 = 0
	}
	return r, nil
}
