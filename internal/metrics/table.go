package metrics

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Table holds train and test scores and their difference.
type Table struct {
	Train   Scores `yaml:"train" json:"train"`
	Test    Scores `yaml:"test" json:"test"`
	Differs Scores `yaml:"differs" json:"differs"`
}

// NewTable scores both splits against threshold and fills Differs as
// Train - Test.
func NewTable(trainTrue []bool, trainScore []float64, testTrue []bool, testScore []float64, threshold float64) (Table, error) {
	train, err := FromScores(trainTrue, trainScore, threshold)
	if err != nil {
		return Table{}, fmt.Errorf("train: %w", err)
	}
	test, err := FromScores(testTrue, testScore, threshold)
	if err != nil {
		return Table{}, fmt.Errorf("test: %w", err)
	}
	return Table{Train: train, Test: test, Differs: train.Sub(test)}, nil
}

var rowNames = []string{"Accuracy", "F1", "AUC", "Precision", "Recall", "Specificity"}

func (s Scores) values() []float64 {
	return []float64{s.Accuracy, s.F1, s.AUC, s.Precision, s.Recall, s.Specificity}
}

// WriteText renders the table with one row per metric.
func (t Table) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "\tTrain\tTest\tDiffers\t")
	train, test, diff := t.Train.values(), t.Test.values(), t.Differs.values()
	for i, name := range rowNames {
		fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%.4f\t\n", name, train[i], test[i], diff[i])
	}
	return tw.Flush()
}

// YAML encodes the table.
func (t Table) YAML() ([]byte, error) {
	return yaml.Marshal(t)
}
