// Package metrics computes classification metrics from predicted and true
// class indices: confusion matrix, accuracy, per-class precision and recall,
// and the macro-averaged F1 score.
//
// Degenerate classes are defined rather than rejected: a class that was
// never predicted has precision 0, a class that never occurs has recall 0,
// and F1 is 0 when macro precision and recall are both 0.
package metrics

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ConfusionMatrix counts (true, predicted) class pairs.
//
// Counts[i][j] is the number of samples of true class i predicted as j.
type ConfusionMatrix struct {
	Classes int
	Counts  [][]int
}

// NewConfusionMatrix creates an empty matrix for the given number of classes.
func NewConfusionMatrix(classes int) *ConfusionMatrix {
	counts := make([][]int, classes)
	for i := range counts {
		counts[i] = make([]int, classes)
	}
	return &ConfusionMatrix{Classes: classes, Counts: counts}
}

// Add records one prediction.
func (m *ConfusionMatrix) Add(trueClass, predicted int) error {
	if trueClass < 0 || trueClass >= m.Classes {
		return fmt.Errorf("true class %d out of range [0, %d)", trueClass, m.Classes)
	}
	if predicted < 0 || predicted >= m.Classes {
		return fmt.Errorf("predicted class %d out of range [0, %d)", predicted, m.Classes)
	}
	m.Counts[trueClass][predicted]++
	return nil
}

// AddBatch records pairs of true and predicted classes.
func (m *ConfusionMatrix) AddBatch(truth, predicted []int) error {
	if len(truth) != len(predicted) {
		return fmt.Errorf("got %d labels but %d predictions", len(truth), len(predicted))
	}
	for i := range truth {
		if err := m.Add(truth[i], predicted[i]); err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return nil
}

// Total returns the number of recorded samples.
func (m *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range m.Counts {
		for _, c := range row {
			total += c
		}
	}
	return total
}

// Correct returns the number of samples on the diagonal.
func (m *ConfusionMatrix) Correct() int {
	correct := 0
	for i := range m.Counts {
		correct += m.Counts[i][i]
	}
	return correct
}

// Accuracy returns Correct / Total, or 0 for an empty matrix.
func (m *ConfusionMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return float64(m.Correct()) / float64(total)
}

// Precision returns TP / (TP + FP) per class, using column sums.
func (m *ConfusionMatrix) Precision() []float64 {
	p := make([]float64, m.Classes)
	for j := 0; j < m.Classes; j++ {
		col := 0
		for i := 0; i < m.Classes; i++ {
			col += m.Counts[i][j]
		}
		if col > 0 {
			p[j] = float64(m.Counts[j][j]) / float64(col)
		}
	}
	return p
}

// Recall returns TP / (TP + FN) per class, using row sums.
func (m *ConfusionMatrix) Recall() []float64 {
	r := make([]float64, m.Classes)
	for i, row := range m.Counts {
		sum := 0
		for _, c := range row {
			sum += c
		}
		if sum > 0 {
			r[i] = float64(row[i]) / float64(sum)
		}
	}
	return r
}

// MacroF1 combines the class-averaged precision and recall:
//
//	F1 = 2 * P * R / (P + R)
func (m *ConfusionMatrix) MacroF1() float64 {
	if m.Classes == 0 {
		return 0
	}
	p := stat.Mean(m.Precision(), nil)
	r := stat.Mean(m.Recall(), nil)
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// Merge adds other's counts into m.
func (m *ConfusionMatrix) Merge(other *ConfusionMatrix) error {
	if other.Classes != m.Classes {
		return fmt.Errorf("cannot merge %d-class matrix into %d-class matrix", other.Classes, m.Classes)
	}
	for i := range m.Counts {
		for j := range m.Counts[i] {
			m.Counts[i][j] += other.Counts[i][j]
		}
	}
	return nil
}

// Normalized returns each row divided by its sum (rows with no samples stay 0).
func (m *ConfusionMatrix) Normalized() [][]float64 {
	out := make([][]float64, m.Classes)
	for i, row := range m.Counts {
		out[i] = make([]float64, m.Classes)
		for j, c := range row {
			out[i][j] = float64(c)
		}
		if sum := floats.Sum(out[i]); sum > 0 {
			floats.Scale(1/sum, out[i])
		}
	}
	return out
}

// String renders the matrix as a text table with true classes as rows.
func (m *ConfusionMatrix) String() string {
	width := len(fmt.Sprint(m.Classes - 1))
	for _, row := range m.Counts {
		for _, c := range row {
			width = max(width, len(fmt.Sprint(c)))
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%*s |", width+5, "true\\pred")
	for j := 0; j < m.Classes; j++ {
		fmt.Fprintf(&sb, " %*d", width, j)
	}
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat("-", width+7+m.Classes*(width+1)))
	sb.WriteByte('\n')
	for i, row := range m.Counts {
		fmt.Fprintf(&sb, "%*d |", width+5, i)
		for _, c := range row {
			fmt.Fprintf(&sb, " %*d", width, c)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
