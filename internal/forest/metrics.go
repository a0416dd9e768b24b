package forest

import (
	"fmt"
	"strings"
)

type ConfusionMatrix struct {
	Classes []int
	// Counts[i][j] is the number of samples of class Classes[i] predicted as
	// Classes[j].
	Counts [][]int
}

func NewConfusionMatrix(truth, predicted []int) (*ConfusionMatrix, error) {
	if len(truth) != len(predicted) {
		return nil, fmt.Errorf("got %d labels and %d predictions", len(truth), len(predicted))
	}
	classes := uniqueSorted(append(append([]int{}, truth...), predicted...))
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	counts := make([][]int, len(classes))
	for i := range counts {
		counts[i] = make([]int, len(classes))
	}
	for i := range truth {
		counts[index[truth[i]]][index[predicted[i]]]++
	}
	return &ConfusionMatrix{Classes: classes, Counts: counts}, nil
}

func (m *ConfusionMatrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, row := range m.Counts {
		if i > 0 {
			sb.WriteString("\n ")
		}
		sb.WriteString("[")
		for j, v := range row {
			if j > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%4d", v)
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}

type ClassMetrics struct {
	Label     string  `csv:"label"`
	Precision float64 `csv:"precision"`
	Recall    float64 `csv:"recall"`
	F1        float64 `csv:"f1_score"`
	Support   int     `csv:"support"`
}

type Report struct {
	PerClass    []ClassMetrics
	Accuracy    float64
	Total       int
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
}

// NewReport derives per class precision, recall and F1 from m. Undefined
// ratios (zero denominators) are reported as 0.
func NewReport(m *ConfusionMatrix, names func(class int) string) Report {
	n := len(m.Classes)
	r := Report{PerClass: make([]ClassMetrics, n)}

	correct := 0
	for i := 0; i < n; i++ {
		tp := m.Counts[i][i]
		correct += tp
		support, predicted := 0, 0
		for j := 0; j < n; j++ {
			support += m.Counts[i][j]
			predicted += m.Counts[j][i]
		}
		r.Total += support

		precision := ratio(tp, predicted)
		recall := ratio(tp, support)
		f1 := 0.0
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		label := fmt.Sprint(m.Classes[i])
		if names != nil {
			label = names(m.Classes[i])
		}
		r.PerClass[i] = ClassMetrics{Label: label, Precision: precision, Recall: recall, F1: f1, Support: support}
	}

	r.Accuracy = ratio(correct, r.Total)
	r.MacroAvg = ClassMetrics{Label: "macro avg", Support: r.Total}
	r.WeightedAvg = ClassMetrics{Label: "weighted avg", Support: r.Total}
	for _, c := range r.PerClass {
		r.MacroAvg.Precision += c.Precision / float64(n)
		r.MacroAvg.Recall += c.Recall / float64(n)
		r.MacroAvg.F1 += c.F1 / float64(n)
		if r.Total > 0 {
			w := float64(c.Support) / float64(r.Total)
			r.WeightedAvg.Precision += c.Precision * w
			r.WeightedAvg.Recall += c.Recall * w
			r.WeightedAvg.F1 += c.F1 * w
		}
	}
	return r
}

// Rows returns the per class rows followed by the accuracy and average rows,
// ready to be written as CSV.
func (r Report) Rows() []ClassMetrics {
	rows := append([]ClassMetrics{}, r.PerClass...)
	rows = append(rows,
		ClassMetrics{Label: "accuracy", Precision: r.Accuracy, Recall: r.Accuracy, F1: r.Accuracy, Support: r.Total},
		r.MacroAvg,
		r.WeightedAvg,
	)
	return rows
}

func (r Report) String() string {
	width := len("weighted avg")
	for _, c := range r.PerClass {
		width = max(width, len(c.Label))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for _, c := range r.PerClass {
		fmt.Fprintf(&sb, "%*s %9.2f %9.2f %9.2f %9d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Total)
	for _, c := range []ClassMetrics{r.MacroAvg, r.WeightedAvg} {
		fmt.Fprintf(&sb, "%*s %9.2f %9.2f %9.2f %9d\n", width, c.Label, c.Precision, c.Recall, c.F1, c.Support)
	}
	return sb.String()
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
