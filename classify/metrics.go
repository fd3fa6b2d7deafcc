package classify

import (
	"cmp"
	"math"
	"slices"
)

// Accuracy returns the fraction of equal entries, NaN for empty input.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return math.NaN()
	}
	var hit int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(yTrue))
}

// Confusion returns the nClasses x nClasses matrix with true classes as
// rows and predictions as columns. Out-of-range entries are ignored.
func Confusion(yTrue, yPred []int, nClasses int) [][]int {
	m := make([][]int, nClasses)
	for i := range m {
		m[i] = make([]int, nClasses)
	}
	for i := range min(len(yTrue), len(yPred)) {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t >= nClasses || p < 0 || p >= nClasses {
			continue
		}
		m[t][p]++
	}
	return m
}

// Binary is a two-class confusion matrix with class 1 positive.
type Binary struct {
	TN, FP, FN, TP int
}

// NewBinary counts the two-class outcomes.
func NewBinary(yTrue, yPred []int) Binary {
	var b Binary
	for i := range min(len(yTrue), len(yPred)) {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			b.TP++
		case yTrue[i] == 1:
			b.FN++
		case yPred[i] == 1:
			b.FP++
		default:
			b.TN++
		}
	}
	return b
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

// ratioOrZero is ratio with a zero result for a zero denominator.
func ratioOrZero(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Sensitivity is TP/(TP+FN), NaN without positives.
func (b Binary) Sensitivity() float64 { return ratio(b.TP, b.TP+b.FN) }

// Specificity is TN/(TN+FP), NaN without negatives.
func (b Binary) Specificity() float64 { return ratio(b.TN, b.TN+b.FP) }

// Report holds the evaluation metrics of one prediction set. Metrics that
// are undefined for the data are NaN.
type Report struct {
	N           int
	Accuracy    float64
	Error       float64
	Sensitivity float64
	Specificity float64
	Precision   float64
	Recall      float64
	F1          float64
	AUC         float64
	Confusion   [][]int
}

// NewReport computes the metrics of yPred against yTrue. scores are the
// positive-class probabilities and may be nil. The binary metrics are only
// defined for nClasses == 2; precision, recall and F1 count a zero
// denominator as 0. AUC also needs both classes in yTrue.
func NewReport(yTrue, yPred []int, scores []float64, nClasses int) Report {
	nan := math.NaN()

	r := Report{
		N:           len(yTrue),
		Accuracy:    Accuracy(yTrue, yPred),
		Sensitivity: nan,
		Specificity: nan,
		Precision:   nan,
		Recall:      nan,
		F1:          nan,
		AUC:         nan,
		Confusion:   Confusion(yTrue, yPred, nClasses),
	}
	r.Error = 1 - r.Accuracy

	if nClasses != 2 {
		return r
	}

	b := NewBinary(yTrue, yPred)
	r.Sensitivity = b.Sensitivity()
	r.Specificity = b.Specificity()
	r.Precision = ratioOrZero(b.TP, b.TP+b.FP)
	r.Recall = ratioOrZero(b.TP, b.TP+b.FN)
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	} else {
		r.F1 = 0
	}

	if len(scores) == len(yTrue) {
		r.AUC = ROCAUC(yTrue, scores)
	}

	return r
}

// ROCAUC returns the area under the ROC curve for class 1 scores via the
// rank-sum statistic, averaging tied ranks. It is NaN unless both classes
// are present.
func ROCAUC(yTrue []int, scores []float64) float64 {
	n := len(yTrue)
	if n == 0 || len(scores) != n {
		return math.NaN()
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return cmp.Compare(scores[a], scores[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && scores[order[j]] == scores[order[i]] {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var (
		pos, neg int
		rankSum  float64
	)
	for i, y := range yTrue {
		if y == 1 {
			pos++
			rankSum += ranks[i]
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return math.NaN()
	}

	return (rankSum - float64(pos*(pos+1))/2) / float64(pos*neg)
}
