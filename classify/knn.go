package classify

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// KNN weighting schemes.
const (
	WeightUniform  = "uniform"
	WeightDistance = "distance"
)

// KNN distance metrics. Minkowski uses P (default 2).
const (
	MetricEuclidean = "euclidean"
	MetricManhattan = "manhattan"
	MetricMinkowski = "minkowski"
)

// KNN is a k-nearest-neighbours classifier. The fitted state is the
// training set itself.
type KNN struct {
	K       int     `json:"k"`
	Weights string  `json:"weights"`
	Metric  string  `json:"metric"`
	P       float64 `json:"p,omitempty"`

	X        [][]float64 `json:"x"`
	Y        []int       `json:"y"`
	NClasses int         `json:"n_classes"`
}

// NewKNN builds a KNN from n_neighbors, weights and metric.
func NewKNN(p Params) (Classifier, error) {
	k, err := p.Int("n_neighbors", 5)
	if err != nil {
		return nil, err
	}
	w, err := p.Str("weights", WeightUniform)
	if err != nil {
		return nil, err
	}
	m, err := p.Str("metric", MetricMinkowski)
	if err != nil {
		return nil, err
	}
	pw, err := p.Float("p", 2)
	if err != nil {
		return nil, err
	}

	knn := &KNN{K: k, Weights: w, Metric: m, P: pw}
	if err := knn.validate(); err != nil {
		return nil, err
	}

	return knn, nil
}

func (m *KNN) validate() error {
	if m.K < 1 {
		return fmt.Errorf("classify: knn k must be >= 1, got %d", m.K)
	}
	switch m.Weights {
	case WeightUniform, WeightDistance:
	default:
		return fmt.Errorf("classify: knn weights %q", m.Weights)
	}
	switch m.Metric {
	case MetricEuclidean, MetricManhattan:
	case MetricMinkowski:
		if m.P < 1 {
			return fmt.Errorf("classify: minkowski p must be >= 1, got %g", m.P)
		}
	default:
		return fmt.Errorf("classify: knn metric %q", m.Metric)
	}
	return nil
}

func (m *KNN) Name() string { return "KNN" }

func (m *KNN) Params() Params {
	return Params{"n_neighbors": m.K, "weights": m.Weights, "metric": m.Metric}
}

// Fit stores a copy of the training set.
func (m *KNN) Fit(X [][]float64, y []int, nClasses int) error {
	if m.P == 0 {
		m.P = 2
	}
	if err := m.validate(); err != nil {
		return err
	}
	if _, err := checkFit(X, y, nClasses); err != nil {
		return err
	}

	m.X = make([][]float64, len(X))
	for i, row := range X {
		m.X[i] = slices.Clone(row)
	}
	m.Y = slices.Clone(y)
	m.NClasses = nClasses

	return nil
}

func (m *KNN) distance(a, b []float64) float64 {
	var d float64
	switch m.Metric {
	case MetricManhattan:
		for i := range a {
			d += math.Abs(a[i] - b[i])
		}
		return d
	case MetricMinkowski:
		if m.P != 2 {
			for i := range a {
				d += math.Pow(math.Abs(a[i]-b[i]), m.P)
			}
			return math.Pow(d, 1/m.P)
		}
	}
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return math.Sqrt(d)
}

type neighbour struct {
	index int
	dist  float64
}

// PredictProba returns the (optionally distance-weighted) class vote of
// the K nearest training rows. With distance weighting, exact matches take
// all the weight.
func (m *KNN) PredictProba(X [][]float64) ([][]float64, error) {
	if m.X == nil {
		return nil, ErrNotFitted
	}
	if err := checkPredict(X, len(m.X[0])); err != nil {
		return nil, err
	}

	k := min(m.K, len(m.X))
	nb := make([]neighbour, len(m.X))
	out := make([][]float64, len(X))

	for r, row := range X {
		for i, train := range m.X {
			nb[i] = neighbour{index: i, dist: m.distance(row, train)}
		}
		slices.SortStableFunc(nb, func(a, b neighbour) int {
			return cmp.Compare(a.dist, b.dist)
		})

		votes := make([]float64, m.NClasses)
		exact := m.Weights == WeightDistance && nb[0].dist == 0

		for _, n := range nb[:k] {
			w := 1.0
			if m.Weights == WeightDistance {
				switch {
				case exact && n.dist == 0:
					w = 1
				case exact:
					w = 0
				default:
					w = 1 / n.dist
				}
			}
			votes[m.Y[n.index]] += w
		}

		var total float64
		for _, v := range votes {
			total += v
		}
		for c := range votes {
			votes[c] /= total
		}
		out[r] = votes
	}

	return out, nil
}

func (m *KNN) Predict(X [][]float64) ([]int, error) { return predictFromProba(m, X) }
