package classify

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// GradientBoosting is a second-order gradient-boosted tree ensemble with
// the XGBoost objective: logistic loss for two classes, softmax for more.
// Leaf weights are G/(H+Lambda) scaled by LearningRate; a split needs a
// positive gain and MinChildWeight hessian on both sides.
type GradientBoosting struct {
	NEstimators    int     `json:"n_estimators"`
	MaxDepth       int     `json:"max_depth"`
	LearningRate   float64 `json:"learning_rate"`
	Lambda         float64 `json:"lambda"`
	MinChildWeight float64 `json:"min_child_weight"`

	// Rounds holds one tree per output per boosting round.
	Rounds    [][]*RegressionTree `json:"rounds"`
	NFeatures int                 `json:"n_features"`
	NClasses  int                 `json:"n_classes"`
}

// RegressionTree is a boosting tree; leaves hold one weight in Value[0].
type RegressionTree struct {
	Nodes []Node `json:"nodes"`
}

// NewGradientBoosting builds a booster from n_estimators, max_depth and
// learning_rate.
func NewGradientBoosting(p Params) (Classifier, error) {
	n, err := p.Int("n_estimators", 100)
	if err != nil {
		return nil, err
	}
	d, err := p.Int("max_depth", 6)
	if err != nil {
		return nil, err
	}
	lr, err := p.Float("learning_rate", 0.3)
	if err != nil {
		return nil, err
	}

	g := &GradientBoosting{NEstimators: n, MaxDepth: d, LearningRate: lr, Lambda: 1, MinChildWeight: 1}
	if err := g.validate(); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *GradientBoosting) validate() error {
	if g.NEstimators < 1 {
		return fmt.Errorf("classify: n_estimators must be >= 1, got %d", g.NEstimators)
	}
	if g.MaxDepth < 1 {
		return fmt.Errorf("classify: boosting max_depth must be >= 1, got %d", g.MaxDepth)
	}
	if !(g.LearningRate > 0) {
		return fmt.Errorf("classify: learning_rate must be > 0, got %g", g.LearningRate)
	}
	if g.Lambda < 0 || g.MinChildWeight < 0 {
		return fmt.Errorf("classify: lambda and min_child_weight must be >= 0")
	}
	return nil
}

func (g *GradientBoosting) Name() string { return "XGBoost" }

func (g *GradientBoosting) Params() Params {
	return Params{
		"n_estimators":  g.NEstimators,
		"max_depth":     g.MaxDepth,
		"learning_rate": g.LearningRate,
	}
}

func (g *GradientBoosting) outputs() int {
	if g.NClasses <= 2 {
		return 1
	}
	return g.NClasses
}

// Fit boosts NEstimators rounds from a zero margin.
func (g *GradientBoosting) Fit(X [][]float64, y []int, nClasses int) error {
	if err := g.validate(); err != nil {
		return err
	}
	nf, err := checkFit(X, y, nClasses)
	if err != nil {
		return err
	}
	if nClasses < 2 {
		return fmt.Errorf("classify: boosting needs at least two classes, got %d", nClasses)
	}

	g.NFeatures = nf
	g.NClasses = nClasses
	k := g.outputs()

	margin := make([][]float64, len(X))
	for i := range margin {
		margin[i] = make([]float64, k)
	}

	grad := make([]float64, len(X))
	hess := make([]float64, len(X))
	prob := make([]float64, k)

	all := make([]int, len(X))
	for i := range all {
		all[i] = i
	}

	g.Rounds = make([][]*RegressionTree, 0, g.NEstimators)

	for range g.NEstimators {
		round := make([]*RegressionTree, k)

		for out := range k {
			for i := range X {
				if k == 1 {
					p := sigmoid(margin[i][0])
					t := 0.0
					if y[i] == 1 {
						t = 1
					}
					grad[i] = t - p
					hess[i] = math.Max(p*(1-p), 1e-16)
					continue
				}
				softmax(prob, margin[i])
				t := 0.0
				if y[i] == out {
					t = 1
				}
				grad[i] = t - prob[out]
				hess[i] = math.Max(2*prob[out]*(1-prob[out]), 1e-16)
			}

			b := &boostBuilder{g: g, X: X, grad: grad, hess: hess, tree: &RegressionTree{}}
			b.grow(slices.Clone(all), 0)
			round[out] = b.tree
		}

		for i, x := range X {
			for out, t := range round {
				margin[i][out] += t.weight(x)
			}
		}

		g.Rounds = append(g.Rounds, round)
	}

	return nil
}

type boostBuilder struct {
	g    *GradientBoosting
	X    [][]float64
	grad []float64
	hess []float64
	tree *RegressionTree
}

func (b *boostBuilder) sums(idx []int) (gs, hs float64) {
	for _, i := range idx {
		gs += b.grad[i]
		hs += b.hess[i]
	}
	return gs, hs
}

func (b *boostBuilder) score(gs, hs float64) float64 {
	return gs * gs / (hs + b.g.Lambda)
}

func (b *boostBuilder) grow(idx []int, depth int) int {
	t := b.tree
	gs, hs := b.sums(idx)

	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: -1})

	leaf := func() int {
		t.Nodes[self].Value = []float64{b.g.LearningRate * gs / (hs + b.g.Lambda)}
		return self
	}

	if depth >= b.g.MaxDepth || len(idx) < 2 {
		return leaf()
	}

	parent := b.score(gs, hs)

	var (
		bestGain    float64
		bestFeature = -1
		bestThresh  float64
	)

	sorted := slices.Clone(idx)
	for f := range b.g.NFeatures {
		slices.SortStableFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.X[a][f], b.X[c][f])
		})

		var gl, hl float64
		for p := 1; p < len(sorted); p++ {
			gl += b.grad[sorted[p-1]]
			hl += b.hess[sorted[p-1]]

			lo, hi := b.X[sorted[p-1]][f], b.X[sorted[p]][f]
			if !(lo < hi) {
				continue
			}

			hr := hs - hl
			if hl < b.g.MinChildWeight || hr < b.g.MinChildWeight {
				continue
			}

			gain := 0.5 * (b.score(gl, hl) + b.score(gs-gl, hr) - parent)
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThresh = lo + (hi-lo)/2
				if bestThresh == hi {
					bestThresh = lo
				}
			}
		}
	}

	if bestFeature < 0 {
		return leaf()
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][bestFeature] <= bestThresh {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	t.Nodes[self] = Node{Feature: bestFeature, Threshold: bestThresh, Left: l, Right: r}

	return self
}

func (t *RegressionTree) weight(x []float64) float64 {
	n := &t.Nodes[0]
	for n.Feature >= 0 {
		if x[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n.Value[0]
}

// PredictProba returns sigmoid or softmax probabilities of the summed
// tree weights.
func (g *GradientBoosting) PredictProba(X [][]float64) ([][]float64, error) {
	if len(g.Rounds) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkPredict(X, g.NFeatures); err != nil {
		return nil, err
	}

	k := g.outputs()
	out := make([][]float64, len(X))

	for i, x := range X {
		margin := make([]float64, k)
		for _, round := range g.Rounds {
			for o, t := range round {
				margin[o] += t.weight(x)
			}
		}

		if k == 1 {
			p := sigmoid(margin[0])
			out[i] = []float64{1 - p, p}
			continue
		}

		p := make([]float64, k)
		softmax(p, margin)
		out[i] = p
	}

	return out, nil
}

func (g *GradientBoosting) Predict(X [][]float64) ([]int, error) { return predictFromProba(g, X) }

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softmax(dst, x []float64) {
	m := slices.Max(x)
	var sum float64
	for i, v := range x {
		dst[i] = math.Exp(v - m)
		sum += dst[i]
	}
	for i := range dst {
		dst[i] /= sum
	}
}
