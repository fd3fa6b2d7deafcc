package classify

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
)

// Split criteria.
const (
	CriterionGini    = "gini"
	CriterionEntropy = "entropy"
)

// Node is one node of a fitted tree stored in a flat slice. Leaves have
// Feature -1.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Value     []float64 `json:"v,omitempty"`
}

// DecisionTree is a CART classification tree. Rows with x[Feature] <=
// Threshold go left.
type DecisionTree struct {
	Criterion string `json:"criterion"`

	// MaxDepth 0 grows until leaves are pure.
	MaxDepth int `json:"max_depth"`

	// MinSamplesSplit is the smallest node that is split (default 2).
	MinSamplesSplit int `json:"min_samples_split"`

	// MaxFeatures limits the features drawn per split; 0 uses all.
	MaxFeatures int `json:"max_features,omitempty"`

	Seed uint64 `json:"seed,omitempty"`

	Nodes     []Node `json:"nodes"`
	NFeatures int    `json:"n_features"`
	NClasses  int    `json:"n_classes"`

	rng *rand.Rand
}

// NewDecisionTree builds a tree from criterion and max_depth.
func NewDecisionTree(p Params) (Classifier, error) {
	c, err := p.Str("criterion", CriterionGini)
	if err != nil {
		return nil, err
	}
	d, err := p.Int("max_depth", 0)
	if err != nil {
		return nil, err
	}

	t := &DecisionTree{Criterion: c, MaxDepth: d}
	if err := t.validate(); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *DecisionTree) validate() error {
	switch t.Criterion {
	case CriterionGini, CriterionEntropy:
	default:
		return fmt.Errorf("classify: tree criterion %q", t.Criterion)
	}
	if t.MaxDepth < 0 {
		return fmt.Errorf("classify: max_depth must be >= 0, got %d", t.MaxDepth)
	}
	return nil
}

func (t *DecisionTree) Name() string { return "DecisionTree" }

func (t *DecisionTree) Params() Params {
	return Params{"criterion": t.Criterion, "max_depth": depthParam(t.MaxDepth)}
}

// depthParam reports an unlimited depth as "none".
func depthParam(d int) any {
	if d == 0 {
		return "none"
	}
	return d
}

// Fit grows the tree on X.
func (t *DecisionTree) Fit(X [][]float64, y []int, nClasses int) error {
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return t.fitRows(X, y, nClasses, idx)
}

// fitRows grows the tree on the rows idx; repeated indices weight a row.
func (t *DecisionTree) fitRows(X [][]float64, y []int, nClasses int, idx []int) error {
	if t.Criterion == "" {
		t.Criterion = CriterionGini
	}
	if err := t.validate(); err != nil {
		return err
	}
	nf, err := checkFit(X, y, nClasses)
	if err != nil {
		return err
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	if t.MaxFeatures > 0 && t.rng == nil {
		t.rng = rand.New(rand.NewPCG(t.Seed, t.Seed^0x9e3779b97f4a7c15))
	}

	t.NFeatures = nf
	t.NClasses = nClasses
	t.Nodes = t.Nodes[:0]

	b := &treeBuilder{tree: t, X: X, y: y}
	b.grow(slices.Clone(idx), 0)

	return nil
}

type treeBuilder struct {
	tree *DecisionTree
	X    [][]float64
	y    []int
}

func (b *treeBuilder) counts(idx []int) []float64 {
	c := make([]float64, b.tree.NClasses)
	for _, i := range idx {
		c[b.y[i]]++
	}
	return c
}

func (b *treeBuilder) impurity(c []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	var s float64
	switch b.tree.Criterion {
	case CriterionEntropy:
		for _, v := range c {
			if v > 0 {
				p := v / n
				s -= p * math.Log2(p)
			}
		}
	default:
		s = 1
		for _, v := range c {
			p := v / n
			s -= p * p
		}
	}
	return s
}

// grow appends the subtree for idx and returns its node index.
func (b *treeBuilder) grow(idx []int, depth int) int {
	t := b.tree
	n := float64(len(idx))
	counts := b.counts(idx)
	parent := b.impurity(counts, n)

	self := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Feature: -1})

	leaf := func() int {
		v := make([]float64, len(counts))
		for c := range counts {
			v[c] = counts[c] / n
		}
		t.Nodes[self].Value = v
		return self
	}

	if parent <= 1e-12 || len(idx) < t.MinSamplesSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) {
		return leaf()
	}

	feature, threshold, ok := b.bestSplit(idx, counts, n)
	if !ok {
		return leaf()
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	t.Nodes[self] = Node{Feature: feature, Threshold: threshold, Left: l, Right: r}

	return self
}

func (b *treeBuilder) candidateFeatures() []int {
	t := b.tree
	if t.MaxFeatures <= 0 || t.MaxFeatures >= t.NFeatures {
		all := make([]int, t.NFeatures)
		for f := range all {
			all[f] = f
		}
		return all
	}
	return t.rng.Perm(t.NFeatures)[:t.MaxFeatures]
}

func (b *treeBuilder) bestSplit(idx []int, total []float64, n float64) (int, float64, bool) {
	var (
		bestScore   = math.Inf(1)
		bestFeature = -1
		bestThresh  float64
	)

	sorted := slices.Clone(idx)
	left := make([]float64, len(total))
	right := make([]float64, len(total))

	for _, f := range b.candidateFeatures() {
		slices.SortStableFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.X[a][f], b.X[c][f])
		})

		clear(left)
		copy(right, total)

		for p := 1; p < len(sorted); p++ {
			moved := b.y[sorted[p-1]]
			left[moved]++
			right[moved]--

			lo, hi := b.X[sorted[p-1]][f], b.X[sorted[p]][f]
			if !(lo < hi) {
				continue
			}

			nl := float64(p)
			nr := n - nl
			score := (nl*b.impurity(left, nl) + nr*b.impurity(right, nr)) / n

			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThresh = lo + (hi-lo)/2
				if bestThresh == hi {
					bestThresh = lo
				}
			}
		}
	}

	return bestFeature, bestThresh, bestFeature >= 0
}

// leaf returns the leaf reached by x.
func (t *DecisionTree) leaf(x []float64) *Node {
	n := &t.Nodes[0]
	for n.Feature >= 0 {
		if x[n.Feature] <= n.Threshold {
			n = &t.Nodes[n.Left]
		} else {
			n = &t.Nodes[n.Right]
		}
	}
	return n
}

// PredictProba returns the class frequencies of the reached leaves.
func (t *DecisionTree) PredictProba(X [][]float64) ([][]float64, error) {
	if len(t.Nodes) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkPredict(X, t.NFeatures); err != nil {
		return nil, err
	}

	out := make([][]float64, len(X))
	for i, x := range X {
		out[i] = slices.Clone(t.leaf(x).Value)
	}
	return out, nil
}

func (t *DecisionTree) Predict(X [][]float64) ([]int, error) { return predictFromProba(t, X) }

// Depth returns the depth of the fitted tree; a single leaf has depth 0.
func (t *DecisionTree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}
