package classify

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// RandomForest averages the class probabilities of CART trees grown on
// bootstrap samples with sqrt(features) candidates per split.
type RandomForest struct {
	NEstimators int    `json:"n_estimators"`
	MaxDepth    int    `json:"max_depth"`
	Criterion   string `json:"criterion"`
	Seed        uint64 `json:"seed"`

	Trees     []*DecisionTree `json:"trees"`
	NFeatures int             `json:"n_features"`
	NClasses  int             `json:"n_classes"`
}

// NewRandomForest builds a forest from n_estimators, max_depth, criterion
// and seed.
func NewRandomForest(p Params) (Classifier, error) {
	n, err := p.Int("n_estimators", 100)
	if err != nil {
		return nil, err
	}
	d, err := p.Int("max_depth", 0)
	if err != nil {
		return nil, err
	}
	c, err := p.Str("criterion", CriterionGini)
	if err != nil {
		return nil, err
	}
	seed, err := p.Int("seed", 0)
	if err != nil {
		return nil, err
	}

	f := &RandomForest{NEstimators: n, MaxDepth: d, Criterion: c, Seed: uint64(seed)}
	if err := f.validate(); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *RandomForest) validate() error {
	if f.NEstimators < 1 {
		return fmt.Errorf("classify: n_estimators must be >= 1, got %d", f.NEstimators)
	}
	return (&DecisionTree{Criterion: f.Criterion, MaxDepth: f.MaxDepth}).validate()
}

func (f *RandomForest) Name() string { return "RandomForest" }

func (f *RandomForest) Params() Params {
	return Params{
		"n_estimators": f.NEstimators,
		"max_depth":    depthParam(f.MaxDepth),
		"criterion":    f.Criterion,
	}
}

// Fit grows NEstimators trees. The same Seed reproduces the same forest.
func (f *RandomForest) Fit(X [][]float64, y []int, nClasses int) error {
	if f.Criterion == "" {
		f.Criterion = CriterionGini
	}
	if err := f.validate(); err != nil {
		return err
	}
	nf, err := checkFit(X, y, nClasses)
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewPCG(f.Seed, 0x5851f42d4c957f2d))
	maxFeatures := max(1, int(math.Sqrt(float64(nf))))

	f.Trees = make([]*DecisionTree, f.NEstimators)
	f.NFeatures = nf
	f.NClasses = nClasses

	boot := make([]int, len(X))
	for t := range f.Trees {
		for i := range boot {
			boot[i] = rng.IntN(len(X))
		}

		tree := &DecisionTree{
			Criterion:   f.Criterion,
			MaxDepth:    f.MaxDepth,
			MaxFeatures: maxFeatures,
			Seed:        rng.Uint64(),
		}
		if err := tree.fitRows(X, y, nClasses, boot); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
		f.Trees[t] = tree
	}

	return nil
}

// PredictProba averages the tree probabilities.
func (f *RandomForest) PredictProba(X [][]float64) ([][]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotFitted
	}
	if err := checkPredict(X, f.NFeatures); err != nil {
		return nil, err
	}

	out := make([][]float64, len(X))
	for i, x := range X {
		p := make([]float64, f.NClasses)
		for _, t := range f.Trees {
			for c, v := range t.leaf(x).Value {
				p[c] += v
			}
		}
		for c := range p {
			p[c] /= float64(len(f.Trees))
		}
		out[i] = p
	}

	return out, nil
}

func (f *RandomForest) Predict(X [][]float64) ([]int, error) { return predictFromProba(f, X) }
