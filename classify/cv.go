package classify

import (
	"context"
	"fmt"
	"slices"
)

// Fold is one train/test split of row indices.
type Fold struct {
	Train []int
	Test  []int
}

// StratifiedKFold splits the rows into k folds that preserve the class
// proportions. Rows of each class are dealt to the folds in order, so the
// split is deterministic. Every class needs at least k rows.
func StratifiedKFold(y []int, nClasses, k int) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("classify: need at least 2 folds, got %d", k)
	}

	byClass := make([][]int, nClasses)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	for c, rows := range byClass {
		if len(rows) > 0 && len(rows) < k {
			return nil, fmt.Errorf("classify: class %d has %d rows, fewer than %d folds", c, len(rows), k)
		}
	}

	assign := make([]int, len(y))
	next := 0
	for _, rows := range byClass {
		for _, i := range rows {
			assign[i] = next % k
			next++
		}
	}

	folds := make([]Fold, k)
	for i, f := range assign {
		for j := range folds {
			if j == f {
				folds[j].Test = append(folds[j].Test, i)
			} else {
				folds[j].Train = append(folds[j].Train, i)
			}
		}
	}

	return folds, nil
}

// Factory builds an unfitted classifier from hyperparameters.
type Factory func(Params) (Classifier, error)

// CrossValidate returns the mean test accuracy of fresh models over folds.
func CrossValidate(ctx context.Context, newModel func() (Classifier, error), ds *Dataset, folds []Fold) (float64, error) {
	var sum float64

	for i, f := range folds {
		if err := ctx.Err(); err != nil {
			return 0, err
		}

		m, err := newModel()
		if err != nil {
			return 0, err
		}

		train, test := ds.Subset(f.Train), ds.Subset(f.Test)
		if err := m.Fit(train.X, train.Y, len(ds.Classes)); err != nil {
			return 0, fmt.Errorf("fold %d: %w", i, err)
		}

		acc, err := Score(m, test)
		if err != nil {
			return 0, fmt.Errorf("fold %d: %w", i, err)
		}
		sum += acc
	}

	return sum / float64(len(folds)), nil
}

// Score returns the accuracy of m on ds.
func Score(m Classifier, ds *Dataset) (float64, error) {
	pred, err := m.Predict(ds.X)
	if err != nil {
		return 0, err
	}
	return Accuracy(ds.Y, pred), nil
}

// ParamGrid expands a grid into every combination. Keys vary slowest in
// sorted order, matching the usual grid-search enumeration.
func ParamGrid(grid map[string][]any) []Params {
	keys := make([]string, 0, len(grid))
	for k := range grid {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := []Params{{}}
	for _, k := range keys {
		var next []Params
		for _, p := range out {
			for _, v := range grid[k] {
				q := make(Params, len(p)+1)
				for pk, pv := range p {
					q[pk] = pv
				}
				q[k] = v
				next = append(next, q)
			}
		}
		out = next
	}

	return out
}
