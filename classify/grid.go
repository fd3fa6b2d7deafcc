package classify

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Candidate is one model family with its hyperparameter grid.
type Candidate struct {
	Family string
	New    Factory
	Grid   []Params
}

// DefaultCandidates returns the four families with their acquisition
// grids. seed fixes the random forests.
func DefaultCandidates(seed uint64) []Candidate {
	depths := []any{5, 10, 20, 0}

	return []Candidate{
		{
			Family: "KNN",
			New:    NewKNN,
			Grid: ParamGrid(map[string][]any{
				"n_neighbors": {3, 5, 7, 9},
				"weights":     {WeightUniform, WeightDistance},
				"metric":      {MetricEuclidean, MetricManhattan, MetricMinkowski},
			}),
		},
		{
			Family: "DecisionTree",
			New:    NewDecisionTree,
			Grid: ParamGrid(map[string][]any{
				"criterion": {CriterionGini, CriterionEntropy},
				"max_depth": depths,
			}),
		},
		{
			Family: "RandomForest",
			New:    NewRandomForest,
			Grid: ParamGrid(map[string][]any{
				"n_estimators": {50, 100, 200},
				"max_depth":    depths,
				"criterion":    {CriterionGini, CriterionEntropy},
				"seed":         {int(seed)},
			}),
		},
		{
			Family: "XGBoost",
			New:    NewGradientBoosting,
			Grid: ParamGrid(map[string][]any{
				"n_estimators":  {50, 100, 200},
				"max_depth":     {3, 5, 7},
				"learning_rate": {0.01, 0.1, 0.2},
			}),
		},
	}
}

// SearchResult is the best model of one family.
type SearchResult struct {
	Family     string
	Params     Params
	CVScore    float64
	TrainScore float64

	// Penalty is |TrainScore - CVScore|.
	Penalty float64

	// Model is refitted on the whole dataset.
	Model Classifier
}

// GridSearch cross-validates every grid point of every candidate with
// stratified folds and refits each family's best point on all of ds. The
// first point with the highest mean accuracy wins within a family. Grid
// points run concurrently on at most workers goroutines (<= 0 uses
// GOMAXPROCS).
func GridSearch(ctx context.Context, cands []Candidate, ds *Dataset, folds, workers int) ([]SearchResult, error) {
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	split, err := StratifiedKFold(ds.Y, len(ds.Classes), folds)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(cands))

	for _, c := range cands {
		if len(c.Grid) == 0 {
			return nil, fmt.Errorf("classify: %s has an empty grid", c.Family)
		}

		scores := make([]float64, len(c.Grid))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)

		for i, p := range c.Grid {
			g.Go(func() error {
				s, err := CrossValidate(gctx, func() (Classifier, error) { return c.New(p) }, ds, split)
				if err != nil {
					return fmt.Errorf("%s %v: %w", c.Family, p, err)
				}
				scores[i] = s
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		best := 0
		for i, s := range scores {
			if s > scores[best] {
				best = i
			}
		}

		m, err := c.New(c.Grid[best])
		if err != nil {
			return nil, err
		}
		if err := m.Fit(ds.X, ds.Y, len(ds.Classes)); err != nil {
			return nil, fmt.Errorf("%s refit: %w", c.Family, err)
		}
		train, err := Score(m, ds)
		if err != nil {
			return nil, err
		}

		results = append(results, SearchResult{
			Family:     c.Family,
			Params:     c.Grid[best],
			CVScore:    scores[best],
			TrainScore: train,
			Penalty:    math.Abs(train - scores[best]),
			Model:      m,
		})
	}

	return results, nil
}

// SelectBest walks results in order and keeps a result when its CV score
// beats the kept one and its penalty is no worse. It returns false when no
// result has a positive CV score.
func SelectBest(results []SearchResult) (SearchResult, bool) {
	var (
		best        SearchResult
		found       bool
		bestCV      float64
		bestPenalty = math.Inf(1)
	)

	for _, r := range results {
		if r.CVScore > bestCV && r.Penalty <= bestPenalty {
			best, found = r, true
			bestCV = r.CVScore
			bestPenalty = r.Penalty
		}
	}

	return best, found
}
