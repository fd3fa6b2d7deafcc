package classify

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

// ---------------------------------------------------------------------------
// Cross-validation and grid search
// ---------------------------------------------------------------------------

func TestStratifiedKFold(t *testing.T) {
	folds, err := StratifiedKFold([]int{0, 0, 0, 1, 1, 1}, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(folds) != 3 {
		t.Fatalf("%d folds, want 3", len(folds))
	}

	want := [][]int{{0, 3}, {1, 4}, {2, 5}}
	seen := make([]int, 6)
	for k, f := range folds {
		if !slices.Equal(f.Test, want[k]) {
			t.Errorf("fold %d test = %v, want %v", k, f.Test, want[k])
		}
		if len(f.Train)+len(f.Test) != 6 {
			t.Errorf("fold %d covers %d rows", k, len(f.Train)+len(f.Test))
		}
		for _, i := range f.Test {
			seen[i]++
		}
	}
	for i, n := range seen {
		if n != 1 {
			t.Errorf("row %d tested %d times", i, n)
		}
	}

	if _, err := StratifiedKFold([]int{0, 0, 0, 1, 1}, 2, 3); err == nil {
		t.Fatal("class smaller than the fold count accepted")
	}
	if _, err := StratifiedKFold([]int{0, 1}, 2, 1); err == nil {
		t.Fatal("single fold accepted")
	}
}

func TestParamGrid(t *testing.T) {
	grid := ParamGrid(map[string][]any{
		"b": {"x", "y", "z"},
		"a": {1, 2},
	})

	if len(grid) != 6 {
		t.Fatalf("%d points, want 6", len(grid))
	}
	if grid[0].String() != "{a=1 b=x}" || grid[1].String() != "{a=1 b=y}" || grid[5].String() != "{a=2 b=z}" {
		t.Fatalf("grid order = %v", grid)
	}
}

func TestDefaultCandidates(t *testing.T) {
	want := map[string]int{"KNN": 24, "DecisionTree": 8, "RandomForest": 24, "XGBoost": 27}

	for _, c := range DefaultCandidates(1) {
		if len(c.Grid) != want[c.Family] {
			t.Errorf("%s: %d grid points, want %d", c.Family, len(c.Grid), want[c.Family])
		}
		for _, p := range c.Grid {
			if _, err := c.New(p); err != nil {
				t.Errorf("%s %v: %v", c.Family, p, err)
			}
		}
	}
}

func smallCandidates() []Candidate {
	return []Candidate{
		{
			Family: "KNN",
			New:    NewKNN,
			Grid: ParamGrid(map[string][]any{
				"n_neighbors": {1, 3},
				"weights":     {WeightUniform},
				"metric":      {MetricEuclidean},
			}),
		},
		{
			Family: "DecisionTree",
			New:    NewDecisionTree,
			Grid:   ParamGrid(map[string][]any{"criterion": {CriterionGini, CriterionEntropy}}),
		},
	}
}

func TestGridSearchSeparable(t *testing.T) {
	ds := twoClusters(10)

	results, err := GridSearch(context.Background(), smallCandidates(), ds, 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("%d results, want 2", len(results))
	}

	for _, r := range results {
		if r.CVScore != 1 || r.TrainScore != 1 || r.Penalty != 0 {
			t.Errorf("%s: cv %g train %g penalty %g", r.Family, r.CVScore, r.TrainScore, r.Penalty)
		}
		if r.Model == nil {
			t.Errorf("%s: no refitted model", r.Family)
		}
	}
	// Ties keep the first grid point.
	if got := results[0].Params.String(); got != "{metric=euclidean n_neighbors=1 weights=uniform}" {
		t.Errorf("KNN params = %s", got)
	}

	best, ok := SelectBest(results)
	if !ok || best.Family != "KNN" {
		t.Fatalf("SelectBest = %s, %v", best.Family, ok)
	}
}

func TestGridSearchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GridSearch(ctx, smallCandidates(), twoClusters(10), 5, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestGridSearchEmptyGrid(t *testing.T) {
	cands := []Candidate{{Family: "KNN", New: NewKNN}}
	if _, err := GridSearch(context.Background(), cands, twoClusters(10), 5, 1); err == nil {
		t.Fatal("empty grid accepted")
	}
}

func TestSelectBest(t *testing.T) {
	results := []SearchResult{
		{Family: "KNN", CVScore: 0.90, Penalty: 0.05},
		{Family: "DecisionTree", CVScore: 0.95, Penalty: 0.10},
		{Family: "RandomForest", CVScore: 0.97, Penalty: 0.05},
		{Family: "XGBoost", CVScore: 0.96, Penalty: 0.01},
	}

	best, ok := SelectBest(results)
	if !ok || best.Family != "RandomForest" {
		t.Fatalf("SelectBest = %s, %v; want RandomForest", best.Family, ok)
	}

	if _, ok := SelectBest([]SearchResult{{CVScore: 0}}); ok {
		t.Fatal("zero CV score selected")
	}
	if _, ok := SelectBest(nil); ok {
		t.Fatal("empty results selected")
	}
}

// ---------------------------------------------------------------------------
// Metrics
// ---------------------------------------------------------------------------

func TestNewReportBinary(t *testing.T) {
	yTrue := []int{1, 1, 1, 0, 0}
	yPred := []int{1, 1, 0, 0, 1}
	scores := []float64{0.9, 0.8, 0.3, 0.2, 0.6}

	r := NewReport(yTrue, yPred, scores, 2)

	checks := []struct {
		name      string
		got, want float64
	}{
		{"accuracy", r.Accuracy, 0.6},
		{"error", r.Error, 0.4},
		{"sensitivity", r.Sensitivity, 2.0 / 3},
		{"specificity", r.Specificity, 0.5},
		{"precision", r.Precision, 2.0 / 3},
		{"recall", r.Recall, 2.0 / 3},
		{"f1", r.F1, 2.0 / 3},
		{"auc", r.AUC, 5.0 / 6},
	}
	for _, c := range checks {
		if !almostEqual(c.got, c.want, 1e-12) {
			t.Errorf("%s = %g, want %g", c.name, c.got, c.want)
		}
	}

	if r.Confusion[0][0] != 1 || r.Confusion[0][1] != 1 || r.Confusion[1][0] != 1 || r.Confusion[1][1] != 2 {
		t.Errorf("confusion = %v", r.Confusion)
	}
}

func TestNewReportNoPositivePredictions(t *testing.T) {
	r := NewReport([]int{1, 0}, []int{0, 0}, nil, 2)

	if r.Precision != 0 || r.Recall != 0 || r.F1 != 0 {
		t.Errorf("precision %g recall %g f1 %g, want zeros", r.Precision, r.Recall, r.F1)
	}
	if r.Sensitivity != 0 || r.Specificity != 1 {
		t.Errorf("sensitivity %g specificity %g", r.Sensitivity, r.Specificity)
	}
	if !math.IsNaN(r.AUC) {
		t.Errorf("AUC without scores = %g, want NaN", r.AUC)
	}
}

func TestNewReportUndefined(t *testing.T) {
	onlyNeg := NewReport([]int{0, 0}, []int{0, 1}, []float64{0.1, 0.7}, 2)
	if !math.IsNaN(onlyNeg.Sensitivity) || !math.IsNaN(onlyNeg.AUC) {
		t.Errorf("sensitivity %g auc %g, want NaN", onlyNeg.Sensitivity, onlyNeg.AUC)
	}

	multi := NewReport([]int{0, 1, 2}, []int{0, 1, 1}, nil, 3)
	if !almostEqual(multi.Accuracy, 2.0/3, 1e-12) {
		t.Errorf("accuracy = %g", multi.Accuracy)
	}
	if !math.IsNaN(multi.Sensitivity) || !math.IsNaN(multi.F1) {
		t.Errorf("multiclass binary metrics should be NaN: %+v", multi)
	}
	if multi.Confusion[2][1] != 1 {
		t.Errorf("confusion = %v", multi.Confusion)
	}

	if !math.IsNaN(Accuracy(nil, nil)) {
		t.Error("empty accuracy should be NaN")
	}
}

func TestROCAUCTies(t *testing.T) {
	if got := ROCAUC([]int{0, 1, 0, 1}, []float64{0.5, 0.5, 0.5, 0.5}); got != 0.5 {
		t.Errorf("all ties = %g, want 0.5", got)
	}
	if got := ROCAUC([]int{0, 0, 1, 1}, []float64{0.1, 0.2, 0.8, 0.9}); got != 1 {
		t.Errorf("perfect ranking = %g, want 1", got)
	}
	if got := ROCAUC([]int{1, 1, 0, 0}, []float64{0.1, 0.2, 0.8, 0.9}); got != 0 {
		t.Errorf("inverted ranking = %g, want 0", got)
	}
}

func ExampleROCAUC() {
	yTrue := []int{1, 1, 1, 0, 0}
	scores := []float64{0.9, 0.8, 0.3, 0.2, 0.6}
	fmt.Printf("%.3f\n", ROCAUC(yTrue, scores))
	// Output: 0.833
}

func TestEvaluate(t *testing.T) {
	ds := twoClusters(6)
	m := &KNN{K: 1, Weights: WeightUniform, Metric: MetricEuclidean}
	if err := m.Fit(ds.X, ds.Y, 2); err != nil {
		t.Fatal(err)
	}

	test := &Dataset{
		X:       [][]float64{{0.2, 1.1}, {5.3, 6.1}, {4.9, 5.9}},
		Y:       []int{0, 1, 0},
		Classes: ds.Classes,
	}

	ev, err := Evaluate(m, ds, test, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Model != "KNN" || ev.TrainError != 0 {
		t.Errorf("model %s train error %g", ev.Model, ev.TrainError)
	}
	if !almostEqual(ev.CVError, 0.1, 1e-12) {
		t.Errorf("CV error = %g, want 0.1", ev.CVError)
	}
	if !almostEqual(ev.TestError, 1.0/3, 1e-12) {
		t.Errorf("test error = %g, want 1/3", ev.TestError)
	}
	if ev.Test.Sensitivity != 1 || ev.Test.Specificity != 0.5 {
		t.Errorf("test sensitivity %g specificity %g", ev.Test.Sensitivity, ev.Test.Specificity)
	}
}

// ---------------------------------------------------------------------------
// Partitioning and oversampling
// ---------------------------------------------------------------------------

func TestPartitionByGroup(t *testing.T) {
	labels := []string{"Stone", "Stone", "Stone", "Tissue", "Tissue", "Tissue", "Tissue", "Tissue"}
	groups := []string{"s1", "s1", "s2", "t1", "t2", "t3", "t4", "t4"}

	train, test, err := PartitionByGroup(labels, groups, 50, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatal(err)
	}
	if len(train)+len(test) != len(labels) {
		t.Fatalf("train %v test %v do not cover all rows", train, test)
	}

	side := make(map[string]string)
	trainGroups := map[string]map[string]bool{"Stone": {}, "Tissue": {}}
	for _, i := range train {
		side[groups[i]] += "train "
		trainGroups[labels[i]][groups[i]] = true
	}
	for _, i := range test {
		side[groups[i]] += "test "
	}
	for g, s := range side {
		if s != "train " && s != "train train " && s != "test " && s != "test test " {
			t.Errorf("group %s split across sides: %s", g, s)
		}
	}
	if len(trainGroups["Stone"]) != 1 || len(trainGroups["Tissue"]) != 2 {
		t.Errorf("train groups per class = %v", trainGroups)
	}

	all, none, err := PartitionByGroup(labels, groups, 100, rand.New(rand.NewPCG(1, 2)))
	if err != nil || len(all) != len(labels) || len(none) != 0 {
		t.Fatalf("100%%: train %v test %v err %v", all, none, err)
	}

	if _, _, err := PartitionByGroup(labels, groups[:2], 50, rand.New(rand.NewPCG(1, 2))); !errors.Is(err, ErrShape) {
		t.Fatalf("mismatched err = %v", err)
	}
	if _, _, err := PartitionByGroup(labels, groups, 150, rand.New(rand.NewPCG(1, 2))); err == nil {
		t.Fatal("150% accepted")
	}
}

func TestHoldout(t *testing.T) {
	train, test := Holdout(10, 0.7, rand.New(rand.NewPCG(4, 5)))

	if len(train) != 7 || len(test) != 3 {
		t.Fatalf("sizes %d/%d, want 7/3", len(train), len(test))
	}
	if !slices.IsSorted(train) || !slices.IsSorted(test) {
		t.Fatal("holdout indices not sorted")
	}

	all := slices.Concat(train, test)
	slices.Sort(all)
	for i, v := range all {
		if v != i {
			t.Fatalf("indices %v are not a permutation of 0..9", all)
		}
	}
}

func TestSMOTE(t *testing.T) {
	X := [][]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}, {0.5, 0.5}, {10, 10}, {12, 14}}
	y := []int{0, 0, 0, 0, 0, 1, 1}

	outX, outY, err := SMOTE(X, y, 2, 5, rand.New(rand.NewPCG(7, 8)))
	if err != nil {
		t.Fatal(err)
	}
	if len(outX) != 10 || len(outY) != 10 {
		t.Fatalf("%d rows, want 10", len(outX))
	}

	var counts [2]int
	for _, c := range outY {
		counts[c]++
	}
	if counts != [2]int{5, 5} {
		t.Fatalf("class counts = %v, want [5 5]", counts)
	}

	// Synthetic rows lie on the segment between the two minority rows.
	for _, s := range outX[7:] {
		if s[0] < 10 || s[0] > 12 || !almostEqual(s[1]-10, 2*(s[0]-10), 1e-9) {
			t.Errorf("synthetic row %v off the minority segment", s)
		}
	}

	if _, _, err := SMOTE(X, y, 2, 0, rand.New(rand.NewPCG(7, 8))); err == nil {
		t.Fatal("k = 0 accepted")
	}
}
