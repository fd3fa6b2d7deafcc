package classify

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/cwbudde/algo-spectro/features"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// twoClusters returns n rows per class, class 0 around (0.5, 1.2) and
// class 1 around (5.5, 6.2).
func twoClusters(n int) *Dataset {
	ds := &Dataset{
		Classes:  []string{"Stone", "Tissue"},
		Features: []string{"a", "b"},
	}
	for i := range n {
		ds.X = append(ds.X, []float64{0.1 * float64(i), 1 + 0.05*float64(i)})
		ds.Y = append(ds.Y, 0)
	}
	for i := range n {
		ds.X = append(ds.X, []float64{5 + 0.1*float64(i), 6 + 0.05*float64(i)})
		ds.Y = append(ds.Y, 1)
	}
	return ds
}

func fitAndScore(t *testing.T, m Classifier, ds *Dataset) float64 {
	t.Helper()
	if err := m.Fit(ds.X, ds.Y, len(ds.Classes)); err != nil {
		t.Fatalf("%s fit: %v", m.Name(), err)
	}
	acc, err := Score(m, ds)
	if err != nil {
		t.Fatalf("%s score: %v", m.Name(), err)
	}
	return acc
}

func requireProbaRows(t *testing.T, proba [][]float64, n int) {
	t.Helper()
	for i, p := range proba {
		if len(p) != n {
			t.Fatalf("row %d has %d probabilities, want %d", i, len(p), n)
		}
		var sum float64
		for _, v := range p {
			if v < 0 || v > 1 {
				t.Fatalf("row %d probability %g outside [0, 1]", i, v)
			}
			sum += v
		}
		if !almostEqual(sum, 1, 1e-9) {
			t.Fatalf("row %d probabilities sum to %g", i, sum)
		}
	}
}

// ---------------------------------------------------------------------------
// Dataset, encoder, scaler
// ---------------------------------------------------------------------------

func TestLabelEncoder(t *testing.T) {
	enc := NewLabelEncoder([]string{"Tissue", "Stone", "Tissue", "Access Sheath"})

	if want := []string{"Access Sheath", "Stone", "Tissue"}; !slices.Equal(enc.Classes, want) {
		t.Fatalf("Classes = %v, want %v", enc.Classes, want)
	}

	y, err := enc.Transform([]string{"Stone", "Tissue", "Access Sheath"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []int{1, 2, 0}; !slices.Equal(y, want) {
		t.Fatalf("Transform = %v, want %v", y, want)
	}
	if got := enc.Inverse([]int{2, 0, 7}); !slices.Equal(got, []string{"Tissue", "Access Sheath", ""}) {
		t.Fatalf("Inverse = %q", got)
	}

	if _, err := enc.Transform([]string{"Calyx"}); !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("unknown label error = %v, want ErrUnknownClass", err)
	}
}

func TestFromTable(t *testing.T) {
	tbl := &features.Table{
		Names:  []string{"Ratio 1", "AUC_1"},
		Rows:   [][]float64{{1, 2}, {3, 4}, {5, 6}},
		Labels: []string{"Tissue", "Stone", "Tissue"},
	}

	ds, enc, err := FromTable(tbl, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ds.Y, []int{1, 0, 1}) {
		t.Fatalf("Y = %v", ds.Y)
	}
	if !slices.Equal(ds.Features, tbl.Names) || !slices.Equal(enc.Classes, []string{"Stone", "Tissue"}) {
		t.Fatalf("features %v classes %v", ds.Features, enc.Classes)
	}
	if got := ds.ClassCounts(); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("ClassCounts = %v", got)
	}

	tbl.Labels[0] = "Calyx"
	if _, _, err := FromTable(tbl, enc); !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("err = %v, want ErrUnknownClass", err)
	}

	if _, _, err := FromTable(&features.Table{}, nil); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("empty table err = %v", err)
	}
}

func TestDatasetValidate(t *testing.T) {
	ds := twoClusters(3)
	if err := ds.Validate(); err != nil {
		t.Fatal(err)
	}

	ragged := twoClusters(3)
	ragged.X[2] = []float64{1}
	if err := ragged.Validate(); !errors.Is(err, ErrShape) {
		t.Fatalf("ragged err = %v, want ErrShape", err)
	}

	bad := twoClusters(3)
	bad.Y[0] = 5
	if err := bad.Validate(); !errors.Is(err, ErrUnknownClass) {
		t.Fatalf("bad label err = %v, want ErrUnknownClass", err)
	}

	sub := ds.Subset([]int{0, 5})
	if sub.Len() != 2 || sub.Y[0] != 0 || sub.Y[1] != 1 {
		t.Fatalf("Subset = %+v", sub)
	}
}

func TestStandardScaler(t *testing.T) {
	s, err := FitScaler([][]float64{{1, 5}, {3, 5}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(s.Mean, []float64{2, 5}) || !slices.Equal(s.Std, []float64{1, 1}) {
		t.Fatalf("scaler = %+v", s)
	}

	z, err := s.Transform([][]float64{{1, 5}, {3, 7}})
	if err != nil {
		t.Fatal(err)
	}
	want := [][]float64{{-1, 0}, {1, 2}}
	for i := range want {
		if !slices.Equal(z[i], want[i]) {
			t.Fatalf("row %d = %v, want %v", i, z[i], want[i])
		}
	}

	if _, err := s.Transform([][]float64{{1}}); !errors.Is(err, ErrShape) {
		t.Fatalf("short row err = %v", err)
	}
	if _, err := FitScaler(nil); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("empty err = %v", err)
	}
}

func TestParams(t *testing.T) {
	p := Params{"b": "x", "a": 1, "lr": 0.1, "depth": 3.0, "half": 3.5}

	if got := p.String(); got != "{a=1 b=x depth=3 half=3.5 lr=0.1}" {
		t.Fatalf("String = %q", got)
	}
	if v, err := p.Int("depth", 0); err != nil || v != 3 {
		t.Fatalf("Int(depth) = %d, %v", v, err)
	}
	if _, err := p.Int("half", 0); err == nil {
		t.Fatal("non-integral float accepted as int")
	}
	if v, err := p.Float("a", 0); err != nil || v != 1 {
		t.Fatalf("Float(a) = %g, %v", v, err)
	}
	if v, err := p.Str("missing", "def"); err != nil || v != "def" {
		t.Fatalf("Str(missing) = %q, %v", v, err)
	}
	if _, err := p.Str("a", ""); err == nil {
		t.Fatal("int accepted as string")
	}
}

// ---------------------------------------------------------------------------
// Models
// ---------------------------------------------------------------------------

func TestKNNDistances(t *testing.T) {
	a, b := []float64{0, 0}, []float64{3, 4}

	tests := []struct {
		metric string
		p      float64
		want   float64
	}{
		{MetricEuclidean, 2, 5},
		{MetricManhattan, 2, 7},
		{MetricMinkowski, 2, 5},
		{MetricMinkowski, 3, math.Cbrt(91)},
	}

	for _, tc := range tests {
		m := &KNN{K: 1, Weights: WeightUniform, Metric: tc.metric, P: tc.p}
		if got := m.distance(a, b); !almostEqual(got, tc.want, 1e-12) {
			t.Errorf("%s p=%g: distance = %g, want %g", tc.metric, tc.p, got, tc.want)
		}
	}
}

func TestKNNVotes(t *testing.T) {
	X := [][]float64{{0}, {1}, {10}}
	y := []int{0, 0, 1}

	uniform := &KNN{K: 3, Weights: WeightUniform, Metric: MetricEuclidean}
	if err := uniform.Fit(X, y, 2); err != nil {
		t.Fatal(err)
	}
	proba, err := uniform.PredictProba([][]float64{{0}})
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(proba[0][0], 2.0/3, 1e-12) || !almostEqual(proba[0][1], 1.0/3, 1e-12) {
		t.Fatalf("uniform proba = %v", proba[0])
	}

	weighted := &KNN{K: 3, Weights: WeightDistance, Metric: MetricEuclidean}
	if err := weighted.Fit(X, y, 2); err != nil {
		t.Fatal(err)
	}
	proba, err = weighted.PredictProba([][]float64{{0}, {2}})
	if err != nil {
		t.Fatal(err)
	}
	if proba[0][0] != 1 || proba[0][1] != 0 {
		t.Fatalf("exact match proba = %v, want [1 0]", proba[0])
	}
	// Distances 1, 2 and 8 weigh 1, 0.5 and 0.125.
	if want := 0.125 / 1.625; !almostEqual(proba[1][1], want, 1e-12) {
		t.Fatalf("weighted proba = %v, want class 1 %g", proba[1], want)
	}
}

func TestNewKNNValidates(t *testing.T) {
	if _, err := NewKNN(Params{"weights": "inverse"}); err == nil {
		t.Fatal("bad weights accepted")
	}
	if _, err := NewKNN(Params{"metric": "cosine"}); err == nil {
		t.Fatal("bad metric accepted")
	}
	if _, err := NewKNN(Params{"n_neighbors": 0}); err == nil {
		t.Fatal("k = 0 accepted")
	}

	m, err := NewKNN(Params{"n_neighbors": 7, "weights": WeightDistance, "metric": MetricManhattan})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Params().String(); got != "{metric=manhattan n_neighbors=7 weights=distance}" {
		t.Fatalf("Params = %s", got)
	}
}

func TestModelsNotFitted(t *testing.T) {
	models := []Classifier{&KNN{K: 1}, &DecisionTree{}, &RandomForest{}, &GradientBoosting{}}
	for _, m := range models {
		if _, err := m.Predict([][]float64{{1}}); !errors.Is(err, ErrNotFitted) {
			t.Errorf("%s: err = %v, want ErrNotFitted", m.Name(), err)
		}
	}
}

func TestDecisionTreeThreshold(t *testing.T) {
	tree := &DecisionTree{Criterion: CriterionGini}
	if err := tree.Fit([][]float64{{1}, {2}, {3}, {4}}, []int{0, 0, 1, 1}, 2); err != nil {
		t.Fatal(err)
	}

	if len(tree.Nodes) != 3 || tree.Nodes[0].Threshold != 2.5 {
		t.Fatalf("nodes = %+v", tree.Nodes)
	}
	if tree.Depth() != 1 {
		t.Fatalf("Depth = %d, want 1", tree.Depth())
	}

	pred, err := tree.Predict([][]float64{{2.4}, {2.6}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(pred, []int{0, 1}) {
		t.Fatalf("Predict = %v", pred)
	}
}

func TestDecisionTreeXOR(t *testing.T) {
	X := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	y := []int{0, 1, 1, 0}
	ds := &Dataset{X: X, Y: y, Classes: []string{"a", "b"}}

	for _, crit := range []string{CriterionGini, CriterionEntropy} {
		full := &DecisionTree{Criterion: crit}
		if acc := fitAndScore(t, full, ds); acc != 1 {
			t.Errorf("%s: accuracy = %g, want 1", crit, acc)
		}
		if full.Depth() != 2 {
			t.Errorf("%s: depth = %d, want 2", crit, full.Depth())
		}

		stump := &DecisionTree{Criterion: crit, MaxDepth: 1}
		fitAndScore(t, stump, ds)
		if stump.Depth() != 1 {
			t.Errorf("%s: limited depth = %d, want 1", crit, stump.Depth())
		}
		proba, err := stump.PredictProba(X)
		if err != nil {
			t.Fatal(err)
		}
		for i, p := range proba {
			if p[0] != 0.5 || p[1] != 0.5 {
				t.Errorf("%s: stump proba[%d] = %v, want [0.5 0.5]", crit, i, p)
			}
		}
	}
}

func TestTreeParams(t *testing.T) {
	m, err := NewDecisionTree(Params{"criterion": CriterionEntropy})
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Params()["max_depth"]; got != "none" {
		t.Fatalf("max_depth = %v, want none", got)
	}
	if _, err := NewDecisionTree(Params{"criterion": "mse"}); err == nil {
		t.Fatal("bad criterion accepted")
	}
}

func TestRandomForest(t *testing.T) {
	ds := twoClusters(10)

	f := &RandomForest{NEstimators: 15, Criterion: CriterionGini, Seed: 3}
	if acc := fitAndScore(t, f, ds); acc != 1 {
		t.Fatalf("accuracy = %g, want 1", acc)
	}
	if len(f.Trees) != 15 {
		t.Fatalf("%d trees, want 15", len(f.Trees))
	}

	proba, err := f.PredictProba(ds.X)
	if err != nil {
		t.Fatal(err)
	}
	requireProbaRows(t, proba, 2)

	// Same seed, same forest.
	g := &RandomForest{NEstimators: 15, Criterion: CriterionGini, Seed: 3}
	fitAndScore(t, g, ds)
	again, err := g.PredictProba([][]float64{{2.5, 3.5}, {3, 2}})
	if err != nil {
		t.Fatal(err)
	}
	first, _ := f.PredictProba([][]float64{{2.5, 3.5}, {3, 2}})
	for i := range again {
		if !slices.Equal(again[i], first[i]) {
			t.Fatalf("seeded forests differ at row %d: %v vs %v", i, first[i], again[i])
		}
	}
}

func TestGradientBoostingBinary(t *testing.T) {
	ds := twoClusters(10)

	g := &GradientBoosting{NEstimators: 30, MaxDepth: 3, LearningRate: 0.3, Lambda: 1, MinChildWeight: 1}
	if acc := fitAndScore(t, g, ds); acc != 1 {
		t.Fatalf("accuracy = %g, want 1", acc)
	}

	proba, err := g.PredictProba(ds.X)
	if err != nil {
		t.Fatal(err)
	}
	requireProbaRows(t, proba, 2)
	if proba[0][0] <= 0.5 || proba[len(proba)-1][1] <= 0.5 {
		t.Fatalf("edge probabilities %v %v", proba[0], proba[len(proba)-1])
	}
}

func TestGradientBoostingMulticlass(t *testing.T) {
	ds := &Dataset{Classes: []string{"a", "b", "c"}}
	for c := range 3 {
		for i := range 10 {
			ds.X = append(ds.X, []float64{5*float64(c) + 0.1*float64(i)})
			ds.Y = append(ds.Y, c)
		}
	}

	g := &GradientBoosting{NEstimators: 30, MaxDepth: 2, LearningRate: 0.3, Lambda: 1, MinChildWeight: 1}
	if acc := fitAndScore(t, g, ds); acc != 1 {
		t.Fatalf("accuracy = %g, want 1", acc)
	}
	if len(g.Rounds) != 30 || len(g.Rounds[0]) != 3 {
		t.Fatalf("rounds %d x %d, want 30 x 3", len(g.Rounds), len(g.Rounds[0]))
	}

	proba, err := g.PredictProba(ds.X)
	if err != nil {
		t.Fatal(err)
	}
	requireProbaRows(t, proba, 3)

	if err := g.Fit(ds.X, make([]int, len(ds.X)), 1); err == nil {
		t.Fatal("single-class boosting accepted")
	}
}

func TestNewGradientBoostingValidates(t *testing.T) {
	if _, err := NewGradientBoosting(Params{"learning_rate": 0.0}); err == nil {
		t.Fatal("zero learning rate accepted")
	}
	if _, err := NewGradientBoosting(Params{"max_depth": 0}); err == nil {
		t.Fatal("zero depth accepted")
	}

	m, err := NewGradientBoosting(Params{"n_estimators": 50, "max_depth": 3, "learning_rate": 0.1})
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "XGBoost" {
		t.Fatalf("Name = %q", m.Name())
	}
}

func TestFitRejectsBadShapes(t *testing.T) {
	models := []Classifier{
		&KNN{K: 1, Weights: WeightUniform, Metric: MetricEuclidean},
		&DecisionTree{},
		&RandomForest{NEstimators: 2},
		&GradientBoosting{NEstimators: 2, MaxDepth: 2, LearningRate: 0.1},
	}
	for _, m := range models {
		if err := m.Fit(nil, nil, 2); !errors.Is(err, ErrEmptyDataset) {
			t.Errorf("%s empty: err = %v", m.Name(), err)
		}
		if err := m.Fit([][]float64{{1}, {2, 3}}, []int{0, 1}, 2); !errors.Is(err, ErrShape) {
			t.Errorf("%s ragged: err = %v", m.Name(), err)
		}
		if err := m.Fit([][]float64{{1}, {2}}, []int{0, 2}, 2); !errors.Is(err, ErrUnknownClass) {
			t.Errorf("%s label: err = %v", m.Name(), err)
		}
	}
}
