package classify

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Classifier is a trainable multi-class model.
type Classifier interface {
	// Fit trains on X with class indices y in [0, nClasses).
	Fit(X [][]float64, y []int, nClasses int) error

	// Predict returns the most probable class per row.
	Predict(X [][]float64) ([]int, error)

	// PredictProba returns one probability row per input row.
	PredictProba(X [][]float64) ([][]float64, error)

	// Name returns the model family.
	Name() string

	// Params returns the hyperparameters.
	Params() Params
}

// Params holds hyperparameters by name.
type Params map[string]any

// String formats the parameters in key order.
func (p Params) String() string {
	keys := slices.Sorted(maps.Keys(p))

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, p[k])
	}

	return "{" + strings.Join(parts, " ") + "}"
}

// Int returns the integer parameter key or def.
func (p Params) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("classify: parameter %s=%v is not an integer", key, v)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("classify: parameter %s has type %T, want int", key, v)
	}
}

// Float returns the float parameter key or def.
func (p Params) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("classify: parameter %s has type %T, want float", key, v)
	}
}

// Str returns the string parameter key or def.
func (p Params) Str(key, def string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("classify: parameter %s has type %T, want string", key, v)
	}
	return s, nil
}

// argmax returns the index of the largest value, the first on ties.
func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

func predictFromProba(c Classifier, X [][]float64) ([]int, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, p := range proba {
		out[i] = argmax(p)
	}
	return out, nil
}

func checkFit(X [][]float64, y []int, nClasses int) (int, error) {
	if len(X) == 0 {
		return 0, ErrEmptyDataset
	}
	if len(y) != len(X) {
		return 0, fmt.Errorf("%w: %d rows, %d labels", ErrShape, len(X), len(y))
	}
	if nClasses < 1 {
		return 0, fmt.Errorf("classify: need at least one class, got %d", nClasses)
	}

	n := len(X[0])
	for i, row := range X {
		if len(row) != n {
			return 0, fmt.Errorf("%w: row %d has %d features, want %d", ErrShape, i, len(row), n)
		}
		if y[i] < 0 || y[i] >= nClasses {
			return 0, fmt.Errorf("%w: label %d at row %d", ErrUnknownClass, y[i], i)
		}
	}

	return n, nil
}

func checkPredict(X [][]float64, nFeatures int) error {
	for i, row := range X {
		if len(row) != nFeatures {
			return fmt.Errorf("%w: row %d has %d features, model %d", ErrShape, i, len(row), nFeatures)
		}
	}
	return nil
}
