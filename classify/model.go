package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-spectro/features"
)

// ErrUnknownModel is returned when loading a model file of an unknown kind.
var ErrUnknownModel = errors.New("classify: unknown model kind")

// ModelFile is the exported form of a fitted classifier. Payload holds the
// model's own JSON encoding.
type ModelFile struct {
	Kind     string          `json:"kind"`
	Classes  []string        `json:"classes"`
	Features []string        `json:"features"`
	Scaler   *StandardScaler `json:"scaler,omitempty"`
	Means    []float64       `json:"means,omitempty"`
	Params   Params          `json:"params"`
	Payload  json.RawMessage `json:"payload"`
}

// Save writes m with the class and feature names of ds to path. scaler is
// the transform applied to the training features and may be nil. means
// holds the training column means used to fill missing values, one per
// feature, and may be nil. The file is written next to path and renamed
// into place.
func Save(path string, m Classifier, ds *Dataset, scaler *StandardScaler, means []float64) error {
	if means != nil && len(means) != len(ds.Features) {
		return fmt.Errorf("%w: %d fill means for %d features", ErrShape, len(means), len(ds.Features))
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("classify: encode %s: %w", m.Name(), err)
	}

	data, err := json.MarshalIndent(ModelFile{
		Kind:     m.Name(),
		Classes:  ds.Classes,
		Features: ds.Features,
		Scaler:   scaler,
		Means:    means,
		Params:   m.Params(),
		Payload:  payload,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("classify: encode model file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("classify: create model directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("classify: write model: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("classify: rename model: %w", err)
	}

	return nil
}

// Load reads a model written by Save.
func Load(path string) (Classifier, ModelFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ModelFile{}, fmt.Errorf("classify: read model: %w", err)
	}

	var mf ModelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, ModelFile{}, fmt.Errorf("classify: decode %s: %w", path, err)
	}

	var m Classifier
	switch mf.Kind {
	case "KNN":
		m = &KNN{}
	case "DecisionTree":
		m = &DecisionTree{}
	case "RandomForest":
		m = &RandomForest{}
	case "XGBoost":
		m = &GradientBoosting{}
	default:
		return nil, ModelFile{}, fmt.Errorf("%w: %q", ErrUnknownModel, mf.Kind)
	}

	if err := json.Unmarshal(mf.Payload, m); err != nil {
		return nil, ModelFile{}, fmt.Errorf("classify: decode %s payload: %w", mf.Kind, err)
	}

	return m, mf, nil
}

// ScoreExported scores a labelled feature table with the model at path.
// Columns are matched by name. Missing values are filled with the stored
// training means, or with the table's own column means for files saved
// without them. The stored scaler is applied last.
func ScoreExported(path string, t *features.Table) (Report, error) {
	m, mf, err := Load(path)
	if err != nil {
		return Report{}, err
	}

	cols := make(map[string]int, len(t.Names))
	for j, n := range t.Names {
		cols[n] = j
	}
	order := make([]int, len(mf.Features))
	for k, n := range mf.Features {
		j, ok := cols[n]
		if !ok {
			return Report{}, fmt.Errorf("%w: table lacks feature %q", ErrShape, n)
		}
		order[k] = j
	}

	fill := mf.Means
	if len(fill) != len(order) {
		means := t.ColumnMeans()
		fill = make([]float64, len(order))
		for k, j := range order {
			fill[k] = means[j]
		}
	}

	X := make([][]float64, t.Len())
	for i, row := range t.Rows {
		x := make([]float64, len(order))
		for k, j := range order {
			v := row[j]
			if math.IsNaN(v) {
				v = fill[k]
				if math.IsNaN(v) {
					v = 0
				}
			}
			x[k] = v
		}
		X[i] = x
	}

	if mf.Scaler != nil {
		if X, err = mf.Scaler.Transform(X); err != nil {
			return Report{}, err
		}
	}

	y, err := (&LabelEncoder{Classes: mf.Classes}).Transform(t.Labels)
	if err != nil {
		return Report{}, err
	}

	return ReportFor(m, &Dataset{X: X, Y: y, Classes: mf.Classes, Features: mf.Features})
}
