package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-spectro/classify"
	"github.com/cwbudde/algo-spectro/features"
	"github.com/cwbudde/algo-spectro/measure/denoise"
)

// SaveFeatures stores every row of t as a sample of run with its feature
// values. Missing values are stored as NULL.
func (s *SQLite) SaveFeatures(ctx context.Context, runID string, t *features.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	sampleStmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run_id, row_index, label, grp) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare samples: %w", err)
	}
	defer sampleStmt.Close()

	featStmt, err := tx.PrepareContext(ctx, `INSERT INTO features (sample_id, name, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare features: %w", err)
	}
	defer featStmt.Close()

	for i, row := range t.Rows {
		var label, group string
		if i < len(t.Labels) {
			label = t.Labels[i]
		}
		if i < len(t.Groups) {
			group = t.Groups[i]
		}

		res, err := sampleStmt.ExecContext(ctx, runID, i, label, group)
		if err != nil {
			return fmt.Errorf("store: insert sample %d: %w", i, err)
		}
		sampleID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: sample id: %w", err)
		}

		for j, v := range row {
			if _, err := featStmt.ExecContext(ctx, sampleID, t.Names[j], nullable(v)); err != nil {
				return fmt.Errorf("store: insert feature %s of sample %d: %w", t.Names[j], i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit features: %w", err)
	}

	s.logger.Info("features saved", slog.String("run", runID), slog.Int("samples", len(t.Rows)))

	return nil
}

// LoadFeatures rebuilds the feature table of run in row order.
func (s *SQLite) LoadFeatures(ctx context.Context, runID string) (*features.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.row_index, s.label, s.grp, f.name, f.value
		FROM samples s JOIN features f ON f.sample_id = s.id
		WHERE s.run_id = ?
		ORDER BY s.row_index, f.rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: query features: %w", err)
	}
	defer rows.Close()

	t := &features.Table{}
	col := make(map[string]int)
	last := -1

	for rows.Next() {
		var (
			idx          int
			label, group sql.NullString
			name         string
			v            sql.NullFloat64
		)
		if err := rows.Scan(&idx, &label, &group, &name, &v); err != nil {
			return nil, fmt.Errorf("store: scan feature: %w", err)
		}

		if idx != last {
			t.Rows = append(t.Rows, nil)
			t.Labels = append(t.Labels, label.String)
			t.Groups = append(t.Groups, group.String)
			last = idx
		}

		j, ok := col[name]
		if !ok {
			j = len(t.Names)
			col[name] = j
			t.Names = append(t.Names, name)
		}

		r := len(t.Rows) - 1
		for len(t.Rows[r]) <= j {
			t.Rows[r] = append(t.Rows[r], 0)
		}
		t.Rows[r][j] = value(v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read features: %w", err)
	}

	return t, nil
}

// Evaluation is one stored metrics row. Dataset names the scored split,
// e.g. "train", "test" or "exported".
type Evaluation struct {
	Dataset string
	Model   string
	Params  string
	CVError float64
	Report  classify.Report
}

// SaveEvaluation stores one evaluation of run. Undefined metrics are
// stored as NULL.
func (s *SQLite) SaveEvaluation(ctx context.Context, runID string, e Evaluation) error {
	r := e.Report

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluations
		    (run_id, dataset, model, params, n, accuracy, cv_error, sensitivity, specificity, precision, recall, f1, auc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, e.Dataset, e.Model, e.Params, r.N,
		nullable(r.Accuracy), nullable(e.CVError),
		nullable(r.Sensitivity), nullable(r.Specificity),
		nullable(r.Precision), nullable(r.Recall), nullable(r.F1), nullable(r.AUC))
	if err != nil {
		return fmt.Errorf("store: insert evaluation: %w", err)
	}

	return nil
}

// ListEvaluations returns the evaluations of run in insertion order.
func (s *SQLite) ListEvaluations(ctx context.Context, runID string) ([]Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dataset, model, params, n, accuracy, cv_error, sensitivity, specificity, precision, recall, f1, auc
		FROM evaluations WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: query evaluations: %w", err)
	}
	defer rows.Close()

	var out []Evaluation
	for rows.Next() {
		var (
			e                                       Evaluation
			params                                  sql.NullString
			acc, cv, sens, spec, prec, rec, f1, auc sql.NullFloat64
		)
		if err := rows.Scan(&e.Dataset, &e.Model, &params, &e.Report.N,
			&acc, &cv, &sens, &spec, &prec, &rec, &f1, &auc); err != nil {
			return nil, fmt.Errorf("store: scan evaluation: %w", err)
		}

		e.Params = params.String
		e.CVError = value(cv)
		e.Report.Accuracy = value(acc)
		e.Report.Error = 1 - e.Report.Accuracy
		e.Report.Sensitivity = value(sens)
		e.Report.Specificity = value(spec)
		e.Report.Precision = value(prec)
		e.Report.Recall = value(rec)
		e.Report.F1 = value(f1)
		e.Report.AUC = value(auc)

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: read evaluations: %w", err)
	}

	return out, nil
}

// SaveTrials stores the outcome of a filter study.
func (s *SQLite) SaveTrials(ctx context.Context, runID string, trials []denoise.Trial) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO filter_trials (run_id, method, params, mse, distortion, snr, spnr, pearson_r, phase_shift, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare trials: %w", err)
	}
	defer stmt.Close()

	for _, tr := range trials {
		var msg sql.NullString
		if tr.Err != nil {
			msg = sql.NullString{String: tr.Err.Error(), Valid: true}
		}
		res := tr.Result
		if _, err := stmt.ExecContext(ctx, runID, string(tr.Method), tr.Params,
			nullable(res.MSE), nullable(res.Distortion), nullable(res.SNR), nullable(res.SPNR),
			nullable(res.PearsonR), res.PhaseShift, msg); err != nil {
			return fmt.Errorf("store: insert trial %s %s: %w", tr.Method, tr.Params, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit trials: %w", err)
	}

	s.logger.Info("filter trials saved", slog.String("run", runID), slog.Int("trials", len(trials)))

	return nil
}

// CountTrials returns how many trials of run are stored, and how many of
// them failed.
func (s *SQLite) CountTrials(ctx context.Context, runID string) (total, failed int, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(error) FROM filter_trials WHERE run_id = ?`, runID).Scan(&total, &failed)
	if err != nil {
		return 0, 0, fmt.Errorf("store: count trials: %w", err)
	}
	return total, failed, nil
}
