package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/explain"
	"github.com/teranos/selor/logger"
)

const (
	RunInsertQuery = `
		INSERT INTO explanation_runs (id, pool_id, dataset, example_count, created_at)
		VALUES (?, ?, ?, ?, ?)`

	ExplanationInsertQuery = `
		INSERT INTO explanations (run_id, example_id, rank, antecedent, description, coverage, label, prediction)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	ExplanationSelectQuery = `
		SELECT example_id, rank, antecedent, description, coverage, label, prediction
		FROM explanations WHERE run_id = ? ORDER BY example_id, rank`

	AntecedentUsageQuery = `
		SELECT description, COUNT(*) AS uses, MAX(coverage)
		FROM explanations WHERE run_id = ?
		GROUP BY antecedent ORDER BY uses DESC, MIN(example_id), MIN(rank)
		LIMIT ?`
)

// Explanation is one stored (example, rank) explanation.
type Explanation struct {
	ExampleID   int
	Rank        int
	Antecedent  []int
	Description string
	Coverage    float64
	Label       string
	Prediction  string
}

// AntecedentUsage counts how often one antecedent was used in a run.
type AntecedentUsage struct {
	Description string
	Uses        int
	Coverage    float64
}

// SaveRun stores the records of one explanation run against a stored pool
// and returns the run id.
func (s *Store) SaveRun(ctx context.Context, poolID, dataset string, records []*explain.Record) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "begin run transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, RunInsertQuery, runID, poolID, dataset, len(records), time.Now().UTC()); err != nil {
		return "", errors.Wrapf(err, "insert explanation run for pool %s", poolID)
	}

	stmt, err := tx.PrepareContext(ctx, ExplanationInsertQuery)
	if err != nil {
		return "", errors.Wrap(err, "prepare explanation insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if len(r.Antecedents) != len(r.Explanation) {
			return "", errors.NewInvalidRequestError("record %d has %d antecedents for %d explanations",
				r.ID, len(r.Antecedents), len(r.Explanation))
		}
		for rank, ids := range r.Antecedents {
			ante, err := json.Marshal(ids)
			if err != nil {
				return "", err
			}
			if _, err := stmt.ExecContext(ctx, runID, r.ID, rank, string(ante),
				r.Explanation[rank], r.Coverage[rank], r.Label, r.Prediction); err != nil {
				return "", errors.Wrapf(err, "insert explanation %d of example %d", rank, r.ID)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", errors.Wrapf(err, "commit explanation run %s", runID)
	}
	s.logger.Infow("explanation run stored",
		logger.FieldRunID, runID,
		logger.FieldPoolID, poolID,
		logger.FieldCount, len(records))
	return runID, nil
}

// RunExplanations returns the stored explanations of a run ordered by
// example and rank.
func (s *Store) RunExplanations(ctx context.Context, runID string) ([]Explanation, error) {
	rows, err := s.db.QueryContext(ctx, ExplanationSelectQuery, runID)
	if err != nil {
		return nil, errors.Wrapf(err, "query explanations of run %s", runID)
	}
	defer rows.Close()

	var out []Explanation
	for rows.Next() {
		var e Explanation
		var ante string
		if err := rows.Scan(&e.ExampleID, &e.Rank, &ante, &e.Description, &e.Coverage, &e.Label, &e.Prediction); err != nil {
			return nil, errors.Wrap(err, "scan explanation")
		}
		if err := json.Unmarshal([]byte(ante), &e.Antecedent); err != nil {
			return nil, errors.Wrap(err, "decode antecedent")
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate explanations")
	}
	if out == nil {
		if err := s.runExists(ctx, runID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) runExists(ctx context.Context, runID string) error {
	var id string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM explanation_runs WHERE id = ?", runID).Scan(&id)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError("explanation run %s", runID)
	}
	return errors.Wrapf(err, "query explanation run %s", runID)
}

// TopAntecedents returns the most used antecedents of a run.
func (s *Store) TopAntecedents(ctx context.Context, runID string, limit int) ([]AntecedentUsage, error) {
	rows, err := s.db.QueryContext(ctx, AntecedentUsageQuery, runID, limit)
	if err != nil {
		return nil, errors.Wrapf(err, "query antecedent usage of run %s", runID)
	}
	defer rows.Close()

	var out []AntecedentUsage
	for rows.Next() {
		var u AntecedentUsage
		if err := rows.Scan(&u.Description, &u.Uses, &u.Coverage); err != nil {
			return nil, errors.Wrap(err, "scan antecedent usage")
		}
		out = append(out, u)
	}
	return out, errors.Wrap(rows.Err(), "iterate antecedent usage")
}
