// Package store persists frozen atom pools and explanation runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/logger"
	"github.com/teranos/selor/satisfaction"
)

// Query constants
const (
	PoolInsertQuery = `
		INSERT INTO pools (id, dataset, modality, fingerprint, atom_count, meta, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	AtomInsertQuery = `
		INSERT INTO atoms (pool_id, atom_id, kind, payload, support)
		VALUES (?, ?, ?, ?, ?)`

	PoolSelectQuery = `
		SELECT meta FROM pools WHERE id = ?`

	AtomSelectQuery = `
		SELECT payload FROM atoms WHERE pool_id = ? ORDER BY atom_id`

	LatestPoolQuery = `
		SELECT id FROM pools WHERE dataset = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`

	PoolListQuery = `
		SELECT id, dataset, modality, fingerprint, atom_count, created_at
		FROM pools ORDER BY created_at DESC, rowid DESC`
)

// Store reads and writes pools and explanation runs.
type Store struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

// New creates a store on a migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, logger: logger.ComponentLogger("store")}
}

// PoolSummary is one row of the pool listing.
type PoolSummary struct {
	ID          string
	Dataset     string
	Modality    atom.Modality
	Fingerprint string
	AtomCount   int
	CreatedAt   time.Time
}

func fingerprint(meta atom.Meta) string {
	if meta.Text != nil {
		return meta.Text.Fingerprint
	}
	if meta.Tabular != nil {
		return meta.Tabular.Fingerprint
	}
	return ""
}

// SavePool stores a pool and its atoms in one transaction. When m is not nil
// each atom row also records its training support.
func (s *Store) SavePool(ctx context.Context, p *atom.Pool, m *satisfaction.Matrix) error {
	meta := p.Meta()
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return errors.Wrap(err, "encode pool metadata")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin pool transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, PoolInsertQuery,
		p.ID(), meta.Dataset, string(meta.Modality), fingerprint(meta), p.Count(), string(metaJSON), time.Now().UTC(),
	); err != nil {
		return errors.Wrapf(err, "insert pool %s", p.ID())
	}

	stmt, err := tx.PrepareContext(ctx, AtomInsertQuery)
	if err != nil {
		return errors.Wrap(err, "prepare atom insert")
	}
	defer stmt.Close()

	for _, a := range p.Atoms() {
		payload, err := json.Marshal(a)
		if err != nil {
			return err
		}
		var support sql.NullInt64
		if m != nil {
			n, err := m.Support(a.ID)
			if err != nil {
				return err
			}
			support = sql.NullInt64{Int64: int64(n), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, p.ID(), a.ID, string(a.Kind()), string(payload), support); err != nil {
			return errors.Wrapf(err, "insert atom %d of pool %s", a.ID, p.ID())
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit pool %s", p.ID())
	}
	s.logger.Infow("pool stored",
		logger.FieldPoolID, p.ID(),
		logger.FieldDataset, meta.Dataset,
		logger.FieldAtomCount, p.Count())
	return nil
}

// LoadPool restores a stored pool.
func (s *Store) LoadPool(ctx context.Context, id string) (*atom.Pool, error) {
	var metaJSON string
	err := s.db.QueryRowContext(ctx, PoolSelectQuery, id).Scan(&metaJSON)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("pool %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query pool %s", id)
	}
	var meta atom.Meta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, errors.Wrapf(err, "decode metadata of pool %s", id)
	}

	rows, err := s.db.QueryContext(ctx, AtomSelectQuery, id)
	if err != nil {
		return nil, errors.Wrapf(err, "query atoms of pool %s", id)
	}
	defer rows.Close()

	var atoms []atom.Atom
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.Wrapf(err, "scan atom of pool %s", id)
		}
		var a atom.Atom
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			return nil, errors.Wrapf(err, "decode atom of pool %s", id)
		}
		atoms = append(atoms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate atoms of pool %s", id)
	}
	return atom.Restore(id, meta, atoms)
}

// LatestPool restores the most recently stored pool of a dataset.
func (s *Store) LatestPool(ctx context.Context, dataset string) (*atom.Pool, error) {
	var id string
	err := s.db.QueryRowContext(ctx, LatestPoolQuery, dataset).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, errors.WithHint(errors.NewNotFoundError("no stored pool for dataset %s", dataset),
			"run `selor pool build` first")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query latest pool of %s", dataset)
	}
	return s.LoadPool(ctx, id)
}

// ListPools lists stored pools, newest first.
func (s *Store) ListPools(ctx context.Context) ([]PoolSummary, error) {
	rows, err := s.db.QueryContext(ctx, PoolListQuery)
	if err != nil {
		return nil, errors.Wrap(err, "query pools")
	}
	defer rows.Close()

	var out []PoolSummary
	for rows.Next() {
		var p PoolSummary
		var modality string
		if err := rows.Scan(&p.ID, &p.Dataset, &modality, &p.Fingerprint, &p.AtomCount, &p.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan pool")
		}
		p.Modality = atom.Modality(modality)
		out = append(out, p)
	}
	return out, errors.Wrap(rows.Err(), "iterate pools")
}
