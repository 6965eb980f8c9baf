package pipeline

import (
	"context"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/satisfaction"
	"github.com/teranos/selor/store"
)

// EnsurePool stores p unless a pool with the same id is already stored.
// It reports whether p was written.
func EnsurePool(ctx context.Context, st *store.Store, p *atom.Pool, m *satisfaction.Matrix) (bool, error) {
	_, err := st.LoadPool(ctx, p.ID())
	switch {
	case err == nil:
		return false, nil
	case !errors.IsNotFoundError(err):
		return false, err
	}
	if err := st.SavePool(ctx, p, m); err != nil {
		return false, err
	}
	return true, nil
}

// RecordRun stores an explanation run against its pool, storing the pool
// first when this database has not seen it.
func RecordRun(ctx context.Context, st *store.Store, result *ExplainResult) (string, error) {
	if _, err := EnsurePool(ctx, st, result.Pool, nil); err != nil {
		return "", errors.Wrap(err, "store pool for explanation run")
	}
	return st.SaveRun(ctx, result.PoolID, result.Dataset, result.Records)
}
