// Package satisfaction builds the dense satisfaction matrix relating every
// training sample to every atom of a frozen pool.
//
// The matrix is a derived artifact of a pure function of (atoms, features):
// it is computed once, in one batch, and never mutated afterwards. Storage is
// column-major so that each atom's satisfaction vector is contiguous; coverage
// and embedding aggregation both walk atom columns.
package satisfaction

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/feature"
	"github.com/teranos/selor/logger"
)

// Matrix is a samples × atoms table of {0,1} satisfaction values.
type Matrix struct {
	rows  int
	atoms int
	data  []uint8 // column-major: data[atom*rows+row]
}

// Build evaluates every atom against every row of x. Atoms are evaluated in
// parallel, at most workers at a time (workers ≤ 0 means GOMAXPROCS). Each
// worker owns the columns it writes.
func Build(ctx context.Context, atoms []atom.Atom, x *feature.Matrix, layout Layout, workers int) (*Matrix, error) {
	if err := layout.Check(x); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	log := logger.LoggerFromContext(ctx).Named("satisfaction")
	start := time.Now()

	m := &Matrix{
		rows:  x.Rows(),
		atoms: len(atoms),
		data:  make([]uint8, x.Rows()*len(atoms)),
	}

	// Resolve all atoms before spawning workers so layout errors surface
	// deterministically.
	evals := make([]func([]float64) bool, len(atoms))
	for i, a := range atoms {
		if a.ID != i {
			return nil, errors.Wrapf(errors.ErrInvalidAtom, "atom at position %d has id %d", i, a.ID)
		}
		eval, err := layout.evaluator(x, a)
		if err != nil {
			return nil, err
		}
		evals[i] = eval
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range evals {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			col := m.data[i*m.rows : (i+1)*m.rows]
			for r := 0; r < m.rows; r++ {
				if evals[i](x.Row(r)) {
					col[r] = 1
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "build satisfaction matrix")
	}

	log.Infow("satisfaction matrix built",
		logger.FieldRows, m.rows,
		logger.FieldAtomCount, m.atoms,
		logger.FieldWorkers, workers,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return m, nil
}

// Rows returns the number of training samples.
func (m *Matrix) Rows() int { return m.rows }

// Atoms returns the number of atoms.
func (m *Matrix) Atoms() int { return m.atoms }

// At reports whether row satisfies atom.
func (m *Matrix) At(row, atomID int) (bool, error) {
	if row < 0 || row >= m.rows || atomID < 0 || atomID >= m.atoms {
		return false, errors.NewInvalidRequestError("cell (%d, %d) outside %dx%d satisfaction matrix", row, atomID, m.rows, m.atoms)
	}
	return m.data[atomID*m.rows+row] == 1, nil
}

// Column returns the satisfaction vector of one atom. The slice is a view
// into the matrix and must not be modified.
func (m *Matrix) Column(atomID int) ([]uint8, error) {
	if atomID < 0 || atomID >= m.atoms {
		return nil, errors.NewInvalidRequestError("atom id %d outside satisfaction matrix of %d atoms", atomID, m.atoms)
	}
	return m.data[atomID*m.rows : (atomID+1)*m.rows], nil
}

// Support returns the number of rows satisfying an atom.
func (m *Matrix) Support(atomID int) (int, error) {
	col, err := m.Column(atomID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, v := range col {
		n += int(v)
	}
	return n, nil
}

// Equal reports whether two matrices have the same shape and values.
func (m *Matrix) Equal(other *Matrix) bool {
	if m.rows != other.rows || m.atoms != other.atoms {
		return false
	}
	for i, v := range m.data {
		if other.data[i] != v {
			return false
		}
	}
	return true
}
