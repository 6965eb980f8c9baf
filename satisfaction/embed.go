package satisfaction

import (
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/feature"
)

// embedEps keeps unsupported atoms at a zero embedding instead of NaN.
const embedEps = 1e-8

// AggregateEmbeddings derives one embedding per atom as the mean embedding of
// the training rows that satisfy it: Σ embeddings / (support + 1e-8). The
// result has one row per atom and the embedding width as columns.
func AggregateEmbeddings(m *Matrix, embeddings *feature.Matrix) (*feature.Matrix, error) {
	if embeddings.Rows() != m.rows {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch,
			"%d embedding rows for %d training rows", embeddings.Rows(), m.rows)
	}
	dim := embeddings.Cols()
	out, err := feature.NewMatrix(m.atoms, dim)
	if err != nil {
		return nil, err
	}

	sum := make([]float64, dim)
	for a := 0; a < m.atoms; a++ {
		for i := range sum {
			sum[i] = 0
		}
		col := m.data[a*m.rows : (a+1)*m.rows]
		support := 0
		for r, v := range col {
			if v == 0 {
				continue
			}
			support++
			for j, e := range embeddings.Row(r) {
				sum[j] += e
			}
		}
		for j, s := range sum {
			if err := out.Set(a, j, s/(float64(support)+embedEps)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
