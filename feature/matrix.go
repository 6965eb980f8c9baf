// Package feature provides the dense feature matrix shared by pool
// construction and satisfaction matrix building.
//
// A Matrix is row-major: rows are samples, columns are features. Columns may
// carry names (tabular datasets) or be addressed purely by index (word-count
// matrices, where column = position*vocabSize + word).
package feature

import (
	"math"

	"github.com/teranos/selor/errors"
)

// Matrix is a row-major matrix of float64 feature values.
type Matrix struct {
	rows, cols int
	data       []float64
	names      []string
	index      map[string]int
}

// NewMatrix creates a rows×cols zero matrix without column names.
func NewMatrix(rows, cols int) (*Matrix, error) {
	if rows < 0 || cols <= 0 {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch, "feature matrix shape %dx%d", rows, cols)
	}
	return &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// NewNamedMatrix creates a zero matrix whose columns are addressable by name.
// Names must be unique.
func NewNamedMatrix(rows int, names []string) (*Matrix, error) {
	m, err := NewMatrix(rows, len(names))
	if err != nil {
		return nil, err
	}
	m.names = append([]string(nil), names...)
	m.index = make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := m.index[name]; dup {
			return nil, errors.NewInvalidRequestError("duplicate feature column %q", name)
		}
		m.index[name] = i
	}
	return m, nil
}

// FromRows builds a named matrix from row slices. Every row must have
// len(names) values.
func FromRows(names []string, rows [][]float64) (*Matrix, error) {
	m, err := NewNamedMatrix(len(rows), names)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != m.cols {
			return nil, errors.Wrapf(errors.ErrDimensionMismatch,
				"row %d has %d values, expected %d", i, len(row), m.cols)
		}
		for j, v := range row {
			if err := m.Set(i, j, v); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Rows returns the number of samples.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of feature columns.
func (m *Matrix) Cols() int { return m.cols }

// Names returns the column names, or nil for an unnamed matrix.
func (m *Matrix) Names() []string {
	return append([]string(nil), m.names...)
}

// Column resolves a column name to its index.
func (m *Matrix) Column(name string) (int, bool) {
	idx, ok := m.index[name]
	return idx, ok
}

func (m *Matrix) offset(row, col int) (int, error) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return 0, errors.NewInvalidRequestError("feature index (%d,%d) out of range %dx%d", row, col, m.rows, m.cols)
	}
	return row*m.cols + col, nil
}

// At returns the value at (row, col).
func (m *Matrix) At(row, col int) (float64, error) {
	idx, err := m.offset(row, col)
	if err != nil {
		return 0, err
	}
	return m.data[idx], nil
}

// Set assigns v at (row, col). NaN and ±Inf are rejected so threshold
// predicates on a column always partition its rows.
func (m *Matrix) Set(row, col int, v float64) error {
	idx, err := m.offset(row, col)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.NewInvalidRequestError("non-finite feature value at (%d,%d)", row, col)
	}
	m.data[idx] = v
	return nil
}

// Add increments the value at (row, col) by delta.
func (m *Matrix) Add(row, col int, delta float64) error {
	idx, err := m.offset(row, col)
	if err != nil {
		return err
	}
	m.data[idx] += delta
	return nil
}

// Row returns a read-only view of one sample. Callers must not modify it.
func (m *Matrix) Row(row int) []float64 {
	return m.data[row*m.cols : (row+1)*m.cols]
}

// ColumnSums returns the total of every column across all rows.
func (m *Matrix) ColumnSums() []float64 {
	sums := make([]float64, m.cols)
	for r := 0; r < m.rows; r++ {
		row := m.Row(r)
		for c, v := range row {
			sums[c] += v
		}
	}
	return sums
}
