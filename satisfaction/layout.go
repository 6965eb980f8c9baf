package satisfaction

import (
	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/feature"
	"github.com/teranos/selor/tabular"
)

// Layout tells the builder how atoms resolve to feature matrix columns.
// It is derived from pool metadata, never from the feature matrix itself.
type Layout struct {
	// VocabSize and Fields describe a word-count matrix (text pools).
	VocabSize int
	Fields    int
	// Schema describes a named tabular matrix (tabular pools).
	Schema *tabular.Schema
}

// LayoutFor derives the feature layout of a pool from its metadata.
func LayoutFor(meta atom.Meta) (Layout, error) {
	if err := meta.Validate(); err != nil {
		return Layout{}, err
	}
	if meta.Modality == atom.ModalityText {
		return Layout{VocabSize: meta.Text.VocabSize, Fields: len(meta.Text.Fields)}, nil
	}
	return Layout{Schema: meta.Tabular.Schema}, nil
}

// Check verifies that x has the shape the layout expects.
func (l Layout) Check(x *feature.Matrix) error {
	if l.Schema == nil {
		if want := l.VocabSize * l.Fields; x.Cols() != want {
			return errors.Wrapf(errors.ErrDimensionMismatch,
				"word-count matrix has %d columns, pool expects %d (%d fields × %d words)",
				x.Cols(), want, l.Fields, l.VocabSize)
		}
		return nil
	}
	for _, col := range l.Schema.FeatureColumns() {
		if _, ok := x.Column(col); !ok {
			return errors.Wrapf(errors.ErrDimensionMismatch, "feature matrix has no column %q", col)
		}
	}
	return nil
}

// evaluator returns the satisfaction test of one atom as a function of a
// feature row.
func (l Layout) evaluator(x *feature.Matrix, a atom.Atom) (func(row []float64) bool, error) {
	switch p := a.Predicate.(type) {
	case atom.Dummy:
		return func([]float64) bool { return true }, nil

	case atom.Text:
		if l.Schema != nil {
			return nil, errors.Wrapf(errors.ErrInvalidAtom, "text atom %d against tabular layout", a.ID)
		}
		col := p.Position*l.VocabSize + p.Word
		if col < 0 || col >= x.Cols() {
			return nil, errors.Wrapf(errors.ErrDimensionMismatch, "text atom %d resolves to column %d of %d", a.ID, col, x.Cols())
		}
		if p.Present {
			return func(row []float64) bool { return row[col] >= p.Threshold }, nil
		}
		return func(row []float64) bool { return row[col] < p.Threshold }, nil

	case atom.Numerical:
		if l.Schema == nil {
			return nil, errors.Wrapf(errors.ErrInvalidAtom, "numerical atom %d against word-count layout", a.ID)
		}
		meta, ok := l.Schema.NumericalColumn(p.Column)
		if !ok {
			return nil, errors.Wrapf(errors.ErrInvalidAtom, "atom %d: unknown numerical column %q", a.ID, p.Column)
		}
		col, ok := x.Column(p.Column)
		if !ok {
			return nil, errors.Wrapf(errors.ErrDimensionMismatch, "feature matrix has no column %q", p.Column)
		}
		max := meta.Max
		if p.Bigger {
			return func(row []float64) bool { return row[col]/max >= p.Threshold }, nil
		}
		return func(row []float64) bool { return row[col]/max < p.Threshold }, nil

	case atom.Categorical:
		if l.Schema == nil {
			return nil, errors.Wrapf(errors.ErrInvalidAtom, "categorical atom %d against word-count layout", a.ID)
		}
		name := tabular.OneHotColumn(p.Column, p.Key)
		col, ok := x.Column(name)
		if !ok {
			return nil, errors.Wrapf(errors.ErrDimensionMismatch, "feature matrix has no column %q", name)
		}
		if p.Equal {
			return func(row []float64) bool { return row[col] == 1 }, nil
		}
		return func(row []float64) bool { return row[col] == 0 }, nil
	}
	return nil, errors.Wrapf(errors.ErrInvalidAtom, "atom %d has no predicate", a.ID)
}
