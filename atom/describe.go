package atom

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/vocab"
)

// DefaultRule is the rendering of the dummy atom.
const DefaultRule = "(default)"

// Describer renders atoms of one pool as human-readable conditions.
type Describer struct {
	pool  *Pool
	vocab *vocab.Vocabulary
}

// NewDescriber creates a describer. Text pools need the vocabulary they were
// built under; v is ignored for tabular pools.
func NewDescriber(pool *Pool, v *vocab.Vocabulary) (*Describer, error) {
	if pool.Modality() == ModalityText {
		if v == nil {
			return nil, errors.NewInvalidRequestError("describing a text pool needs its vocabulary")
		}
		if err := pool.VerifyVocabulary(v); err != nil {
			return nil, err
		}
	}
	return &Describer{pool: pool, vocab: v}, nil
}

// Describe renders one atom.
func (d *Describer) Describe(id int) (string, error) {
	a, err := d.pool.Atom(id)
	if err != nil {
		return "", err
	}

	switch p := a.Predicate.(type) {
	case Dummy:
		return DefaultRule, nil
	case Text:
		word, _ := d.vocab.Word(p.Word)
		verb := "contains"
		if !p.Present {
			verb = "lacks"
		}
		return fmt.Sprintf("%s %s %q", p.Field, verb, word), nil
	case Numerical:
		col, _ := d.pool.meta.Tabular.Schema.NumericalColumn(p.Column)
		op := ">="
		if !p.Bigger {
			op = "<"
		}
		return fmt.Sprintf("%s %s %s", p.Column, op, formatRaw(p.Threshold*col.Max)), nil
	case Categorical:
		col, _ := d.pool.meta.Tabular.Schema.CategoricalColumn(p.Column)
		op := "="
		if !p.Equal {
			op = "!="
		}
		return fmt.Sprintf("%s %s %s", p.Column, op, col.Keys[p.Key]), nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidAtom, "atom %d has no predicate", id)
	}
}

// Antecedent renders a conjunction in the given order.
func (d *Describer) Antecedent(ids []int) (string, error) {
	if len(ids) == 0 {
		return DefaultRule, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		s, err := d.Describe(id)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, " & "), nil
}

// formatRaw rounds a de-normalized value to one decimal.
func formatRaw(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', 1, 64)
}
