package atom

import (
	"math"

	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/tabular"
)

// Modality selects the pool construction strategy and the atom kinds a pool
// may hold.
type Modality string

const (
	ModalityText    Modality = "nlp"
	ModalityTabular Modality = "tab"
)

// TextMeta records the vocabulary a text pool was built under.
type TextMeta struct {
	VocabSize   int      `json:"vocab_size"`
	Fingerprint string   `json:"fingerprint"`
	Fields      []string `json:"fields"`
}

// TabularMeta records the column schema a tabular pool was built under.
type TabularMeta struct {
	Schema      *tabular.Schema `json:"schema"`
	Fingerprint string          `json:"fingerprint"`
}

// Meta is the modality-specific metadata persisted alongside the atoms.
// Exactly one of Text and Tabular is set.
type Meta struct {
	Dataset  string       `json:"dataset"`
	Modality Modality     `json:"modality"`
	Text     *TextMeta    `json:"text,omitempty"`
	Tabular  *TabularMeta `json:"tabular,omitempty"`
}

// Validate checks that the metadata matches its modality.
func (m Meta) Validate() error {
	switch m.Modality {
	case ModalityText:
		if m.Text == nil || m.Tabular != nil {
			return errors.NewInvalidRequestError("text pool needs text metadata only")
		}
		if m.Text.VocabSize <= 0 || len(m.Text.Fields) == 0 {
			return errors.NewInvalidRequestError("text pool needs a vocabulary and at least one field")
		}
	case ModalityTabular:
		if m.Tabular == nil || m.Text != nil || m.Tabular.Schema == nil {
			return errors.NewInvalidRequestError("tabular pool needs a column schema only")
		}
	default:
		return errors.NewNotSupportedError("modality %q", m.Modality)
	}
	return nil
}

// check validates a predicate against the metadata of the pool it is added to.
func (m Meta) check(id int, p Predicate) error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(errors.ErrInvalidAtom, "atom %d: "+format, append([]interface{}{id}, args...)...)
	}

	switch p.(type) {
	case Dummy:
		if id != DummyID {
			return invalid("dummy atom is reserved for id %d", DummyID)
		}
		return nil
	case nil:
		return invalid("missing predicate")
	}

	if id == DummyID {
		return invalid("id %d is reserved for the dummy atom, got %s", DummyID, p.Kind())
	}

	switch p := p.(type) {
	case Text:
		if m.Modality != ModalityText {
			return invalid("text atom in %s pool", m.Modality)
		}
		if p.Word < 0 || p.Word >= m.Text.VocabSize {
			return invalid("word id %d outside vocabulary of %d", p.Word, m.Text.VocabSize)
		}
		if p.Position < 0 || p.Position >= len(m.Text.Fields) {
			return invalid("position %d outside %d fields", p.Position, len(m.Text.Fields))
		}
		if p.Field != m.Text.Fields[p.Position] {
			return invalid("field %q does not match position %d (%q)", p.Field, p.Position, m.Text.Fields[p.Position])
		}
		if !finite(p.Threshold) {
			return invalid("non-finite threshold")
		}
	case Numerical:
		if m.Modality != ModalityTabular {
			return invalid("numerical atom in %s pool", m.Modality)
		}
		if _, ok := m.Tabular.Schema.NumericalColumn(p.Column); !ok {
			return invalid("unknown numerical column %q", p.Column)
		}
		if !finite(p.Threshold) {
			return invalid("non-finite threshold")
		}
	case Categorical:
		if m.Modality != ModalityTabular {
			return invalid("categorical atom in %s pool", m.Modality)
		}
		col, ok := m.Tabular.Schema.CategoricalColumn(p.Column)
		if !ok {
			return invalid("unknown categorical column %q", p.Column)
		}
		if p.Key < 0 || p.Key >= len(col.Keys) {
			return invalid("key %d outside %d categories of %q", p.Key, len(col.Keys), p.Column)
		}
	default:
		return invalid("unsupported predicate %T", p)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
