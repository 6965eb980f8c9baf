package atom

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/feature"
	"github.com/teranos/selor/logger"
	"github.com/teranos/selor/tabular"
	"github.com/teranos/selor/vocab"
)

// Training is the transient training context a Builder holds: the feature
// matrix atoms are evaluated against and the label vector. It is handed out
// once by Freeze and must be released once derived artifacts exist.
type Training struct {
	X      *feature.Matrix
	Labels []int
}

// Release drops the references to the training data.
func (t *Training) Release() {
	t.X = nil
	t.Labels = nil
}

// Builder is the mutable, append-only atom store used during pool
// construction. It is not safe for concurrent use.
type Builder struct {
	meta     Meta
	atoms    []Atom
	training *Training
	frozen   bool
	logger   *zap.SugaredLogger
}

// NewTextBuilder creates a builder for a text pool. x must be the word-count
// matrix of v over fields (fields·v.Size() columns).
func NewTextBuilder(dataset string, x *feature.Matrix, labels []int, v *vocab.Vocabulary, fields []string) (*Builder, error) {
	if v == nil {
		return nil, errors.NewInvalidRequestError("text pool needs a vocabulary")
	}
	meta := Meta{
		Dataset:  dataset,
		Modality: ModalityText,
		Text: &TextMeta{
			VocabSize:   v.Size(),
			Fingerprint: v.Fingerprint(),
			Fields:      append([]string(nil), fields...),
		},
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if x.Cols() != len(fields)*v.Size() {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch,
			"word-count matrix has %d columns, expected %d fields × %d words", x.Cols(), len(fields), v.Size())
	}
	return newBuilder(meta, x, labels)
}

// NewTabularBuilder creates a builder for a tabular pool. x must contain every
// feature column of schema by name.
func NewTabularBuilder(dataset string, x *feature.Matrix, labels []int, schema *tabular.Schema) (*Builder, error) {
	if schema == nil {
		return nil, errors.NewInvalidRequestError("tabular pool needs a column schema")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	for _, col := range schema.FeatureColumns() {
		if _, ok := x.Column(col); !ok {
			return nil, errors.Wrapf(errors.ErrDimensionMismatch, "feature matrix has no column %q", col)
		}
	}
	meta := Meta{
		Dataset:  dataset,
		Modality: ModalityTabular,
		Tabular:  &TabularMeta{Schema: schema, Fingerprint: schema.Fingerprint()},
	}
	return newBuilder(meta, x, labels)
}

func newBuilder(meta Meta, x *feature.Matrix, labels []int) (*Builder, error) {
	if labels != nil && len(labels) != x.Rows() {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch,
			"%d labels for %d training rows", len(labels), x.Rows())
	}
	return &Builder{
		meta:     meta,
		training: &Training{X: x, Labels: labels},
		logger:   logger.ComponentLogger("atom"),
	}, nil
}

// Add appends a predicate and returns its id. The first atom must be the
// dummy atom. Duplicates are accepted.
func (b *Builder) Add(p Predicate) (int, error) {
	if b.frozen {
		return 0, errors.Wrap(errors.ErrFrozen, "add atom")
	}
	id := len(b.atoms)
	if err := b.meta.check(id, p); err != nil {
		return 0, err
	}
	b.atoms = append(b.atoms, Atom{ID: id, Predicate: p})
	b.logger.Debugw("atom added", logger.FieldAtomID, id, logger.FieldAtomKind, p.Kind())
	return id, nil
}

// AddDummy adds the always-true atom. It must be the first atom.
func (b *Builder) AddDummy() (int, error) {
	return b.Add(Dummy{})
}

// AddText adds a word-presence atom for word in the field at position.
func (b *Builder) AddText(word, position int, present bool, threshold float64) (int, error) {
	field := ""
	if position >= 0 && position < len(b.meta.Text.Fields) {
		field = b.meta.Text.Fields[position]
	}
	return b.Add(Text{Word: word, Position: position, Field: field, Present: present, Threshold: threshold})
}

// AddNumerical adds a normalized threshold atom on column.
func (b *Builder) AddNumerical(column string, bigger bool, threshold float64) (int, error) {
	return b.Add(Numerical{Column: column, Bigger: bigger, Threshold: threshold})
}

// AddCategorical adds a category presence (equal) or absence atom on column.
func (b *Builder) AddCategorical(column string, equal bool, key int) (int, error) {
	return b.Add(Categorical{Column: column, Equal: equal, Key: key})
}

// Count returns the number of atoms added so far.
func (b *Builder) Count() int { return len(b.atoms) }

// Meta returns the pool metadata.
func (b *Builder) Meta() Meta { return b.meta }

// Features returns the training feature matrix, or nil once frozen.
func (b *Builder) Features() *feature.Matrix {
	if b.training == nil {
		return nil
	}
	return b.training.X
}

// Frozen reports whether Freeze has been called.
func (b *Builder) Frozen() bool { return b.frozen }

// Freeze ends construction. It returns the immutable pool and hands over the
// training context; the builder keeps no reference to either and rejects
// further Add calls. Freeze can succeed only once.
func (b *Builder) Freeze() (*Pool, *Training, error) {
	if b.frozen {
		return nil, nil, errors.Wrap(errors.ErrFrozen, "freeze")
	}
	if len(b.atoms) == 0 {
		return nil, nil, errors.Wrap(errors.ErrInvalidAtom, "pool has no dummy atom")
	}
	b.frozen = true

	pool := &Pool{
		id:    uuid.New().String(),
		meta:  b.meta,
		atoms: b.atoms,
	}
	training := b.training
	b.atoms = nil
	b.training = nil

	b.logger.Infow("atom store frozen",
		logger.FieldPoolID, pool.id,
		logger.FieldAtomCount, pool.Count(),
		logger.FieldModality, pool.meta.Modality)
	return pool, training, nil
}
