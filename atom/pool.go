package atom

import (
	"fmt"

	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/tabular"
	"github.com/teranos/selor/vocab"
)

// Pool is the frozen atom store: the ordered atoms and the metadata they were
// built under. It holds no training data and has no mutators.
type Pool struct {
	id    string
	meta  Meta
	atoms []Atom
}

// Restore rebuilds a pool from persisted atoms. Every atom is re-validated
// against meta and ids must be 0..n-1 in order.
func Restore(id string, meta Meta, atoms []Atom) (*Pool, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if len(atoms) == 0 {
		return nil, errors.Wrap(errors.ErrInvalidAtom, "pool has no dummy atom")
	}
	restored := make([]Atom, len(atoms))
	for i, a := range atoms {
		if a.ID != i {
			return nil, errors.Wrapf(errors.ErrInvalidAtom, "atom at position %d has id %d", i, a.ID)
		}
		if err := meta.check(i, a.Predicate); err != nil {
			return nil, err
		}
		restored[i] = a
	}
	return &Pool{id: id, meta: meta, atoms: restored}, nil
}

// ID returns the pool identifier assigned when it was frozen.
func (p *Pool) ID() string { return p.id }

// Meta returns the pool metadata.
func (p *Pool) Meta() Meta { return p.meta }

// Modality returns the pool modality.
func (p *Pool) Modality() Modality { return p.meta.Modality }

// Dataset returns the dataset name the pool was built for.
func (p *Pool) Dataset() string { return p.meta.Dataset }

// Count returns the number of atoms.
func (p *Pool) Count() int { return len(p.atoms) }

// Atoms returns a copy of the atoms in id order.
func (p *Pool) Atoms() []Atom {
	return append([]Atom(nil), p.atoms...)
}

// Atom looks up an atom by id.
func (p *Pool) Atom(id int) (Atom, error) {
	if id < 0 || id >= len(p.atoms) {
		return Atom{}, errors.NewInvalidRequestError("atom id %d outside pool of %d atoms", id, len(p.atoms))
	}
	return p.atoms[id], nil
}

// CountByKind tallies atoms per kind.
func (p *Pool) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, a := range p.atoms {
		counts[a.Kind()]++
	}
	return counts
}

// Duplicates reports groups of atom ids whose predicates are identical, in
// order of first occurrence. Duplicates are never removed: downstream
// consumers index atoms by id.
func (p *Pool) Duplicates() [][]int {
	seen := make(map[string]int)
	var groups [][]int
	for _, a := range p.atoms {
		key := fmt.Sprintf("%s:%#v", a.Kind(), a.Predicate)
		g, ok := seen[key]
		if !ok {
			seen[key] = len(groups)
			groups = append(groups, []int{a.ID})
			continue
		}
		groups[g] = append(groups[g], a.ID)
	}
	var dups [][]int
	for _, g := range groups {
		if len(g) > 1 {
			dups = append(dups, g)
		}
	}
	return dups
}

// VerifyVocabulary checks that v is the vocabulary the pool was built under.
func (p *Pool) VerifyVocabulary(v *vocab.Vocabulary) error {
	if p.meta.Modality != ModalityText {
		return errors.NewNotSupportedError("vocabulary check on %s pool", p.meta.Modality)
	}
	if v.Size() != p.meta.Text.VocabSize || v.Fingerprint() != p.meta.Text.Fingerprint {
		return errors.WithHint(
			errors.NewSchemaMismatchError("vocabulary %s (%d words) does not match pool vocabulary %s (%d words)",
				v.Fingerprint(), v.Size(), p.meta.Text.Fingerprint, p.meta.Text.VocabSize),
			"rebuild the pool or use the vocabulary file saved next to it")
	}
	return nil
}

// VerifySchema checks that s is the column schema the pool was built under.
func (p *Pool) VerifySchema(s *tabular.Schema) error {
	if p.meta.Modality != ModalityTabular {
		return errors.NewNotSupportedError("schema check on %s pool", p.meta.Modality)
	}
	if got := s.Fingerprint(); got != p.meta.Tabular.Fingerprint {
		return errors.WithHint(
			errors.NewSchemaMismatchError("tabular schema %s does not match pool schema %s", got, p.meta.Tabular.Fingerprint),
			"rebuild the pool against the current schema file")
	}
	return nil
}
