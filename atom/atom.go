// Package atom defines atoms, the elementary boolean predicates that rules
// are built from, and the store that assigns them ids.
//
// An atom is a tagged union: one payload shape per kind, each carrying only
// the fields that kind needs. Atoms are created through a Builder, which
// assigns ids in insertion order (id 0 is always the dummy atom) and holds the
// training context; freezing the Builder yields an immutable Pool.
package atom

import (
	"encoding/json"

	"github.com/teranos/selor/errors"
)

// Kind names the predicate shape of an atom.
type Kind string

const (
	KindDummy       Kind = "dummy"
	KindText        Kind = "text"
	KindNumerical   Kind = "numerical"
	KindCategorical Kind = "categorical"
)

// DummyID is the id of the always-true default atom.
const DummyID = 0

// TextThreshold is the indicator threshold of text atoms: a count ≥ 0.5
// means the word is present.
const TextThreshold = 0.5

// Predicate is the kind-specific payload of an atom. The set of
// implementations is closed.
type Predicate interface {
	Kind() Kind
	isPredicate()
}

// Dummy is satisfied by every sample.
type Dummy struct{}

// Text tests the count of one vocabulary word inside one position bucket
// (field) of a document.
type Text struct {
	Word      int     `json:"word"`
	Position  int     `json:"position"`
	Field     string  `json:"field"`
	Present   bool    `json:"present"`
	Threshold float64 `json:"threshold"`
}

// Numerical compares a max-normalized column value against Threshold:
// ≥ when Bigger, < otherwise.
type Numerical struct {
	Column    string  `json:"column"`
	Bigger    bool    `json:"bigger"`
	Threshold float64 `json:"threshold"`
}

// Categorical tests the one-hot indicator of category Key in Column:
// equal to 1 when Equal, equal to 0 otherwise.
type Categorical struct {
	Column string `json:"column"`
	Equal  bool   `json:"equal"`
	Key    int    `json:"key"`
}

func (Dummy) Kind() Kind       { return KindDummy }
func (Text) Kind() Kind        { return KindText }
func (Numerical) Kind() Kind   { return KindNumerical }
func (Categorical) Kind() Kind { return KindCategorical }

func (Dummy) isPredicate()       {}
func (Text) isPredicate()        {}
func (Numerical) isPredicate()   {}
func (Categorical) isPredicate() {}

// Atom is an immutable predicate with its store-assigned id.
type Atom struct {
	ID        int
	Predicate Predicate
}

// Kind returns the kind of the atom's predicate.
func (a Atom) Kind() Kind {
	if a.Predicate == nil {
		return ""
	}
	return a.Predicate.Kind()
}

type atomJSON struct {
	ID      int             `json:"id"`
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MarshalJSON encodes the atom as an {id, kind, payload} envelope.
func (a Atom) MarshalJSON() ([]byte, error) {
	env := atomJSON{ID: a.ID, Kind: a.Kind()}
	switch p := a.Predicate.(type) {
	case Dummy:
	case Text, Numerical, Categorical:
		payload, err := json.Marshal(p)
		if err != nil {
			return nil, errors.Wrapf(err, "encode atom %d", a.ID)
		}
		env.Payload = payload
	default:
		return nil, errors.Wrapf(errors.ErrInvalidAtom, "atom %d has no predicate", a.ID)
	}
	return json.Marshal(env)
}

// UnmarshalJSON decodes an {id, kind, payload} envelope.
func (a *Atom) UnmarshalJSON(data []byte) error {
	var env atomJSON
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrap(err, "decode atom")
	}

	var pred Predicate
	switch env.Kind {
	case KindDummy:
		pred = Dummy{}
	case KindText:
		var p Text
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrapf(err, "decode text atom %d", env.ID)
		}
		pred = p
	case KindNumerical:
		var p Numerical
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrapf(err, "decode numerical atom %d", env.ID)
		}
		pred = p
	case KindCategorical:
		var p Categorical
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return errors.Wrapf(err, "decode categorical atom %d", env.ID)
		}
		pred = p
	default:
		return errors.Wrapf(errors.ErrInvalidAtom, "atom %d has unknown kind %q", env.ID, env.Kind)
	}

	*a = Atom{ID: env.ID, Predicate: pred}
	return nil
}
