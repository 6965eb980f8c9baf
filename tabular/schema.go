// Package tabular describes the column types and normalization metadata of a
// tabular dataset: which columns are numerical (with their maximum and the
// candidate thresholds) and which are categorical (with their ordered keys,
// one-hot encoded as "<column>_<key index>").
package tabular

import (
	"crypto/sha256"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mr-tron/base58"

	"github.com/teranos/selor/errors"
)

// NumericalColumn is a continuous feature normalized by Max.
// Thresholds are raw values; atoms use Threshold/Max.
type NumericalColumn struct {
	Name       string    `toml:"name" json:"name"`
	Max        float64   `toml:"max" json:"max"`
	Thresholds []float64 `toml:"thresholds" json:"thresholds"`
}

// CategoricalColumn is a one-hot encoded feature. Keys[i] is the label of
// category index i.
type CategoricalColumn struct {
	Name string   `toml:"name" json:"name"`
	Keys []string `toml:"keys" json:"keys"`
}

// Schema is the column-type metadata of one tabular dataset.
type Schema struct {
	Label       string              `toml:"label" json:"label"`
	Classes     []string            `toml:"classes" json:"classes"`
	Numerical   []NumericalColumn   `toml:"numerical" json:"numerical"`
	Categorical []CategoricalColumn `toml:"categorical" json:"categorical"`
}

// OneHotColumn returns the feature column name of category key index key.
func OneHotColumn(column string, key int) string {
	return fmt.Sprintf("%s_%d", column, key)
}

// LoadFile reads a schema from a TOML file.
func LoadFile(path string) (*Schema, error) {
	var s Schema
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("tabular schema %s", path)
		}
		return nil, errors.Wrapf(err, "decode tabular schema %s", path)
	}
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "tabular schema %s", path)
	}
	return &s, nil
}

// Validate checks that column names are unique, maxima are positive and
// categorical columns have keys.
func (s *Schema) Validate() error {
	if s.Label == "" {
		return errors.NewInvalidRequestError("label column is required")
	}
	seen := map[string]bool{s.Label: true}
	for _, col := range s.Numerical {
		if col.Name == "" || seen[col.Name] {
			return errors.NewInvalidRequestError("numerical column %q is empty or duplicated", col.Name)
		}
		seen[col.Name] = true
		if !finite(col.Max) || col.Max <= 0 {
			return errors.NewInvalidRequestError("numerical column %q needs a finite max > 0, got %g", col.Name, col.Max)
		}
		for _, th := range col.Thresholds {
			if !finite(th) {
				return errors.NewInvalidRequestError("numerical column %q has non-finite threshold", col.Name)
			}
		}
	}
	for _, col := range s.Categorical {
		if col.Name == "" || seen[col.Name] {
			return errors.NewInvalidRequestError("categorical column %q is empty or duplicated", col.Name)
		}
		seen[col.Name] = true
		if len(col.Keys) == 0 {
			return errors.NewInvalidRequestError("categorical column %q has no keys", col.Name)
		}
	}
	return nil
}

// NumericalColumn looks up a numerical column by name.
func (s *Schema) NumericalColumn(name string) (NumericalColumn, bool) {
	for _, col := range s.Numerical {
		if col.Name == name {
			return col, true
		}
	}
	return NumericalColumn{}, false
}

// CategoricalColumn looks up a categorical column by name.
func (s *Schema) CategoricalColumn(name string) (CategoricalColumn, bool) {
	for _, col := range s.Categorical {
		if col.Name == name {
			return col, true
		}
	}
	return CategoricalColumn{}, false
}

// FeatureColumns lists the feature matrix columns in canonical order:
// numerical columns, then every one-hot column of every categorical column.
func (s *Schema) FeatureColumns() []string {
	var cols []string
	for _, col := range s.Numerical {
		cols = append(cols, col.Name)
	}
	for _, col := range s.Categorical {
		for k := range col.Keys {
			cols = append(cols, OneHotColumn(col.Name, k))
		}
	}
	return cols
}

// ThresholdCount is Σ thresholds over numerical columns.
func (s *Schema) ThresholdCount() int {
	n := 0
	for _, col := range s.Numerical {
		n += len(col.Thresholds)
	}
	return n
}

// KeyCount is Σ keys over categorical columns.
func (s *Schema) KeyCount() int {
	n := 0
	for _, col := range s.Categorical {
		n += len(col.Keys)
	}
	return n
}

// Fingerprint identifies the column layout: base58 of the SHA-256 of a
// canonical rendering of label, classes and every column.
func (s *Schema) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "label=%q\n", s.Label)
	fmt.Fprintf(&b, "classes=%q\n", s.Classes)
	for _, col := range s.Numerical {
		fmt.Fprintf(&b, "num %q max=%s", col.Name, strconv.FormatFloat(col.Max, 'g', -1, 64))
		for _, th := range col.Thresholds {
			b.WriteString(" " + strconv.FormatFloat(th, 'g', -1, 64))
		}
		b.WriteString("\n")
	}
	for _, col := range s.Categorical {
		fmt.Fprintf(&b, "cat %q keys=%q\n", col.Name, col.Keys)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return base58.Encode(sum[:])
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
