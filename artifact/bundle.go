// Package artifact persists frozen atom pools as versioned JSON bundles.
//
// A bundle carries the ordered atoms and the metadata they were built under
// (vocabulary fingerprint or tabular column schema). Training data is never
// part of a bundle. Reading checks the bundle format version against the
// versions this build understands and re-validates every atom.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/tabular"
	"github.com/teranos/selor/version"
	"github.com/teranos/selor/vocab"
)

// FormatVersion is the bundle format written by this build.
const FormatVersion = "1.0.0"

// SupportedFormats is the constraint a bundle's format version must satisfy.
const SupportedFormats = "^1"

// Bundle is the on-disk form of a pool.
type Bundle struct {
	FormatVersion string            `json:"format_version"`
	PoolID        string            `json:"pool_id"`
	Dataset       string            `json:"dataset"`
	Modality      atom.Modality     `json:"modality"`
	Text          *atom.TextMeta    `json:"text,omitempty"`
	Tabular       *atom.TabularMeta `json:"tabular,omitempty"`
	Atoms         []atom.Atom       `json:"atoms"`
	CreatedAt     time.Time         `json:"created_at"`
	CreatedBy     string            `json:"created_by"`
}

// FromPool snapshots a pool into a bundle.
func FromPool(p *atom.Pool) *Bundle {
	meta := p.Meta()
	return &Bundle{
		FormatVersion: FormatVersion,
		PoolID:        p.ID(),
		Dataset:       meta.Dataset,
		Modality:      meta.Modality,
		Text:          meta.Text,
		Tabular:       meta.Tabular,
		Atoms:         p.Atoms(),
		CreatedAt:     time.Now().UTC(),
		CreatedBy:     version.Get().String(),
	}
}

// Pool checks the format version and restores the pool.
func (b *Bundle) Pool() (*atom.Pool, error) {
	if err := CheckFormat(b.FormatVersion); err != nil {
		return nil, err
	}
	meta := atom.Meta{Dataset: b.Dataset, Modality: b.Modality, Text: b.Text, Tabular: b.Tabular}
	if b.Tabular != nil && b.Tabular.Schema != nil && b.Tabular.Schema.Fingerprint() != b.Tabular.Fingerprint {
		return nil, errors.NewSchemaMismatchError("bundle schema does not match its fingerprint %s", b.Tabular.Fingerprint)
	}
	return atom.Restore(b.PoolID, meta, b.Atoms)
}

// CheckFormat verifies that a bundle format version is readable by this build.
func CheckFormat(v string) error {
	ver, err := semver.NewVersion(v)
	if err != nil {
		return errors.NewSchemaMismatchError("invalid bundle format version %q", v)
	}
	constraint, err := semver.NewConstraint(SupportedFormats)
	if err != nil {
		return errors.Wrapf(err, "invalid format constraint %s", SupportedFormats)
	}
	if !constraint.Check(ver) {
		return errors.WithHint(
			errors.NewSchemaMismatchError("bundle format %s, this build reads %s", v, SupportedFormats),
			"rebuild the pool with `selor pool build`")
	}
	return nil
}

// FileName is the conventional bundle name: atom_pool_<dataset> for tabular
// pools, atom_pool_<dataset>_num_atoms_<quota> for text pools.
func FileName(dataset string, modality atom.Modality, quota int) string {
	if modality == atom.ModalityText {
		return fmt.Sprintf("atom_pool_%s_num_atoms_%d.json", dataset, quota)
	}
	return fmt.Sprintf("atom_pool_%s.json", dataset)
}

// Write saves a pool bundle to path, creating parent directories.
func Write(path string, p *atom.Pool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	data, err := json.MarshalIndent(FromPool(p), "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode pool bundle")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write pool bundle %s", path)
	}
	return nil
}

// Read loads a pool bundle.
func Read(path string) (*atom.Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WithHint(errors.NewNotFoundError("pool bundle %s", path),
				"build it first with `selor pool build`")
		}
		return nil, errors.Wrapf(err, "read pool bundle %s", path)
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrapf(err, "decode pool bundle %s", path)
	}
	p, err := b.Pool()
	if err != nil {
		return nil, errors.Wrapf(err, "pool bundle %s", path)
	}
	return p, nil
}

// Verify checks a loaded pool against the vocabulary or schema in use.
// Exactly the one matching the pool modality is consulted.
func Verify(p *atom.Pool, v *vocab.Vocabulary, s *tabular.Schema) error {
	if p.Modality() == atom.ModalityText {
		if v == nil {
			return errors.NewInvalidRequestError("text pool %s needs its vocabulary", p.ID())
		}
		return p.VerifyVocabulary(v)
	}
	if s == nil {
		return errors.NewInvalidRequestError("tabular pool %s needs its column schema", p.ID())
	}
	return p.VerifySchema(s)
}
