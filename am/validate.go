package am

import (
	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/dataset"
	"github.com/teranos/selor/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Unknown dataset/base and modality mismatch are reported as NotSupported
	info, err := dataset.CheckModality(c.Dataset.Name, c.Dataset.Base)
	if err != nil {
		return err
	}

	if info.Modality == atom.ModalityTabular && c.Dataset.SchemaPath == "" {
		return errors.WithHint(
			errors.Newf("dataset.schema_path is required for tabular dataset %q", c.Dataset.Name),
			"point dataset.schema_path at a TOML file describing the numerical and categorical columns")
	}

	// Quota applies to text mining only; tabular enumeration ignores it
	if info.Modality == atom.ModalityText && c.Pool.NumAtoms <= 0 {
		return errors.Newf("pool.num_atoms must be > 0, got %d", c.Pool.NumAtoms)
	}
	if c.Pool.NumAtoms < 0 {
		return errors.Newf("pool.num_atoms must be >= 0, got %d", c.Pool.NumAtoms)
	}

	// Workers: 0 = GOMAXPROCS, negative = invalid
	if c.Pool.Workers < 0 {
		return errors.Newf("pool.workers must be >= 0, got %d", c.Pool.Workers)
	}
	if c.Explain.Workers < 0 {
		return errors.Newf("explain.workers must be >= 0, got %d", c.Explain.Workers)
	}

	// Database path is optional - empty falls back to DefaultDatabasePath
	return nil
}
