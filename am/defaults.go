package am

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default values
const (
	DefaultDatabasePath = "selor.db"
	DefaultNumAtoms     = 5000
	DefaultSaveDir      = "save_dir"
	DefaultOutputDir    = "result"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dataset.name", "yelp")
	v.SetDefault("dataset.base", "bert")
	v.SetDefault("dataset.train_path", "")
	v.SetDefault("dataset.test_path", "")
	v.SetDefault("dataset.schema_path", "")
	v.SetDefault("dataset.vocab_path", "")

	v.SetDefault("pool.num_atoms", DefaultNumAtoms)
	v.SetDefault("pool.strict_quota", false)
	v.SetDefault("pool.workers", 0) // GOMAXPROCS
	v.SetDefault("pool.save_dir", DefaultSaveDir)

	v.SetDefault("explain.workers", 0)
	v.SetDefault("explain.output_dir", DefaultOutputDir)
	v.SetDefault("explain.outputs_path", "")
	v.SetDefault("explain.store_runs", true)

	v.SetDefault("database.path", DefaultDatabasePath)
}

// BindEnvVars binds the settings most often overridden in scripts to SELOR_* variables
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("dataset.name", "SELOR_DATASET_NAME")
	v.BindEnv("dataset.base", "SELOR_DATASET_BASE")
	v.BindEnv("database.path", "SELOR_DATABASE_PATH")
	v.BindEnv("pool.num_atoms", "SELOR_POOL_NUM_ATOMS")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// PoolDir returns the directory atom pool artifacts are written to
func (c *Config) PoolDir() string {
	return filepath.Join(c.saveDir(), "atom_pool")
}

// VocabPath returns the vocabulary file for the configured dataset
func (c *Config) VocabPath() string {
	if c.Dataset.VocabPath != "" {
		return c.Dataset.VocabPath
	}
	return filepath.Join(c.saveDir(), "atom_tokenizer", fmt.Sprintf("atom_tokenizer_%s.json", c.Dataset.Name))
}

// EmbeddingsPath returns where aggregated atom embeddings are written
func (c *Config) EmbeddingsPath() string {
	return filepath.Join(c.saveDir(), "atom_embedding", fmt.Sprintf("atom_embedding_%s.json", c.Dataset.Name))
}

func (c *Config) saveDir() string {
	if c.Pool.SaveDir == "" {
		return DefaultSaveDir
	}
	return c.Pool.SaveDir
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Dataset: %s/%s, Pool: {NumAtoms: %d, Workers: %d}, Database: %s}",
		c.Dataset.Name, c.Dataset.Base, c.Pool.NumAtoms, c.Pool.Workers, c.Database.Path)
}
