package am

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/selor/errors"
)

// isolate points HOME and the working directory at fresh temp dirs and clears cached config
func isolate(t *testing.T) (home, project string) {
	t.Helper()
	home = t.TempDir()
	project = t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, project)
	Reset()
	t.Cleanup(Reset)
	return home, project
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := LoadWithViper(v)
	require.NoError(t, err)

	assert.Equal(t, "yelp", cfg.Dataset.Name)
	assert.Equal(t, "bert", cfg.Dataset.Base)
	assert.Equal(t, DefaultNumAtoms, cfg.Pool.NumAtoms)
	assert.False(t, cfg.Pool.StrictQuota)
	assert.Equal(t, 0, cfg.Pool.Workers)
	assert.Equal(t, DefaultSaveDir, cfg.Pool.SaveDir)
	assert.Equal(t, DefaultOutputDir, cfg.Explain.OutputDir)
	assert.True(t, cfg.Explain.StoreRuns)
	assert.Equal(t, DefaultDatabasePath, cfg.GetDatabasePath())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Dataset: DatasetConfig{Name: "yelp", Base: "bert"},
			Pool:    PoolConfig{NumAtoms: 10},
		}
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		unsupported bool
	}{
		{name: "text dataset with text base", mutate: func(c *Config) {}},
		{name: "tabular dataset with schema", mutate: func(c *Config) {
			c.Dataset = DatasetConfig{Name: "adult", Base: "dnn", SchemaPath: "adult.toml"}
			c.Pool.NumAtoms = 0
		}},
		{name: "tabular dataset without schema", mutate: func(c *Config) {
			c.Dataset = DatasetConfig{Name: "adult", Base: "dnn"}
		}, wantErr: true},
		{name: "text dataset with tabular base", mutate: func(c *Config) {
			c.Dataset.Base = "dnn"
		}, wantErr: true, unsupported: true},
		{name: "tabular dataset with text base", mutate: func(c *Config) {
			c.Dataset = DatasetConfig{Name: "adult", Base: "roberta", SchemaPath: "adult.toml"}
		}, wantErr: true, unsupported: true},
		{name: "unknown dataset", mutate: func(c *Config) {
			c.Dataset.Name = "imdb"
		}, wantErr: true, unsupported: true},
		{name: "zero quota for text", mutate: func(c *Config) {
			c.Pool.NumAtoms = 0
		}, wantErr: true},
		{name: "negative pool workers", mutate: func(c *Config) {
			c.Pool.Workers = -1
		}, wantErr: true},
		{name: "negative explain workers", mutate: func(c *Config) {
			c.Explain.Workers = -2
		}, wantErr: true},
		{name: "zero workers means GOMAXPROCS", mutate: func(c *Config) {
			c.Pool.Workers = 0
			c.Explain.Workers = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.unsupported, errors.IsNotSupportedError(err))
		})
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Config{
		Dataset: DatasetConfig{Name: "clickbait"},
		Pool:    PoolConfig{SaveDir: "out"},
	}

	assert.Equal(t, filepath.Join("out", "atom_pool"), cfg.PoolDir())
	assert.Equal(t, filepath.Join("out", "atom_tokenizer", "atom_tokenizer_clickbait.json"), cfg.VocabPath())
	assert.Equal(t, filepath.Join("out", "atom_embedding", "atom_embedding_clickbait.json"), cfg.EmbeddingsPath())

	cfg.Dataset.VocabPath = "vocab.json"
	assert.Equal(t, "vocab.json", cfg.VocabPath())

	cfg.Pool.SaveDir = ""
	assert.Equal(t, filepath.Join(DefaultSaveDir, "atom_pool"), cfg.PoolDir())
}

func TestFindProjectConfig(t *testing.T) {
	t.Run("found from subdirectory", func(t *testing.T) {
		root := t.TempDir()
		sub := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(sub, DefaultDirPermissions))
		require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), nil, DefaultFilePermissions))
		chdir(t, sub)

		result := findProjectConfig()
		require.NotEmpty(t, result)
		assert.True(t, filepath.IsAbs(result))
		assert.Equal(t, ConfigFileName, filepath.Base(result))
	})

	t.Run("nearest wins", func(t *testing.T) {
		root := t.TempDir()
		sub := filepath.Join(root, "inner")
		require.NoError(t, os.MkdirAll(sub, DefaultDirPermissions))
		require.NoError(t, os.WriteFile(filepath.Join(root, ConfigFileName), nil, DefaultFilePermissions))
		require.NoError(t, os.WriteFile(filepath.Join(sub, ConfigFileName), nil, DefaultFilePermissions))
		chdir(t, sub)

		assert.Equal(t, sub, filepath.Dir(findProjectConfig()))
	})

	t.Run("no config found", func(t *testing.T) {
		chdir(t, t.TempDir())
		assert.Empty(t, findProjectConfig())
	})
}

func TestLoad_Precedence(t *testing.T) {
	home, project := isolate(t)

	userDir := filepath.Join(home, configDirName)
	require.NoError(t, os.MkdirAll(userDir, DefaultDirPermissions))
	require.NoError(t, os.WriteFile(filepath.Join(userDir, ConfigFileName), []byte(`
[dataset]
name = "clickbait"

[pool]
num_atoms = 100
workers = 2
`), DefaultFilePermissions))

	require.NoError(t, os.WriteFile(filepath.Join(project, ConfigFileName), []byte(`
[pool]
num_atoms = 250
`), DefaultFilePermissions))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "clickbait", cfg.Dataset.Name, "user file value survives")
	assert.Equal(t, 250, cfg.Pool.NumAtoms, "project file wins over user file")
	assert.Equal(t, 2, cfg.Pool.Workers)
	assert.Equal(t, "bert", cfg.Dataset.Base, "default fills the gap")

	assert.Equal(t, SourceProject, ConfigSources["pool.num_atoms"].Source)
	assert.Equal(t, SourceUser, ConfigSources["pool.workers"].Source)
	assert.Contains(t, ConfigSources["dataset.name"].Path, configDirName)
	_, tracked := ConfigSources["dataset.base"]
	assert.False(t, tracked)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	_, project := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(project, ConfigFileName), []byte(`
[database]
path = "project.db"
`), DefaultFilePermissions))
	t.Setenv("SELOR_DATABASE_PATH", "env.db")
	t.Setenv("SELOR_POOL_STRICT_QUOTA", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Database.Path)
	assert.True(t, cfg.Pool.StrictQuota)
}

func TestLoad_Cached(t *testing.T) {
	isolate(t)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)
	assert.Same(t, first, second)

	Reset()
	third, err := Load()
	require.NoError(t, err)
	assert.NotSame(t, first, third)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte(`
[dataset]
name = "adult"
base = "dnn"
schema_path = "adult.toml"
`), DefaultFilePermissions))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "adult", cfg.Dataset.Name)
	assert.Equal(t, DefaultNumAtoms, cfg.Pool.NumAtoms)
	require.NoError(t, cfg.Validate())

	_, err = LoadFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}
