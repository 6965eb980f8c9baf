package am

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/selor/errors"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		raw  string
		want interface{}
	}{
		{"500", int64(500)},
		{"1", int64(1)},
		{"true", true},
		{"false", false},
		{"0.5", 0.5},
		{"adult", "adult"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.raw))
		})
	}
}

func TestSetInFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	require.NoError(t, SetInFile(path, "pool.num_atoms", "250"))
	require.NoError(t, SetInFile(path, "dataset.name", "clickbait"))
	require.NoError(t, SetInFile(path, "pool.strict_quota", "true"))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.Pool.NumAtoms)
	assert.Equal(t, "clickbait", cfg.Dataset.Name)
	assert.True(t, cfg.Pool.StrictQuota)

	// one backup per rewrite of an existing file
	_, err = os.Stat(path + ".back1")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".back2")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".back3")
	assert.True(t, os.IsNotExist(err))
}

func TestSetInFile_Rejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)

	for _, key := range []string{"pool", "pool.num_atoms.extra", "pool.unknown", ".path"} {
		t.Run(key, func(t *testing.T) {
			err := SetInFile(path, key, "1")
			require.Error(t, err)
			assert.True(t, errors.IsInvalidRequestError(err))
		})
	}
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing written on rejection")
}

func TestSet_WritesProjectConfig(t *testing.T) {
	_, project := isolate(t)

	path, err := Set("explain.workers", "3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(project, ConfigFileName), path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Explain.Workers)
}

func TestWriteDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	require.NoError(t, WriteDefaults(path))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultNumAtoms, cfg.Pool.NumAtoms)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
}

func TestRender(t *testing.T) {
	settings := map[string]interface{}{
		"pool": map[string]interface{}{"num_atoms": 10},
	}

	out, err := Render(settings, FormatTOML)
	require.NoError(t, err)
	assert.Contains(t, string(out), "[pool]")
	assert.Contains(t, string(out), "num_atoms = 10")

	out, err = Render(settings, FormatJSON)
	require.NoError(t, err)
	var decoded map[string]map[string]int
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, 10, decoded["pool"]["num_atoms"])

	out, err = Render(settings, FormatYAML)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, 10, decoded["pool"]["num_atoms"])

	_, err = Render(settings, "ini")
	require.Error(t, err)
	assert.True(t, errors.IsNotSupportedError(err))
}

func TestDescribeAndKeys(t *testing.T) {
	isolate(t)

	value, err := Describe("pool.num_atoms")
	require.NoError(t, err)
	assert.Equal(t, "5000", value)

	_, err = Describe("pool.nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	keys := Keys()
	assert.Contains(t, keys, "dataset.schema_path")
	assert.Contains(t, keys, "explain.store_runs")
	assert.IsIncreasing(t, keys)
}
