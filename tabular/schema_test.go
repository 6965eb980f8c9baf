package tabular

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/selor/errors"
)

func TestLoadFile(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "adult.toml"))
	require.NoError(t, err)

	assert.Equal(t, "income", s.Label)
	assert.Equal(t, []string{"<=50K", ">50K"}, s.Classes)
	require.Len(t, s.Numerical, 2)
	require.Len(t, s.Categorical, 2)
	assert.Equal(t, 5, s.ThresholdCount())
	assert.Equal(t, 5, s.KeyCount())

	age, ok := s.NumericalColumn("age")
	require.True(t, ok)
	assert.Equal(t, 90.0, age.Max)

	_, ok = s.NumericalColumn("sex")
	assert.False(t, ok)

	wc, ok := s.CategoricalColumn("workclass")
	require.True(t, ok)
	assert.Equal(t, "Self-emp", wc.Keys[1])
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.True(t, errors.IsNotFoundError(err))
}

func TestFeatureColumns(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "adult.toml"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"age", "hours_per_week",
		"sex_0", "sex_1",
		"workclass_0", "workclass_1", "workclass_2",
	}, s.FeatureColumns())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		wantErr bool
	}{
		{
			name:   "minimal",
			schema: Schema{Label: "y"},
		},
		{
			name:    "missing label",
			schema:  Schema{},
			wantErr: true,
		},
		{
			name: "zero max",
			schema: Schema{Label: "y", Numerical: []NumericalColumn{
				{Name: "age", Max: 0},
			}},
			wantErr: true,
		},
		{
			name: "nan threshold",
			schema: Schema{Label: "y", Numerical: []NumericalColumn{
				{Name: "age", Max: 1, Thresholds: []float64{math.NaN()}},
			}},
			wantErr: true,
		},
		{
			name: "duplicate column",
			schema: Schema{Label: "y",
				Numerical:   []NumericalColumn{{Name: "x", Max: 1}},
				Categorical: []CategoricalColumn{{Name: "x", Keys: []string{"a"}}},
			},
			wantErr: true,
		},
		{
			name: "categorical without keys",
			schema: Schema{Label: "y",
				Categorical: []CategoricalColumn{{Name: "c"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if tt.wantErr {
				assert.True(t, errors.IsInvalidRequestError(err), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := Schema{Label: "y", Numerical: []NumericalColumn{{Name: "age", Max: 90, Thresholds: []float64{30}}}}
	b := a
	b.Numerical = []NumericalColumn{{Name: "age", Max: 90, Thresholds: []float64{31}}}

	assert.Equal(t, a.Fingerprint(), a.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, "age_3", OneHotColumn("age", 3))
}
