package satisfaction

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/feature"
	"github.com/teranos/selor/tabular"
	"github.com/teranos/selor/vocab"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func adultSchema() *tabular.Schema {
	return &tabular.Schema{
		Label:   "income",
		Classes: []string{"<=50K", ">50K"},
		Numerical: []tabular.NumericalColumn{
			{Name: "age", Max: 100, Thresholds: []float64{30, 60}},
		},
		Categorical: []tabular.CategoricalColumn{
			{Name: "sex", Keys: []string{"Female", "Male"}},
		},
	}
}

// adultBuilder returns a builder with every tabular atom of adultSchema:
// dummy, age≥.3, age<.3, age≥.6, age<.6, sex=F, sex!=F, sex=M, sex!=M.
func adultBuilder(t *testing.T) *atom.Builder {
	t.Helper()
	s := adultSchema()
	x, err := feature.FromRows(s.FeatureColumns(), [][]float64{
		{25, 1, 0},
		{30, 0, 1},
		{45, 1, 0},
		{60, 0, 1},
		{80, 0, 1},
	})
	require.NoError(t, err)

	b, err := atom.NewTabularBuilder("adult", x, []int{0, 0, 1, 1, 0}, s)
	require.NoError(t, err)
	_, err = b.AddDummy()
	require.NoError(t, err)
	for _, th := range []float64{0.3, 0.6} {
		_, err = b.AddNumerical("age", true, th)
		require.NoError(t, err)
		_, err = b.AddNumerical("age", false, th)
		require.NoError(t, err)
	}
	for key := 0; key < 2; key++ {
		_, err = b.AddCategorical("sex", true, key)
		require.NoError(t, err)
		_, err = b.AddCategorical("sex", false, key)
		require.NoError(t, err)
	}
	return b
}

func column(t *testing.T, m *Matrix, id int) []uint8 {
	t.Helper()
	col, err := m.Column(id)
	require.NoError(t, err)
	return col
}

func TestBuild_Tabular(t *testing.T) {
	b := adultBuilder(t)
	x := b.Features()
	pool, m, err := Finalize(context.Background(), b, 2)
	require.NoError(t, err)

	assert.Equal(t, x.Rows(), m.Rows())
	assert.Equal(t, pool.Count(), m.Atoms())

	tests := []struct {
		name string
		id   int
		want []uint8
	}{
		{"dummy", 0, []uint8{1, 1, 1, 1, 1}},
		{"age >= 0.3", 1, []uint8{0, 1, 1, 1, 1}},
		{"age < 0.3", 2, []uint8{1, 0, 0, 0, 0}},
		{"age >= 0.6", 3, []uint8{0, 0, 0, 1, 1}},
		{"age < 0.6", 4, []uint8{1, 1, 1, 0, 0}},
		{"sex = Female", 5, []uint8{1, 0, 1, 0, 0}},
		{"sex != Female", 6, []uint8{0, 1, 0, 1, 1}},
		{"sex = Male", 7, []uint8{0, 1, 0, 1, 1}},
		{"sex != Male", 8, []uint8{1, 0, 1, 0, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, column(t, m, tt.id))
		})
	}

	support, err := m.Support(3)
	require.NoError(t, err)
	assert.Equal(t, 2, support)

	ok, err := m.At(0, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = m.At(5, 0)
	assert.True(t, errors.IsInvalidRequestError(err))
	_, err = m.Column(9)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestBuild_PolarityComplement(t *testing.T) {
	b := adultBuilder(t)
	_, m, err := Finalize(context.Background(), b, 0)
	require.NoError(t, err)

	for _, pair := range [][2]int{{1, 2}, {3, 4}, {5, 6}, {7, 8}} {
		pos, neg := column(t, m, pair[0]), column(t, m, pair[1])
		for r := range pos {
			assert.Equal(t, uint8(1), pos[r]^neg[r], "atoms %d/%d row %d", pair[0], pair[1], r)
		}
	}
}

func TestBuild_DummyAllOnes(t *testing.T) {
	for _, rows := range []int{0, 1, 17} {
		x, err := feature.NewNamedMatrix(rows, adultSchema().FeatureColumns())
		require.NoError(t, err)

		m, err := Build(context.Background(), []atom.Atom{{ID: 0, Predicate: atom.Dummy{}}}, x, Layout{Schema: adultSchema()}, 4)
		require.NoError(t, err)

		col := column(t, m, atom.DummyID)
		assert.Len(t, col, rows)
		for _, v := range col {
			assert.Equal(t, uint8(1), v)
		}
	}
}

func TestBuild_Text(t *testing.T) {
	docs := [][]string{
		{"great food", "the food was great"},
		{"bad service", "never again"},
		{"food truck", "great"},
	}
	v := vocab.Build(docs)
	x, err := v.WordCount(docs, 2)
	require.NoError(t, err)

	b, err := atom.NewTextBuilder("clickbait", x, nil, v, []string{"title", "text"})
	require.NoError(t, err)
	_, err = b.AddDummy()
	require.NoError(t, err)
	_, err = b.AddText(v.ID("food"), 0, true, atom.TextThreshold)
	require.NoError(t, err)
	_, err = b.AddText(v.ID("great"), 1, true, atom.TextThreshold)
	require.NoError(t, err)
	_, err = b.AddText(v.ID("great"), 1, false, atom.TextThreshold)
	require.NoError(t, err)

	_, m, err := Finalize(context.Background(), b, 1)
	require.NoError(t, err)

	assert.Equal(t, []uint8{1, 0, 1}, column(t, m, 1), "food in title")
	assert.Equal(t, []uint8{1, 0, 1}, column(t, m, 2), "great in text")
	assert.Equal(t, []uint8{0, 1, 0}, column(t, m, 3), "great absent from text")
}

func TestBuild_WorkerCountDoesNotChangeResult(t *testing.T) {
	b := adultBuilder(t)
	pool, want, err := Finalize(context.Background(), b, 1)
	require.NoError(t, err)

	x, err := feature.FromRows(adultSchema().FeatureColumns(), [][]float64{
		{25, 1, 0}, {30, 0, 1}, {45, 1, 0}, {60, 0, 1}, {80, 0, 1},
	})
	require.NoError(t, err)
	layout, err := LayoutFor(pool.Meta())
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 16} {
		got, err := Build(context.Background(), pool.Atoms(), x, layout, workers)
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "workers=%d", workers)
	}
}

func TestBuild_RoundTripIdentical(t *testing.T) {
	b := adultBuilder(t)
	pool, before, err := Finalize(context.Background(), b, 0)
	require.NoError(t, err)

	data, err := json.Marshal(pool.Atoms())
	require.NoError(t, err)
	var atoms []atom.Atom
	require.NoError(t, json.Unmarshal(data, &atoms))

	restored, err := atom.Restore(pool.ID(), pool.Meta(), atoms)
	require.NoError(t, err)
	assert.Equal(t, pool.Atoms(), restored.Atoms())

	x, err := feature.FromRows(adultSchema().FeatureColumns(), [][]float64{
		{25, 1, 0}, {30, 0, 1}, {45, 1, 0}, {60, 0, 1}, {80, 0, 1},
	})
	require.NoError(t, err)
	layout, err := LayoutFor(restored.Meta())
	require.NoError(t, err)
	after, err := Build(context.Background(), restored.Atoms(), x, layout, 0)
	require.NoError(t, err)

	assert.True(t, before.Equal(after))
}

func TestBuild_Errors(t *testing.T) {
	s := adultSchema()

	t.Run("missing tabular column", func(t *testing.T) {
		x, err := feature.FromRows([]string{"age", "sex_0"}, [][]float64{{1, 1}})
		require.NoError(t, err)
		_, err = Build(context.Background(), nil, x, Layout{Schema: s}, 1)
		assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
	})

	t.Run("word-count width mismatch", func(t *testing.T) {
		x, err := feature.NewMatrix(2, 10)
		require.NoError(t, err)
		_, err = Build(context.Background(), nil, x, Layout{VocabSize: 4, Fields: 2}, 1)
		assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
	})

	t.Run("atom kind against wrong layout", func(t *testing.T) {
		x, err := feature.NewMatrix(2, 8)
		require.NoError(t, err)
		atoms := []atom.Atom{
			{ID: 0, Predicate: atom.Dummy{}},
			{ID: 1, Predicate: atom.Numerical{Column: "age", Bigger: true, Threshold: 0.5}},
		}
		_, err = Build(context.Background(), atoms, x, Layout{VocabSize: 4, Fields: 2}, 1)
		assert.True(t, errors.Is(err, errors.ErrInvalidAtom))
	})

	t.Run("out of order ids", func(t *testing.T) {
		x, err := feature.NewNamedMatrix(1, s.FeatureColumns())
		require.NoError(t, err)
		atoms := []atom.Atom{{ID: 1, Predicate: atom.Dummy{}}}
		_, err = Build(context.Background(), atoms, x, Layout{Schema: s}, 1)
		assert.True(t, errors.Is(err, errors.ErrInvalidAtom))
	})

	t.Run("canceled context", func(t *testing.T) {
		x, err := feature.NewNamedMatrix(3, s.FeatureColumns())
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = Build(ctx, []atom.Atom{{ID: 0, Predicate: atom.Dummy{}}}, x, Layout{Schema: s}, 1)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestFinalize_ReleasesTrainingContext(t *testing.T) {
	b := adultBuilder(t)
	require.NotNil(t, b.Features())

	_, _, err := Finalize(context.Background(), b, 0)
	require.NoError(t, err)

	assert.True(t, b.Frozen())
	assert.Nil(t, b.Features())

	_, err = b.AddDummy()
	assert.True(t, errors.Is(err, errors.ErrFrozen))
	_, _, err = Finalize(context.Background(), b, 0)
	assert.True(t, errors.Is(err, errors.ErrFrozen))
}

func TestAggregateEmbeddings(t *testing.T) {
	b := adultBuilder(t)
	_, m, err := Finalize(context.Background(), b, 0)
	require.NoError(t, err)

	emb, err := feature.FromRows([]string{"e0", "e1"}, [][]float64{
		{1, 0}, {2, 0}, {3, 0}, {4, 10}, {5, 20},
	})
	require.NoError(t, err)

	out, err := AggregateEmbeddings(m, emb)
	require.NoError(t, err)
	assert.Equal(t, m.Atoms(), out.Rows())
	assert.Equal(t, 2, out.Cols())

	// dummy: mean of all rows
	v, err := out.At(0, 0)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, v, 1e-6)

	// age >= 0.6: rows 3 and 4
	v, err = out.At(3, 1)
	require.NoError(t, err)
	assert.InDelta(t, 15.0, v, 1e-6)

	short, err := feature.NewMatrix(2, 2)
	require.NoError(t, err)
	_, err = AggregateEmbeddings(m, short)
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}
