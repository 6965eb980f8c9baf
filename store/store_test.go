package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/explain"
	"github.com/teranos/selor/feature"
	selortest "github.com/teranos/selor/internal/testing"
	"github.com/teranos/selor/mining"
	"github.com/teranos/selor/satisfaction"
	"github.com/teranos/selor/tabular"
)

func agePool(t *testing.T) (*atom.Pool, *satisfaction.Matrix) {
	t.Helper()
	s := &tabular.Schema{
		Label:       "income",
		Classes:     []string{"<=50K", ">50K"},
		Numerical:   []tabular.NumericalColumn{{Name: "age", Max: 100, Thresholds: []float64{30, 60}}},
		Categorical: []tabular.CategoricalColumn{{Name: "sex", Keys: []string{"Female", "Male"}}},
	}
	x, err := feature.FromRows(s.FeatureColumns(), [][]float64{
		{25, 1, 0}, {45, 0, 1}, {70, 0, 1},
	})
	require.NoError(t, err)
	b, err := mining.EnumerateTabular(context.Background(), "adult", x, []int{0, 1, 1}, s)
	require.NoError(t, err)
	pool, m, err := satisfaction.Finalize(context.Background(), b, 1)
	require.NoError(t, err)
	return pool, m
}

func TestSaveLoadPool(t *testing.T) {
	ctx := context.Background()
	st := New(selortest.CreateTestDB(t))
	pool, m := agePool(t)

	require.NoError(t, st.SavePool(ctx, pool, m))

	loaded, err := st.LoadPool(ctx, pool.ID())
	require.NoError(t, err)
	assert.Equal(t, pool.Atoms(), loaded.Atoms())
	assert.Equal(t, pool.Meta().Tabular.Fingerprint, loaded.Meta().Tabular.Fingerprint)

	latest, err := st.LatestPool(ctx, "adult")
	require.NoError(t, err)
	assert.Equal(t, pool.ID(), latest.ID())

	pools, err := st.ListPools(ctx)
	require.NoError(t, err)
	require.Len(t, pools, 1)
	assert.Equal(t, atom.ModalityTabular, pools[0].Modality)
	assert.Equal(t, 9, pools[0].AtomCount)

	var support int
	require.NoError(t, st.db.QueryRow(
		"SELECT support FROM atoms WHERE pool_id = ? AND atom_id = 0", pool.ID()).Scan(&support))
	assert.Equal(t, 3, support)
}

func TestLoadPool_NotFound(t *testing.T) {
	ctx := context.Background()
	st := New(selortest.CreateTestDB(t))

	_, err := st.LoadPool(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))

	_, err = st.LatestPool(ctx, "adult")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSaveRun(t *testing.T) {
	ctx := context.Background()
	st := New(selortest.CreateTestDB(t))
	pool, m := agePool(t)
	require.NoError(t, st.SavePool(ctx, pool, m))

	d, err := atom.NewDescriber(pool, nil)
	require.NoError(t, err)
	engine, err := explain.NewEngine(pool, m, []string{"<=50K", ">50K"}, d)
	require.NoError(t, err)

	records, err := engine.ExplainAll(ctx,
		[]explain.Example{{ID: 0, Label: 0}, {ID: 1, Label: 1}},
		[]explain.Output{
			{ID: 0, Antecedents: [][]int{{3}, {0}}, ClassProbs: []float64{0.9, 0.1}},
			{ID: 1, Antecedents: [][]int{{3}}, ClassProbs: []float64{0.2, 0.8}},
		}, 2)
	require.NoError(t, err)

	runID, err := st.SaveRun(ctx, pool.ID(), "adult", records)
	require.NoError(t, err)

	stored, err := st.RunExplanations(ctx, runID)
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, Explanation{
		ExampleID: 0, Rank: 1, Antecedent: []int{0}, Description: atom.DefaultRule,
		Coverage: 1, Label: "<=50K", Prediction: "<=50K",
	}, stored[1])

	top, err := st.TopAntecedents(ctx, runID, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "age >= 60.0", top[0].Description)
	assert.Equal(t, 2, top[0].Uses)

	_, err = st.RunExplanations(ctx, "missing")
	assert.True(t, errors.IsNotFoundError(err))
}

func TestSaveRun_UnknownPool(t *testing.T) {
	ctx := context.Background()
	st := New(selortest.CreateTestDB(t))

	_, err := st.SaveRun(ctx, "missing", "adult", nil)
	assert.Error(t, err, "foreign key on pool_id")
}

func TestSavePool_Sqlmock(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	defer db.Close()

	pool, _ := agePool(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO pools`).
		WithArgs(pool.ID(), "adult", "tab", pool.Meta().Tabular.Fingerprint, pool.Count(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare(`INSERT INTO atoms`)
	mock.ExpectExec(`INSERT INTO atoms`).
		WithArgs(pool.ID(), 0, "dummy", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err = New(db).SavePool(context.Background(), pool, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert atom 0")

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}
