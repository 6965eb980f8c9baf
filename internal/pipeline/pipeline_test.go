package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/teranos/selor/am"
	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/explain"
	selortest "github.com/teranos/selor/internal/testing"
	"github.com/teranos/selor/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	adultCSV     = "../../dataset/testdata/adult.csv"
	adultSchema  = "../../tabular/testdata/adult.toml"
	clickbaitCSV = "../../dataset/testdata/clickbait.csv"
	outputsJSON  = "../../dataset/testdata/outputs.json"
)

func adultConfig(t *testing.T) *am.Config {
	dir := t.TempDir()
	return &am.Config{
		Dataset: am.DatasetConfig{
			Name:       "adult",
			Base:       "dnn",
			TrainPath:  adultCSV,
			TestPath:   adultCSV,
			SchemaPath: adultSchema,
		},
		Pool:    am.PoolConfig{Workers: 2, SaveDir: filepath.Join(dir, "save")},
		Explain: am.ExplainConfig{Workers: 2, OutputDir: filepath.Join(dir, "result")},
	}
}

func clickbaitConfig(t *testing.T) *am.Config {
	dir := t.TempDir()
	return &am.Config{
		Dataset: am.DatasetConfig{
			Name:      "clickbait",
			Base:      "roberta",
			TrainPath: clickbaitCSV,
			TestPath:  clickbaitCSV,
		},
		Pool:    am.PoolConfig{NumAtoms: 3, SaveDir: filepath.Join(dir, "save")},
		Explain: am.ExplainConfig{OutputDir: filepath.Join(dir, "result")},
	}
}

func TestBuildPool_Tabular(t *testing.T) {
	cfg := adultConfig(t)

	result, err := BuildPool(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, "adult", result.Dataset)
	assert.Equal(t, atom.ModalityTabular, result.Modality)
	// 1 + 2·(2+3 thresholds) + 2·(2+3 keys)
	assert.Equal(t, 21, result.AtomCount)
	assert.Equal(t, map[atom.Kind]int{
		atom.KindDummy:       1,
		atom.KindNumerical:   10,
		atom.KindCategorical: 10,
	}, result.AtomsByKind)
	assert.Equal(t, 3, result.TrainingRows)
	assert.Empty(t, result.VocabPath)
	assert.Equal(t, filepath.Join(cfg.Pool.SaveDir, "atom_pool", "atom_pool_adult.json"), result.PoolPath)
	assert.FileExists(t, result.PoolPath)
	assert.Equal(t, 3, result.Matrix.Rows())
	assert.Equal(t, 21, result.Matrix.Atoms())
	assert.False(t, result.EndTime.Before(result.StartTime))
}

func TestBuildPool_Text(t *testing.T) {
	cfg := clickbaitConfig(t)

	result, err := BuildPool(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, atom.ModalityText, result.Modality)
	assert.Equal(t, 4, result.AtomCount, "dummy plus the quota")
	assert.Equal(t, cfg.VocabPath(), result.VocabPath)
	assert.FileExists(t, result.VocabPath)
	assert.Equal(t, "atom_pool_clickbait_num_atoms_3.json", filepath.Base(result.PoolPath))

	first, err := result.Pool.Atom(0)
	require.NoError(t, err)
	assert.Equal(t, atom.KindDummy, first.Kind())
}

func TestBuildPool_StrictQuota(t *testing.T) {
	cfg := clickbaitConfig(t)
	cfg.Pool.NumAtoms = 1000
	cfg.Pool.StrictQuota = true

	_, err := BuildPool(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrQuotaUnderfilled))
	_, statErr := os.Stat(filepath.Join(cfg.PoolDir(), "atom_pool_clickbait_num_atoms_1000.json"))
	assert.True(t, os.IsNotExist(statErr), "no bundle for a failed build")
}

func TestBuildPool_InvalidConfig(t *testing.T) {
	cfg := adultConfig(t)
	cfg.Dataset.Base = "bert"

	_, err := BuildPool(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, errors.IsNotSupportedError(err))
}

func TestRestore(t *testing.T) {
	cfg := clickbaitConfig(t)
	built, err := BuildPool(context.Background(), cfg)
	require.NoError(t, err)

	restored, err := Restore(context.Background(), cfg, "")
	require.NoError(t, err)
	assert.Equal(t, built.PoolID, restored.Pool.ID())
	assert.True(t, built.Matrix.Equal(restored.Matrix), "recomputed matrix matches the one built at construction")

	desc, err := restored.Describer.Describe(0)
	require.NoError(t, err)
	assert.Equal(t, atom.DefaultRule, desc)
}

func TestRestore_Errors(t *testing.T) {
	t.Run("missing bundle", func(t *testing.T) {
		cfg := adultConfig(t)
		_, err := Restore(context.Background(), cfg, "")
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("missing vocabulary", func(t *testing.T) {
		cfg := clickbaitConfig(t)
		_, err := Restore(context.Background(), cfg, "")
		require.Error(t, err)
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("bundle of another dataset", func(t *testing.T) {
		adult := adultConfig(t)
		built, err := BuildPool(context.Background(), adult)
		require.NoError(t, err)

		text := clickbaitConfig(t)
		_, err = BuildPool(context.Background(), text)
		require.NoError(t, err)

		_, err = Restore(context.Background(), text, built.PoolPath)
		require.Error(t, err)
		assert.True(t, errors.IsSchemaMismatchError(err))
	})
}

func TestExplain_Tabular(t *testing.T) {
	cfg := adultConfig(t)
	_, err := BuildPool(context.Background(), cfg)
	require.NoError(t, err)

	result, err := Explain(context.Background(), cfg, "", outputsJSON)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, 2, result.Examples)
	assert.FileExists(t, result.JSONPath)
	assert.FileExists(t, result.TextPath)

	// outputs.json lists example 2 first, then example 0
	first := result.Records[0]
	assert.Equal(t, 2, first.ID)
	assert.Equal(t, "<=50K", first.Label)
	assert.Equal(t, ">50K", first.Prediction)
	assert.Equal(t, []string{"age >= 27.0 & age >= 54.0", atom.DefaultRule}, first.Explanation)
	// every training age is >= 27 and none is >= 54
	assert.Equal(t, []float64{0, 1}, first.Coverage)
	assert.Contains(t, first.Target, "sex: Female")

	second := result.Records[1]
	assert.Equal(t, 0, second.ID)
	assert.Equal(t, []string{"age < 27.0"}, second.Explanation)
	assert.Equal(t, []float64{0}, second.Coverage)

	data, err := os.ReadFile(result.JSONPath)
	require.NoError(t, err)
	var decoded []*explain.Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Len(t, decoded, 2)
}

func TestExplain_NoOutputs(t *testing.T) {
	cfg := adultConfig(t)
	_, err := Explain(context.Background(), cfg, "", "")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestEmbed(t *testing.T) {
	cfg := adultConfig(t)
	_, err := BuildPool(context.Background(), cfg)
	require.NoError(t, err)

	embeddingsPath := filepath.Join(t.TempDir(), "train_embeddings.json")
	require.NoError(t, os.WriteFile(embeddingsPath, []byte(`[[1,0],[0,1],[1,1]]`), 0644))

	result, err := Embed(context.Background(), cfg, "", embeddingsPath, "")
	require.NoError(t, err)
	assert.Equal(t, 21, result.Atoms)
	assert.Equal(t, 2, result.Dimensions)
	assert.Equal(t, cfg.EmbeddingsPath(), result.Path)

	var rows [][]float64
	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 21)
	// the dummy atom is the mean of all three training embeddings
	assert.InDelta(t, 2.0/3.0, rows[0][0], 1e-6)
	assert.InDelta(t, 2.0/3.0, rows[0][1], 1e-6)
	// age >= 54 holds for no row
	assert.Equal(t, []float64{0, 0}, rows[3])
}

func TestEmbed_RowMismatch(t *testing.T) {
	cfg := adultConfig(t)
	_, err := BuildPool(context.Background(), cfg)
	require.NoError(t, err)

	embeddingsPath := filepath.Join(t.TempDir(), "train_embeddings.json")
	require.NoError(t, os.WriteFile(embeddingsPath, []byte(`[[1,0]]`), 0644))

	_, err = Embed(context.Background(), cfg, "", embeddingsPath, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDimensionMismatch))
}

func TestRecordRun(t *testing.T) {
	cfg := adultConfig(t)
	built, err := BuildPool(context.Background(), cfg)
	require.NoError(t, err)

	st := store.New(selortest.CreateTestDB(t))
	ctx := context.Background()

	written, err := EnsurePool(ctx, st, built.Pool, built.Matrix)
	require.NoError(t, err)
	assert.True(t, written)
	written, err = EnsurePool(ctx, st, built.Pool, built.Matrix)
	require.NoError(t, err)
	assert.False(t, written, "second call finds the stored pool")

	result, err := Explain(ctx, cfg, "", outputsJSON)
	require.NoError(t, err)
	runID, err := RecordRun(ctx, st, result)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	stored, err := st.RunExplanations(ctx, runID)
	require.NoError(t, err)
	// example 2 has two antecedents, example 0 one
	assert.Len(t, stored, 3)
}
