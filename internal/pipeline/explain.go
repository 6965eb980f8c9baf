package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/teranos/selor/am"
	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/dataset"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/explain"
	"github.com/teranos/selor/logger"
	"github.com/teranos/selor/satisfaction"
)

// ExplainResult summarizes one explanation run
type ExplainResult struct {
	PoolID    string    `json:"pool_id"`
	Dataset   string    `json:"dataset"`
	Examples  int       `json:"examples"`
	JSONPath  string    `json:"json_path"`
	TextPath  string    `json:"text_path"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Records []*explain.Record `json:"-"`
	Pool    *atom.Pool        `json:"-"`
}

// Explain turns the external model outputs for the test file into the
// explanation report. Coverage is measured over the training file.
func Explain(ctx context.Context, cfg *am.Config, poolPath, outputsPath string) (*ExplainResult, error) {
	log := logger.LoggerFromContext(ctx).Named("pipeline")
	result := &ExplainResult{StartTime: time.Now()}

	if outputsPath == "" {
		outputsPath = cfg.Explain.OutputsPath
	}
	if outputsPath == "" {
		return nil, errors.WithHint(errors.NewInvalidRequestError("no model outputs given"),
			"pass --outputs or set explain.outputs_path")
	}

	restored, err := Restore(ctx, cfg, poolPath)
	if err != nil {
		return nil, err
	}

	test, err := restored.Source.Load(cfg.Dataset.TestPath)
	if err != nil {
		return nil, errors.Wrap(err, "load test data")
	}
	outputs, err := dataset.LoadOutputs(outputsPath)
	if err != nil {
		return nil, err
	}
	examples, err := dataset.Select(test.Examples, outputs)
	if err != nil {
		return nil, err
	}

	engine, err := explain.NewEngine(restored.Pool, restored.Matrix, restored.Source.Classes(), restored.Describer)
	if err != nil {
		return nil, err
	}
	records, err := engine.ExplainAll(ctx, examples, outputs, cfg.Explain.Workers)
	if err != nil {
		return nil, err
	}

	if result.JSONPath, result.TextPath, err = explain.WriteReport(cfg.Explain.OutputDir, records); err != nil {
		return nil, err
	}

	result.PoolID = restored.Pool.ID()
	result.Dataset = restored.Pool.Dataset()
	result.Examples = len(records)
	result.Records = records
	result.Pool = restored.Pool
	result.EndTime = time.Now()

	log.Infow("explanations written",
		logger.FieldPoolID, result.PoolID,
		logger.FieldCount, len(records),
		logger.FieldPath, result.JSONPath,
		logger.FieldDurationMS, result.EndTime.Sub(result.StartTime).Milliseconds())
	return result, nil
}

// EmbedResult summarizes one embedding aggregation
type EmbedResult struct {
	PoolID     string `json:"pool_id"`
	Atoms      int    `json:"atoms"`
	Dimensions int    `json:"dimensions"`
	Path       string `json:"path"`
}

// Embed aggregates per-sample training embeddings into one embedding per
// atom and writes them as a JSON array indexed by atom id.
func Embed(ctx context.Context, cfg *am.Config, poolPath, embeddingsPath, outPath string) (*EmbedResult, error) {
	restored, err := Restore(ctx, cfg, poolPath)
	if err != nil {
		return nil, err
	}
	embeddings, err := dataset.LoadEmbeddings(embeddingsPath)
	if err != nil {
		return nil, err
	}
	atoms, err := satisfaction.AggregateEmbeddings(restored.Matrix, embeddings)
	if err != nil {
		return nil, err
	}

	if outPath == "" {
		outPath = cfg.EmbeddingsPath()
	}
	if err := os.MkdirAll(filepath.Dir(outPath), am.DefaultDirPermissions); err != nil {
		return nil, errors.Wrapf(err, "create directory for %s", outPath)
	}
	if err := dataset.SaveEmbeddings(outPath, atoms); err != nil {
		return nil, err
	}

	logger.LoggerFromContext(ctx).Named("pipeline").Infow("atom embeddings written",
		logger.FieldPoolID, restored.Pool.ID(),
		logger.FieldAtomCount, atoms.Rows(),
		logger.FieldPath, outPath)
	return &EmbedResult{
		PoolID:     restored.Pool.ID(),
		Atoms:      atoms.Rows(),
		Dimensions: atoms.Cols(),
		Path:       outPath,
	}, nil
}
