package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/teranos/selor/am"
	"github.com/teranos/selor/artifact"
	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/internal/sysinfo"
	"github.com/teranos/selor/logger"
	"github.com/teranos/selor/mining"
	"github.com/teranos/selor/satisfaction"
)

// BuildResult summarizes one pool construction run
type BuildResult struct {
	PoolID        string            `json:"pool_id"`
	Dataset       string            `json:"dataset"`
	Modality      atom.Modality     `json:"modality"`
	AtomCount     int               `json:"atom_count"`
	AtomsByKind   map[atom.Kind]int `json:"atoms_by_kind"`
	TrainingRows  int               `json:"training_rows"`
	PoolPath      string            `json:"pool_path"`
	VocabPath     string            `json:"vocab_path,omitempty"`
	MemoryWarning string            `json:"memory_warning,omitempty"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`

	Pool      *atom.Pool           `json:"-"`
	Matrix    *satisfaction.Matrix `json:"-"`
	Describer *atom.Describer      `json:"-"`
}

// Duration is the wall time of the run.
func (r *BuildResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

func poolPath(cfg *am.Config, modality atom.Modality) string {
	return filepath.Join(cfg.PoolDir(), artifact.FileName(cfg.Dataset.Name, modality, cfg.Pool.NumAtoms))
}

// BuildPool constructs the configured pool: text datasets get a fresh
// vocabulary and frequency-mined atoms, tabular datasets get the exhaustive
// enumeration. The pool is finalized (matrix built, training context
// released) and written as an artifact bundle.
func BuildPool(ctx context.Context, cfg *am.Config) (*BuildResult, error) {
	log := logger.LoggerFromContext(ctx).Named("pipeline")
	result := &BuildResult{StartTime: time.Now()}

	src, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if src.Info.Modality == atom.ModalityText {
		if result.VocabPath, err = src.BuildVocabulary(); err != nil {
			return nil, errors.Wrap(err, "build vocabulary")
		}
		log.Infow("vocabulary built",
			logger.FieldVocabSize, src.Vocab.Size(),
			logger.FieldPath, result.VocabPath)
	}

	train, err := src.Load(cfg.Dataset.TrainPath)
	if err != nil {
		return nil, errors.Wrap(err, "load training data")
	}
	result.TrainingRows = train.X.Rows()

	var builder *atom.Builder
	switch src.Info.Modality {
	case atom.ModalityText:
		builder, err = mining.MineText(ctx, train.X, src.Vocab, mining.TextOptions{
			Dataset:     src.Info.Name,
			Fields:      src.Info.Fields,
			Labels:      train.Labels,
			Quota:       cfg.Pool.NumAtoms,
			StrictQuota: cfg.Pool.StrictQuota,
			Logger:      logger.ComponentLogger("mining"),
		})
	default:
		builder, err = mining.EnumerateTabular(ctx, src.Info.Name, train.X, train.Labels, src.Schema)
	}
	if err != nil {
		return nil, errors.Wrap(err, "construct atom pool")
	}

	if warning := sysinfo.CheckMatrixMemory(result.TrainingRows, builder.Count()); warning != "" {
		result.MemoryWarning = warning
		log.Warnw(warning, logger.FieldRows, result.TrainingRows, logger.FieldAtomCount, builder.Count())
	}

	pool, matrix, err := satisfaction.Finalize(ctx, builder, cfg.Pool.Workers)
	if err != nil {
		return nil, errors.Wrap(err, "finalize atom pool")
	}

	result.PoolPath = src.PoolPath()
	if err := artifact.Write(result.PoolPath, pool); err != nil {
		return nil, err
	}
	if result.Describer, err = src.Describer(pool); err != nil {
		return nil, err
	}

	result.Pool = pool
	result.Matrix = matrix
	result.PoolID = pool.ID()
	result.Dataset = pool.Dataset()
	result.Modality = pool.Modality()
	result.AtomCount = pool.Count()
	result.AtomsByKind = pool.CountByKind()
	result.EndTime = time.Now()

	log.Infow("atom pool built",
		logger.FieldPoolID, pool.ID(),
		logger.FieldAtomCount, pool.Count(),
		logger.FieldPath, result.PoolPath,
		logger.FieldDurationMS, result.Duration().Milliseconds())
	return result, nil
}

// Restored is a persisted pool with its satisfaction matrix recomputed from
// the training file.
type Restored struct {
	Source    *Source
	Pool      *atom.Pool
	Matrix    *satisfaction.Matrix
	Describer *atom.Describer
}

// ReadPool reads a pool bundle (the configured one when path is empty) and
// verifies it against the configured vocabulary or schema. No training data
// is touched.
func ReadPool(cfg *am.Config, path string) (*Source, *atom.Pool, *atom.Describer, error) {
	src, err := Open(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	if src.Info.Modality == atom.ModalityText {
		if err := src.LoadVocabulary(); err != nil {
			return nil, nil, nil, err
		}
	}
	if path == "" {
		path = src.PoolPath()
	}

	pool, err := artifact.Read(path)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := src.Verify(pool); err != nil {
		return nil, nil, nil, errors.Wrapf(err, "pool bundle %s", path)
	}
	describer, err := src.Describer(pool)
	if err != nil {
		return nil, nil, nil, err
	}
	return src, pool, describer, nil
}

// Restore reads and verifies a pool bundle like ReadPool, then recomputes
// the satisfaction matrix over the training file.
func Restore(ctx context.Context, cfg *am.Config, path string) (*Restored, error) {
	src, pool, describer, err := ReadPool(cfg, path)
	if err != nil {
		return nil, err
	}

	train, err := src.Load(cfg.Dataset.TrainPath)
	if err != nil {
		return nil, errors.Wrap(err, "load training data")
	}
	layout, err := satisfaction.LayoutFor(pool.Meta())
	if err != nil {
		return nil, err
	}
	matrix, err := satisfaction.Build(ctx, pool.Atoms(), train.X, layout, cfg.Pool.Workers)
	if err != nil {
		return nil, err
	}
	return &Restored{Source: src, Pool: pool, Matrix: matrix, Describer: describer}, nil
}
