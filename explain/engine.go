// Package explain turns model-selected atom-id sequences into
// coverage-annotated explanation records.
//
// The engine only reads the frozen pool and satisfaction matrix, so any number
// of goroutines may query it at once.
package explain

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/logger"
	"github.com/teranos/selor/satisfaction"
)

// Example is one target example: its rendered features and gold label index.
type Example struct {
	ID     int
	Target string
	Label  int
}

// Output is what the external model produced for one example: the ordered
// antecedents (each an ordered list of atom ids) and the class distribution.
type Output struct {
	ID          int       `json:"id"`
	Antecedents [][]int   `json:"antecedents"`
	ClassProbs  []float64 `json:"class_probs"`
}

// Engine computes coverage and explanation records against one pool.
type Engine struct {
	pool      *atom.Pool
	matrix    *satisfaction.Matrix
	classes   []string
	describer *atom.Describer
	logger    *zap.SugaredLogger
}

// NewEngine creates an engine. The matrix must have been built from pool.
func NewEngine(pool *atom.Pool, matrix *satisfaction.Matrix, classes []string, describer *atom.Describer) (*Engine, error) {
	if matrix.Atoms() != pool.Count() {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch,
			"satisfaction matrix has %d atoms, pool has %d", matrix.Atoms(), pool.Count())
	}
	if len(classes) == 0 {
		return nil, errors.NewInvalidRequestError("explanation engine needs class names")
	}
	return &Engine{
		pool:      pool,
		matrix:    matrix,
		classes:   classes,
		describer: describer,
		logger:    logger.ComponentLogger("explain"),
	}, nil
}

// Coverage is the fraction of training rows satisfying every atom of the
// antecedent. The empty antecedent covers every row.
func (e *Engine) Coverage(antecedent []int) (float64, error) {
	rows := e.matrix.Rows()
	if rows == 0 {
		return 0, errors.NewInvalidRequestError("coverage over an empty training set")
	}

	cols := make([][]uint8, 0, len(antecedent))
	for _, id := range antecedent {
		col, err := e.matrix.Column(id)
		if err != nil {
			return 0, err
		}
		cols = append(cols, col)
	}

	covered := 0
	for r := 0; r < rows; r++ {
		sat := true
		for _, col := range cols {
			if col[r] == 0 {
				sat = false
				break
			}
		}
		if sat {
			covered++
		}
	}
	return float64(covered) / float64(rows), nil
}

// Predict returns the index of the most probable class; the first one wins
// ties.
func Predict(probs []float64) int {
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return best
}

// Explain builds the record of one example. Antecedents are reported in the
// order the model produced them.
func (e *Engine) Explain(ex Example, out Output) (*Record, error) {
	if len(out.ClassProbs) != len(e.classes) {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch,
			"example %d: %d class probabilities for %d classes", ex.ID, len(out.ClassProbs), len(e.classes))
	}
	if ex.Label < 0 || ex.Label >= len(e.classes) {
		return nil, errors.NewInvalidRequestError("example %d: label %d outside %d classes", ex.ID, ex.Label, len(e.classes))
	}

	r := &Record{
		ID:               ex.ID,
		Target:           ex.Target,
		Label:            e.classes[ex.Label],
		Prediction:       e.classes[Predict(out.ClassProbs)],
		Explanation:      make([]string, len(out.Antecedents)),
		ClassProbability: make(ClassProbs, len(e.classes)),
		Coverage:         make([]float64, len(out.Antecedents)),
		Antecedents:      out.Antecedents,
	}
	for i, class := range e.classes {
		r.ClassProbability[i] = ClassProb{Class: class, Prob: out.ClassProbs[i]}
	}
	for i, ante := range out.Antecedents {
		cov, err := e.Coverage(ante)
		if err != nil {
			return nil, errors.Wrapf(err, "example %d explanation %d", ex.ID, i)
		}
		text, err := e.describer.Antecedent(ante)
		if err != nil {
			return nil, errors.Wrapf(err, "example %d explanation %d", ex.ID, i)
		}
		r.Coverage[i] = cov
		r.Explanation[i] = text
	}
	e.logger.Debugw("example explained",
		logger.FieldExampleID, ex.ID,
		logger.FieldCount, len(out.Antecedents))
	return r, nil
}

// ExplainAll explains every example, at most workers at a time. outputs[i]
// must belong to examples[i]; records come back in input order.
func (e *Engine) ExplainAll(ctx context.Context, examples []Example, outputs []Output, workers int) ([]*Record, error) {
	if len(examples) != len(outputs) {
		return nil, errors.Wrapf(errors.ErrDimensionMismatch,
			"%d examples but %d model outputs", len(examples), len(outputs))
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	start := time.Now()

	records := make([]*Record, len(examples))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range examples {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if examples[i].ID != outputs[i].ID {
				return errors.NewInvalidRequestError("model output %d belongs to example %d, expected %d",
					i, outputs[i].ID, examples[i].ID)
			}
			r, err := e.Explain(examples[i], outputs[i])
			if err != nil {
				return err
			}
			records[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "extract explanations")
	}

	logger.LoggerFromContext(ctx).Named("explain").Infow("explanations extracted",
		logger.FieldCount, len(records),
		logger.FieldWorkers, workers,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return records, nil
}
