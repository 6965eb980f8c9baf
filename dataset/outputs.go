package dataset

import (
	"encoding/json"
	"os"

	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/explain"
	"github.com/teranos/selor/feature"
)

func readJSON(path, what string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("%s %s", what, path)
		}
		return errors.Wrapf(err, "read %s %s", what, path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "decode %s %s", what, path)
	}
	return nil
}

// LoadOutputs reads the external model outputs: a JSON array of
// {id, antecedents, class_probs} where id is the test example row.
func LoadOutputs(path string) ([]explain.Output, error) {
	var outputs []explain.Output
	if err := readJSON(path, "model outputs", &outputs); err != nil {
		return nil, err
	}
	seen := make(map[int]bool, len(outputs))
	for i, out := range outputs {
		if out.ID < 0 || seen[out.ID] {
			return nil, errors.NewInvalidRequestError("model outputs %s: entry %d has invalid or repeated id %d", path, i, out.ID)
		}
		seen[out.ID] = true
	}
	return outputs, nil
}

// Select returns the examples the outputs refer to, in output order.
func Select(examples []explain.Example, outputs []explain.Output) ([]explain.Example, error) {
	selected := make([]explain.Example, len(outputs))
	for i, out := range outputs {
		if out.ID >= len(examples) {
			return nil, errors.NewInvalidRequestError("model output %d refers to example %d of %d", i, out.ID, len(examples))
		}
		selected[i] = examples[out.ID]
	}
	return selected, nil
}

// LoadEmbeddings reads per-sample training embeddings: a JSON array of equal
// length float arrays.
func LoadEmbeddings(path string) (*feature.Matrix, error) {
	var rows [][]float64
	if err := readJSON(path, "embeddings", &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.NewInvalidRequestError("embeddings %s are empty", path)
	}
	m, err := feature.NewMatrix(len(rows), len(rows[0]))
	if err != nil {
		return nil, errors.Wrapf(err, "embeddings %s", path)
	}
	for i, row := range rows {
		if len(row) != m.Cols() {
			return nil, errors.Wrapf(errors.ErrDimensionMismatch,
				"embeddings %s: row %d has %d values, expected %d", path, i, len(row), m.Cols())
		}
		for j, v := range row {
			if err := m.Set(i, j, v); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// SaveEmbeddings writes an embedding matrix as a JSON array of rows.
func SaveEmbeddings(path string, m *feature.Matrix) error {
	rows := make([][]float64, m.Rows())
	for i := range rows {
		rows[i] = append([]float64(nil), m.Row(i)...)
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return errors.Wrap(err, "encode embeddings")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write embeddings %s", path)
	}
	return nil
}
