package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/feature"
	"github.com/teranos/selor/tabular"
)

// readCSV reads a headed CSV file and returns the header index and records.
func readCSV(path string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NewNotFoundError("dataset file %s", path)
		}
		return nil, nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, errors.NewInvalidRequestError("dataset file %s is empty", path)
		}
		return nil, nil, errors.Wrapf(err, "read header of %s", path)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read %s", path)
	}
	return index, records, nil
}

func requireColumns(path string, index map[string]int, names ...string) ([]int, error) {
	cols := make([]int, len(names))
	for i, name := range names {
		c, ok := index[name]
		if !ok {
			return nil, errors.WithHint(
				errors.NewSchemaMismatchError("%s has no column %q", path, name),
				"check dataset.label and the column schema against the CSV header")
		}
		cols[i] = c
	}
	return cols, nil
}

func parseLabel(path string, row int, v string, classes int) (int, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s row %d: label %q", path, row+1, v)
	}
	label := int(f)
	if float64(label) != f || label < 0 || (classes > 0 && label >= classes) {
		return 0, errors.NewInvalidRequestError("%s row %d: label %q is not a class index below %d", path, row+1, v, classes)
	}
	return label, nil
}

// LoadCorpus reads a text dataset CSV. Each document holds the values of
// info.Fields in order; labels are class indices.
func LoadCorpus(path string, info Info) ([][]string, []int, error) {
	index, records, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}
	cols, err := requireColumns(path, index, append(append([]string(nil), info.Fields...), info.Label)...)
	if err != nil {
		return nil, nil, err
	}
	labelCol := cols[len(cols)-1]
	fieldCols := cols[:len(cols)-1]

	docs := make([][]string, len(records))
	labels := make([]int, len(records))
	for i, rec := range records {
		doc := make([]string, len(fieldCols))
		for j, c := range fieldCols {
			doc[j] = rec[c]
		}
		docs[i] = doc
		if labels[i], err = parseLabel(path, i, rec[labelCol], len(info.Classes)); err != nil {
			return nil, nil, err
		}
	}
	return docs, labels, nil
}

// LoadTable reads a tabular dataset CSV into a feature matrix with the
// schema's feature columns (raw numerical values, one-hot indicators) and
// the label vector.
func LoadTable(path string, schema *tabular.Schema) (*feature.Matrix, []int, error) {
	index, records, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}
	names := schema.FeatureColumns()
	cols, err := requireColumns(path, index, append(append([]string(nil), names...), schema.Label)...)
	if err != nil {
		return nil, nil, err
	}
	labelCol := cols[len(cols)-1]

	x, err := feature.NewNamedMatrix(len(records), names)
	if err != nil {
		return nil, nil, err
	}
	labels := make([]int, len(records))
	for i, rec := range records {
		for j, c := range cols[:len(names)] {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[c]), 64)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "%s row %d column %q", path, i+1, names[j])
			}
			if err := x.Set(i, j, v); err != nil {
				return nil, nil, errors.Wrapf(err, "%s row %d column %q", path, i+1, names[j])
			}
		}
		if labels[i], err = parseLabel(path, i, rec[labelCol], len(schema.Classes)); err != nil {
			return nil, nil, err
		}
	}
	return x, labels, nil
}
