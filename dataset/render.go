package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/teranos/selor/explain"
	"github.com/teranos/selor/feature"
	"github.com/teranos/selor/tabular"
)

// RenderDocument renders a text example as one "field: value" line per field.
func RenderDocument(fields []string, doc []string) string {
	var b strings.Builder
	for i, field := range fields {
		fmt.Fprintf(&b, "%s: %s\n", field, doc[i])
	}
	return b.String()
}

// RenderRow renders one feature row of a tabular example: numerical columns
// as "name: value" rounded to one decimal, categorical columns as
// "name: key" for the hot category. Columns follow schema order.
func RenderRow(schema *tabular.Schema, x *feature.Matrix, row int) string {
	values := x.Row(row)
	var b strings.Builder
	for _, col := range schema.Numerical {
		c, ok := x.Column(col.Name)
		if !ok {
			continue
		}
		v := math.Round(values[c]*10) / 10
		fmt.Fprintf(&b, "%s: %s\n", col.Name, strconv.FormatFloat(v, 'f', 1, 64))
	}
	for _, col := range schema.Categorical {
		for k, key := range col.Keys {
			c, ok := x.Column(tabular.OneHotColumn(col.Name, k))
			if ok && values[c] == 1 {
				fmt.Fprintf(&b, "%s: %s\n", col.Name, key)
			}
		}
	}
	return b.String()
}

// TextExamples pairs rendered documents with their labels. Example ids are
// row indices.
func TextExamples(info Info, docs [][]string, labels []int) []explain.Example {
	examples := make([]explain.Example, len(docs))
	for i, doc := range docs {
		examples[i] = explain.Example{ID: i, Target: RenderDocument(info.Fields, doc), Label: labels[i]}
	}
	return examples
}

// TabularExamples pairs rendered rows with their labels. Example ids are row
// indices.
func TabularExamples(schema *tabular.Schema, x *feature.Matrix, labels []int) []explain.Example {
	examples := make([]explain.Example, x.Rows())
	for i := range examples {
		examples[i] = explain.Example{ID: i, Target: RenderRow(schema, x, i), Label: labels[i]}
	}
	return examples
}
