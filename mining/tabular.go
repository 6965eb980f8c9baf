package mining

import (
	"context"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/feature"
	"github.com/teranos/selor/logger"
	"github.com/teranos/selor/tabular"
)

// ExpectedTabularCount is the exact size of an enumerated tabular pool:
// 1 + 2·Σthresholds + 2·Σkeys.
func ExpectedTabularCount(s *tabular.Schema) int {
	return 1 + 2*s.ThresholdCount() + 2*s.KeyCount()
}

// EnumerateTabular builds a tabular pool independent of the data in x: the
// dummy atom, then for every numerical column and raw threshold n the pair
// (≥ n/max, < n/max), then for every categorical column and key the pair
// (= key, != key). Columns and thresholds follow schema order.
func EnumerateTabular(ctx context.Context, dataset string, x *feature.Matrix, labels []int, schema *tabular.Schema) (*atom.Builder, error) {
	b, err := atom.NewTabularBuilder(dataset, x, labels, schema)
	if err != nil {
		return nil, err
	}
	if _, err := b.AddDummy(); err != nil {
		return nil, err
	}

	for _, col := range schema.Numerical {
		for _, n := range col.Thresholds {
			for _, bigger := range []bool{true, false} {
				if _, err := b.AddNumerical(col.Name, bigger, n/col.Max); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, col := range schema.Categorical {
		for key := range col.Keys {
			for _, equal := range []bool{true, false} {
				if _, err := b.AddCategorical(col.Name, equal, key); err != nil {
					return nil, err
				}
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "enumerate tabular atoms")
	}

	if want := ExpectedTabularCount(schema); b.Count() != want {
		return nil, errors.AssertionFailedf("enumerated %d tabular atoms, expected %d", b.Count(), want)
	}
	logger.ComponentLogger("mining").Infow("tabular atoms enumerated",
		logger.FieldDataset, dataset,
		logger.FieldAtomCount, b.Count())
	return b, nil
}
