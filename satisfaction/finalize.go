package satisfaction

import (
	"context"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/internal/sysinfo"
	"github.com/teranos/selor/logger"
)

// Finalize freezes the builder, computes the satisfaction matrix from its
// training context, then releases the training context. The returned pool and
// matrix are the only handles to the construction results.
func Finalize(ctx context.Context, b *atom.Builder, workers int) (*atom.Pool, *Matrix, error) {
	pool, training, err := b.Freeze()
	if err != nil {
		return nil, nil, err
	}

	layout, err := LayoutFor(pool.Meta())
	if err != nil {
		training.Release()
		return nil, nil, err
	}
	m, err := Build(ctx, pool.Atoms(), training.X, layout, workers)
	training.Release()
	if err != nil {
		return nil, nil, err
	}

	if stats, err := sysinfo.Memory(); err == nil {
		logger.LoggerFromContext(ctx).Named("satisfaction").Debugw("training context released",
			logger.FieldPoolID, pool.ID(),
			"mem_used_mb", stats.UsedMB,
			"mem_available_mb", stats.AvailableMB)
	}
	return pool, m, nil
}
