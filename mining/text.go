// Package mining populates atom builders: frequency-ranked word mining for
// text datasets and exhaustive threshold/category enumeration for tabular ones.
package mining

import (
	"context"
	"sort"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/feature"
	"github.com/teranos/selor/logger"
	"github.com/teranos/selor/vocab"
)

// stopWords are tokens never turned into text atoms.
var stopWords = map[string]bool{
	vocab.PadToken: true, vocab.UnkToken: true, ".": true, ",": true, "": true,
	"the": true, "a": true, "an": true,
	"i": true, "my": true, "me": true,
	"he": true, "him": true, "his": true,
	"she": true, "her": true,
	"it": true, "its": true,
	"we": true, "our": true, "us": true,
	"you": true, "your": true,
	"they": true, "their": true, "them": true,
	"this": true, "that": true, "there": true, "here": true,
	"to": true, "of": true, "in": true, "for": true, "and": true, "with": true,
	"on": true, "at": true, "as": true, "from": true,
	"will": true, "would": true,
	"is": true, "was": true, "are": true, "were": true, "be": true, "been": true,
	"have": true, "had": true, "told": true, "said": true, "asked": true, "asking": true,
	"given": true, "telling": true,
}

// IsStopWord reports whether word is excluded from text atoms.
func IsStopWord(word string) bool {
	return stopWords[word]
}

// Qualifies reports whether word may become a text atom: not a stop word,
// longer than one character, letters only.
func Qualifies(word string) bool {
	return !stopWords[word] && utf8.RuneCountInString(word) > 1 && vocab.IsAlpha(word)
}

// TextOptions configures frequency-ranked text mining.
type TextOptions struct {
	Dataset string
	// Fields names the position buckets of the word-count matrix, in order.
	Fields []string
	Labels []int
	// Quota is the number of text atoms requested (dummy excluded).
	Quota int
	// StrictQuota turns an under-filled quota into ErrQuotaUnderfilled.
	StrictQuota bool
	Logger      *zap.SugaredLogger
}

// MineText builds a text pool from word-count matrix x. The dummy atom comes
// first; then word columns are walked by descending total count across all
// training rows (ties by lower column index) and every qualifying column with
// a non-zero total becomes one Present atom at threshold 0.5, until Quota text
// atoms exist.
//
// When fewer columns qualify than requested the pool is smaller than the
// quota; this is logged as a warning, or returned as ErrQuotaUnderfilled when
// StrictQuota is set.
func MineText(ctx context.Context, x *feature.Matrix, v *vocab.Vocabulary, opts TextOptions) (*atom.Builder, error) {
	if opts.Quota <= 0 {
		return nil, errors.NewInvalidRequestError("text atom quota must be positive, got %d", opts.Quota)
	}
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("mining")
	}
	start := time.Now()

	b, err := atom.NewTextBuilder(opts.Dataset, x, opts.Labels, v, opts.Fields)
	if err != nil {
		return nil, err
	}
	if _, err := b.AddDummy(); err != nil {
		return nil, err
	}

	totals := x.ColumnSums()
	ranked := make([]int, len(totals))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return totals[ranked[i]] > totals[ranked[j]]
	})

	size := v.Size()
	mined := 0
	for _, col := range ranked {
		if mined == opts.Quota {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "mine text atoms")
		}
		if totals[col] <= 0 {
			break
		}
		word, pos := col%size, col/size
		w, _ := v.Word(word)
		if !Qualifies(w) {
			continue
		}
		if _, err := b.AddText(word, pos, true, atom.TextThreshold); err != nil {
			return nil, err
		}
		mined++
	}

	if mined < opts.Quota {
		if opts.StrictQuota {
			return nil, errors.WithHint(
				errors.Wrapf(errors.ErrQuotaUnderfilled, "%d of %d text atoms qualify", mined, opts.Quota),
				"lower pool.num_atoms or disable pool.strict_quota")
		}
		log.Warnw("text atom quota not filled",
			logger.FieldQuota, opts.Quota,
			logger.FieldCount, mined,
			logger.FieldDataset, opts.Dataset)
	}

	log.Infow("text atoms mined",
		logger.FieldDataset, opts.Dataset,
		logger.FieldAtomCount, b.Count(),
		logger.FieldVocabSize, size,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return b, nil
}
