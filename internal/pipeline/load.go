// Package pipeline drives pool construction, explanation and embedding
// aggregation end to end from an am.Config: it loads the configured dataset,
// runs the construction policy, finalizes the pool and writes the artifacts
// the CLI reports on.
package pipeline

import (
	"os"
	"path/filepath"

	"github.com/teranos/selor/am"
	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/dataset"
	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/explain"
	"github.com/teranos/selor/feature"
	"github.com/teranos/selor/tabular"
	"github.com/teranos/selor/vocab"
)

// Split is a loaded dataset file: the feature matrix the atoms evaluate
// against plus the rendered examples for reports.
type Split struct {
	X        *feature.Matrix
	Labels   []int
	Examples []explain.Example
}

// Source is the configured dataset with its modality-specific metadata.
// Exactly one of Vocab (nlp) and Schema (tab) is set once loaded.
type Source struct {
	Info   dataset.Info
	Vocab  *vocab.Vocabulary
	Schema *tabular.Schema
	cfg    *am.Config
}

// Open validates cfg and loads the tabular schema when the dataset needs one.
// The vocabulary is loaded separately, since pool construction builds it.
func Open(cfg *am.Config) (*Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	info, err := dataset.Lookup(cfg.Dataset.Name)
	if err != nil {
		return nil, err
	}
	src := &Source{Info: info, cfg: cfg}
	if info.Modality == atom.ModalityTabular {
		if src.Schema, err = tabular.LoadFile(cfg.Dataset.SchemaPath); err != nil {
			return nil, err
		}
	}
	return src, nil
}

// Classes names the label indices of the dataset.
func (s *Source) Classes() []string {
	if s.Schema != nil {
		return s.Schema.Classes
	}
	return s.Info.Classes
}

// LoadVocabulary reads the saved vocabulary for a text dataset.
func (s *Source) LoadVocabulary() error {
	v, err := vocab.Load(s.cfg.VocabPath())
	if err != nil {
		return errors.WithHint(err, "build it with `selor vocab build` or `selor pool build`")
	}
	s.Vocab = v
	return nil
}

// BuildVocabulary builds the vocabulary from the training corpus and saves it.
func (s *Source) BuildVocabulary() (string, error) {
	if s.Info.Modality != atom.ModalityText {
		return "", errors.NewNotSupportedError("vocabulary for %s dataset %q", s.Info.Modality, s.Info.Name)
	}
	docs, _, err := dataset.LoadCorpus(s.cfg.Dataset.TrainPath, s.Info)
	if err != nil {
		return "", err
	}
	s.Vocab = vocab.Build(docs)

	path := s.cfg.VocabPath()
	if err := os.MkdirAll(filepath.Dir(path), am.DefaultDirPermissions); err != nil {
		return "", errors.Wrapf(err, "create directory for %s", path)
	}
	if err := s.Vocab.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads one dataset file (train or test) into a Split.
func (s *Source) Load(path string) (*Split, error) {
	if path == "" {
		return nil, errors.WithHint(errors.NewInvalidRequestError("no dataset file configured"),
			"set dataset.train_path and dataset.test_path")
	}
	switch s.Info.Modality {
	case atom.ModalityText:
		if s.Vocab == nil {
			return nil, errors.AssertionFailedf("text split loaded before the vocabulary")
		}
		docs, labels, err := dataset.LoadCorpus(path, s.Info)
		if err != nil {
			return nil, err
		}
		x, err := s.Vocab.WordCount(docs, len(s.Info.Fields))
		if err != nil {
			return nil, errors.Wrapf(err, "word counts of %s", path)
		}
		return &Split{X: x, Labels: labels, Examples: dataset.TextExamples(s.Info, docs, labels)}, nil
	case atom.ModalityTabular:
		x, labels, err := dataset.LoadTable(path, s.Schema)
		if err != nil {
			return nil, err
		}
		return &Split{X: x, Labels: labels, Examples: dataset.TabularExamples(s.Schema, x, labels)}, nil
	default:
		return nil, errors.NewNotSupportedError("modality %q", s.Info.Modality)
	}
}

// PoolPath is where the configured pool bundle lives.
func (s *Source) PoolPath() string {
	return poolPath(s.cfg, s.Info.Modality)
}

// Verify checks that a persisted pool was built under this source's
// vocabulary or schema.
func (s *Source) Verify(p *atom.Pool) error {
	if p.Dataset() != s.Info.Name {
		return errors.WithHintf(
			errors.NewSchemaMismatchError("pool was built for dataset %q, configured dataset is %q", p.Dataset(), s.Info.Name),
			"set dataset.name = %q or rebuild the pool", p.Dataset())
	}
	if s.Vocab != nil {
		return p.VerifyVocabulary(s.Vocab)
	}
	return p.VerifySchema(s.Schema)
}

// Describer returns the atom describer for p.
func (s *Source) Describer(p *atom.Pool) (*atom.Describer, error) {
	return atom.NewDescriber(p, s.Vocab)
}
