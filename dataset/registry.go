// Package dataset holds the dataset and base-model registry and the file
// adapters that feed pool construction and explanation: CSV loaders, target
// renderers and readers for external model outputs.
package dataset

import (
	"sort"

	"github.com/teranos/selor/atom"
	"github.com/teranos/selor/errors"
)

// Info describes one supported dataset.
type Info struct {
	Name     string
	Modality atom.Modality
	// Label is the label column of the CSV files.
	Label string
	// Classes names label indices, for text datasets. Tabular datasets take
	// their classes from the column schema.
	Classes []string
	// Fields are the text columns, in position-bucket order.
	Fields []string
}

var datasets = map[string]Info{
	"yelp": {
		Name:     "yelp",
		Modality: atom.ModalityText,
		Label:    "label",
		Classes:  []string{"negative", "positive"},
		Fields:   []string{"text"},
	},
	"clickbait": {
		Name:     "clickbait",
		Modality: atom.ModalityText,
		Label:    "label",
		Classes:  []string{"news", "clickbait"},
		Fields:   []string{"title", "text"},
	},
	"adult": {
		Name:     "adult",
		Modality: atom.ModalityTabular,
		Label:    "income",
	},
}

var bases = map[string]atom.Modality{
	"bert":    atom.ModalityText,
	"roberta": atom.ModalityText,
	"dnn":     atom.ModalityTabular,
}

// Lookup returns the registry entry of a dataset.
func Lookup(name string) (Info, error) {
	info, ok := datasets[name]
	if !ok {
		return Info{}, errors.WithHintf(errors.NewNotSupportedError("dataset %q", name),
			"supported datasets: %v", Names())
	}
	return info, nil
}

// BaseModality returns the input modality of a base model.
func BaseModality(base string) (atom.Modality, error) {
	m, ok := bases[base]
	if !ok {
		return "", errors.WithHintf(errors.NewNotSupportedError("base model %q", base),
			"supported base models: %v", BaseNames())
	}
	return m, nil
}

// CheckModality fails when the dataset and base model disagree on modality.
func CheckModality(name, base string) (Info, error) {
	info, err := Lookup(name)
	if err != nil {
		return Info{}, err
	}
	m, err := BaseModality(base)
	if err != nil {
		return Info{}, err
	}
	if m != info.Modality {
		return Info{}, errors.NewNotSupportedError("dataset %q (%s) with base model %q (%s)", name, info.Modality, base, m)
	}
	return info, nil
}

// Names lists the registered datasets.
func Names() []string {
	names := make([]string, 0, len(datasets))
	for name := range datasets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BaseNames lists the registered base models.
func BaseNames() []string {
	names := make([]string, 0, len(bases))
	for name := range bases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
