// Package vocab builds the word↔id vocabulary used by text-mode atom pools
// and extracts word-count feature matrices from tokenized documents.
//
// The vocabulary must be the same at pool construction and at inference: a
// pool stores the vocabulary fingerprint and refuses a vocabulary whose
// fingerprint differs.
package vocab

import (
	"crypto/sha256"
	"encoding/json"
	"os"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/teranos/selor/errors"
	"github.com/teranos/selor/feature"
)

// Reserved tokens
const (
	PadToken = "[PAD]"
	UnkToken = "[UNK]"

	PadID = 0
	UnkID = 1
)

// Vocabulary is an immutable word↔id bijection.
type Vocabulary struct {
	words []string
	index map[string]int
}

// Build creates a vocabulary from a corpus. Each document is a slice of
// field texts (e.g. title, body). Ids are assigned in first-occurrence order,
// walking documents in order and fields in order, after the reserved tokens.
func Build(corpus [][]string) *Vocabulary {
	v := &Vocabulary{index: make(map[string]int)}
	v.add(PadToken)
	v.add(UnkToken)
	for _, doc := range corpus {
		for _, field := range doc {
			for _, tok := range Tokenize(field) {
				v.add(tok)
			}
		}
	}
	return v
}

// FromWords restores a vocabulary from its ordered word list. The first two
// entries must be the reserved tokens.
func FromWords(words []string) (*Vocabulary, error) {
	if len(words) < 2 || words[PadID] != PadToken || words[UnkID] != UnkToken {
		return nil, errors.NewInvalidRequestError("vocabulary must start with %s and %s", PadToken, UnkToken)
	}
	v := &Vocabulary{index: make(map[string]int, len(words))}
	for _, w := range words {
		if _, dup := v.index[w]; dup {
			return nil, errors.NewInvalidRequestError("duplicate vocabulary word %q", w)
		}
		v.add(w)
	}
	return v, nil
}

func (v *Vocabulary) add(word string) {
	if _, ok := v.index[word]; ok {
		return
	}
	v.index[word] = len(v.words)
	v.words = append(v.words, word)
}

// Size returns the number of words including reserved tokens.
func (v *Vocabulary) Size() int { return len(v.words) }

// Word decodes an id.
func (v *Vocabulary) Word(id int) (string, bool) {
	if id < 0 || id >= len(v.words) {
		return "", false
	}
	return v.words[id], true
}

// ID encodes a word; unknown words map to UnkID.
func (v *Vocabulary) ID(word string) int {
	if id, ok := v.index[word]; ok {
		return id
	}
	return UnkID
}

// Words returns a copy of the ordered word list.
func (v *Vocabulary) Words() []string {
	return append([]string(nil), v.words...)
}

// Fingerprint identifies the exact word order: base58 of the SHA-256 of the
// newline-joined word list.
func (v *Vocabulary) Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join(v.words, "\n")))
	return base58.Encode(sum[:])
}

// WordCount returns a samples × (fields·Size) count matrix. Column index for
// word w in field p is p*Size()+w. Every document must have exactly fields
// entries.
func (v *Vocabulary) WordCount(docs [][]string, fields int) (*feature.Matrix, error) {
	if fields <= 0 {
		return nil, errors.NewInvalidRequestError("word count needs at least one field, got %d", fields)
	}
	size := v.Size()
	m, err := feature.NewMatrix(len(docs), fields*size)
	if err != nil {
		return nil, err
	}
	for row, doc := range docs {
		if len(doc) != fields {
			return nil, errors.Wrapf(errors.ErrDimensionMismatch,
				"document %d has %d fields, expected %d", row, len(doc), fields)
		}
		for pos, text := range doc {
			for _, tok := range Tokenize(text) {
				if err := m.Add(row, pos*size+v.ID(tok), 1); err != nil {
					return nil, err
				}
			}
		}
	}
	return m, nil
}

type vocabularyJSON struct {
	Fingerprint string   `json:"fingerprint"`
	Words       []string `json:"words"`
}

// MarshalJSON encodes the ordered word list together with its fingerprint.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(vocabularyJSON{Fingerprint: v.Fingerprint(), Words: v.words})
}

// UnmarshalJSON decodes a vocabulary and checks the stored fingerprint.
func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var raw vocabularyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "decode vocabulary")
	}
	restored, err := FromWords(raw.Words)
	if err != nil {
		return err
	}
	if raw.Fingerprint != "" && raw.Fingerprint != restored.Fingerprint() {
		return errors.NewSchemaMismatchError("vocabulary fingerprint %s does not match its words", raw.Fingerprint)
	}
	*v = *restored
	return nil
}

// Save writes the vocabulary as JSON.
func (v *Vocabulary) Save(path string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encode vocabulary")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write vocabulary %s", path)
	}
	return nil
}

// Load reads a vocabulary written by Save.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("vocabulary %s", path)
		}
		return nil, errors.Wrapf(err, "read vocabulary %s", path)
	}
	var v Vocabulary
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, errors.Wrapf(err, "load vocabulary %s", path)
	}
	return &v, nil
}
