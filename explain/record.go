package explain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/teranos/selor/errors"
)

// ClassProb is the probability of one class.
type ClassProb struct {
	Class string
	Prob  float64
}

// ClassProbs is a class-probability distribution in class order. It encodes
// as a JSON object whose keys keep that order.
type ClassProbs []ClassProb

// MarshalJSON writes {"class": prob, ...} in class order.
func (c ClassProbs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cp := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cp.Class)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(cp.Prob)
		if err != nil {
			return nil, errors.Wrapf(err, "encode probability of class %q", cp.Class)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object, keeping key order.
func (c *ClassProbs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return errors.Wrap(err, "decode class probabilities")
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.NewInvalidRequestError("class probabilities must be an object")
	}
	var out ClassProbs
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return errors.Wrap(err, "decode class probabilities")
		}
		class, _ := tok.(string)
		var p float64
		if err := dec.Decode(&p); err != nil {
			return errors.Wrapf(err, "decode probability of class %q", class)
		}
		out = append(out, ClassProb{Class: class, Prob: p})
	}
	*c = out
	return nil
}

// Record is the structured explanation of one example.
type Record struct {
	ID               int        `json:"Id"`
	Target           string     `json:"Target"`
	Label            string     `json:"Label"`
	Prediction       string     `json:"Prediction"`
	Explanation      []string   `json:"Explanation"`
	ClassProbability ClassProbs `json:"Class Probability"`
	Coverage         []float64  `json:"Coverage"`

	// Antecedents keeps the atom ids behind Explanation for persistence.
	Antecedents [][]int `json:"-"`
}

// Text renders the record as a human-readable report block.
func Text(r *Record) string {
	var b strings.Builder
	b.WriteString(r.Target)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Label: %s\n", r.Label)
	fmt.Fprintf(&b, "Prediction: %s\n\n", r.Prediction)
	b.WriteString("Class Probability\n")
	for _, cp := range r.ClassProbability {
		fmt.Fprintf(&b, "%s: %s\n", cp.Class, strconv.FormatFloat(cp.Prob, 'g', -1, 64))
	}
	b.WriteString("\n")
	for i, ante := range r.Explanation {
		fmt.Fprintf(&b, "Explanation %d: %s\n", i, ante)
		fmt.Fprintf(&b, "Coverage: %.6f\n", r.Coverage[i])
		b.WriteString("\n")
	}
	return b.String()
}
