package explain

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/teranos/selor/errors"
)

// Report file names inside an output directory.
const (
	JSONReportFile = "model_explanation.json"
	TextReportFile = "model_explanation.txt"
)

// RenderText concatenates the text blocks of all records.
func RenderText(records []*Record) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(Text(r))
	}
	return b.String()
}

// WriteReport writes the JSON array of records and the text report into dir,
// creating it if needed. It returns the two file paths.
func WriteReport(dir string, records []*Record) (string, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", errors.Wrapf(err, "create report directory %s", dir)
	}

	if records == nil {
		records = []*Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", "", errors.Wrap(err, "encode explanation records")
	}
	jsonPath := filepath.Join(dir, JSONReportFile)
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", "", errors.Wrapf(err, "write %s", jsonPath)
	}

	textPath := filepath.Join(dir, TextReportFile)
	if err := os.WriteFile(textPath, []byte(RenderText(records)), 0644); err != nil {
		return "", "", errors.Wrapf(err, "write %s", textPath)
	}
	return jsonPath, textPath, nil
}

// ReadReport loads records written by WriteReport.
func ReadReport(path string) ([]*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("explanation report %s", path)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return records, nil
}
