package display

import (
	"encoding/json"
	"os"
)

// compactEnv selects single-line JSON, for piping into other tools
const compactEnv = "SELOR_JSON_COMPACT"

// MarshalJSON marshals JSON with pretty formatting unless compact output is requested
func MarshalJSON(v interface{}) ([]byte, error) {
	if os.Getenv(compactEnv) != "" {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
