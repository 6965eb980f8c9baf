package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInfo(t *testing.T) {
	tests := []struct {
		name     string
		info     Info
		tagged   bool
		semantic string
		str      string
	}{
		{
			name:     "release",
			info:     Info{Version: "v0.3.1", CommitHash: "0123456789ab", BuildTime: "2026-10-01"},
			tagged:   true,
			semantic: "0.3.1",
			str:      "selor 0.3.1 (commit 0123456, built 2026-10-01)",
		},
		{
			name:     "dev build",
			info:     Info{Version: "dev", CommitHash: "dev", BuildTime: "unknown"},
			tagged:   false,
			semantic: "0.0.0-dev",
			str:      "selor dev (commit dev, built unknown)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tagged, tt.info.Tagged())
			assert.Equal(t, tt.semantic, tt.info.Semantic().String())
			assert.Equal(t, tt.str, tt.info.String())
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
	assert.Equal(t, Version, info.Version)
}
