// Package version reports the build of the selor binary. The values are
// stamped at link time:
//
//	go build -ldflags "-X github.com/teranos/selor/version.Version=v0.3.1 ..."
package version

import (
	"fmt"
	"runtime"

	"github.com/Masterminds/semver/v3"
)

// Set at build time via ldflags.
var (
	CommitHash = "dev"
	BuildTime  = "unknown"
	Version    = "dev"
)

// Info describes the running binary.
type Info struct {
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Version    string `json:"version"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		Version:    Version,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// Tagged reports whether the binary was built from a release tag.
func (i Info) Tagged() bool {
	_, err := semver.NewVersion(i.Version)
	return err == nil
}

// Semantic parses the release version. Untagged builds report 0.0.0-dev so
// that artifact writers always have a comparable version to stamp.
func (i Info) Semantic() *semver.Version {
	v, err := semver.NewVersion(i.Version)
	if err != nil {
		return semver.MustParse("0.0.0-dev")
	}
	return v
}

func (i Info) String() string {
	if i.Tagged() {
		return fmt.Sprintf("selor %s (commit %s, built %s)", i.Semantic(), i.Short(), i.BuildTime)
	}
	return fmt.Sprintf("selor dev (commit %s, built %s)", i.Short(), i.BuildTime)
}

// Short is the abbreviated commit hash.
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
