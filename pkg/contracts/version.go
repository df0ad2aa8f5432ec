// Package contracts holds the version information and the wire contracts
// shared by the server and the command line tools.
package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	// DataFormatVersion identifies the CSV export column layout
	DataFormatVersion = "v1"
	// APIVersion identifies the HTTP API and websocket message shapes
	APIVersion = "v1"
)

// Set with -ldflags "-X vcfo/pkg/contracts.Version=..." at release time.
// Commit and BuildTime fall back to the VCS stamp Go embeds in the binary.
var (
	Version   = "1.0.0"
	GitCommit = ""
	BuildTime = ""
)

// VersionInfo is served by GET /api/version
type VersionInfo struct {
	Version      string `json:"version"`
	GitCommit    string `json:"git_commit"`
	BuildTime    string `json:"build_time"`
	Modified     bool   `json:"modified,omitempty"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo combines the ldflags values with the embedded build info
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:      Version,
		GitCommit:    GitCommit,
		BuildTime:    BuildTime,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}

	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	if info.GitCommit == "" {
		info.GitCommit = "unknown"
	}
	if info.BuildTime == "" {
		info.BuildTime = "unknown"
	}
	return info
}

// String renders the one line banner printed by -version
func (v VersionInfo) String() string {
	commit := v.GitCommit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if v.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("vcfo v%s (commit %s, built %s, %s %s/%s)",
		v.Version, commit, v.BuildTime, v.GoVersion, v.OS, v.Architecture)
}
