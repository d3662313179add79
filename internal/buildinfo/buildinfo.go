// Package buildinfo holds build-time metadata injected via -ldflags.
package buildinfo

import "fmt"

// Version is the semantic version or tag for this build.
// Inject via: -X github.com/torneiomaker/messenger-bot/internal/buildinfo.Version=...
var Version = ""

// Commit is the git commit SHA for this build.
// Inject via: -X github.com/torneiomaker/messenger-bot/internal/buildinfo.Commit=...
var Commit = ""

// BuildDate is the RFC3339 build timestamp.
// Inject via: -X github.com/torneiomaker/messenger-bot/internal/buildinfo.BuildDate=...
var BuildDate = ""

// Release returns the version used for error reporting, "dev" when unset.
func Release() string {
	if Version == "" {
		return "dev"
	}
	return Version
}

// String formats every field on one line, for the version command.
func String() string {
	commit := Commit
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if commit == "" {
		commit = "unknown"
	}
	date := BuildDate
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("torneio-maker %s (commit %s, built %s)", Release(), commit, date)
}
