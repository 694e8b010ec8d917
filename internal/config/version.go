package config

import "fmt"

// Build metadata, stamped at link time:
//
//	go build -ldflags "-X github.com/bobmcallan/mcp-workbench/internal/config.Version=1.2.0"
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the release version.
func GetVersion() string { return Version }

// GetBuild returns the build timestamp.
func GetBuild() string { return Build }

// GetGitCommit returns the commit the binary was built from.
func GetGitCommit() string { return GitCommit }

// GetFullVersion returns the version with build and commit, as printed by -version.
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", Version, Build, GitCommit)
}
