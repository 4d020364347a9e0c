// Package version holds build information for ggpbench. Values are injected at
// link time with -ldflags "-X ggpbench/internal/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Build information set at link time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info describes the running binary.
type Info struct {
	Version   string          `json:"version"`
	GitCommit string          `json:"git_commit"`
	BuildDate string          `json:"build_date"`
	GoVersion string          `json:"go_version"`
	Platform  string          `json:"platform"`
	SemVer    *semver.Version `json:"-"`
}

// GetInfo parses Version and returns the build information.
func GetInfo() (*Info, error) {
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	return &Info{
		Version:   sv.String(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		SemVer:    sv,
	}, nil
}

// Short returns "ggpbench v<version>", with the short commit when known.
func Short() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("ggpbench v%s (invalid version)", Version)
	}
	if !known(info.GitCommit) {
		return "ggpbench v" + info.Version
	}
	commit := info.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	return fmt.Sprintf("ggpbench v%s (%s)", info.Version, commit)
}

// Detailed returns multi-line build information for `ggpbench version --detailed`.
func Detailed() string {
	info, err := GetInfo()
	if err != nil {
		return fmt.Sprintf("ggpbench v%s (error: %v)", Version, err)
	}

	lines := []string{
		"ggpbench v" + info.Version,
		"Git Commit: " + info.GitCommit,
		"Build Date: " + info.BuildDate,
	}
	if pre := info.SemVer.Prerelease(); pre != "" {
		lines = append(lines, "Prerelease: "+pre)
	}
	if meta := info.SemVer.Metadata(); meta != "" {
		lines = append(lines, "Build Metadata: "+meta)
	}
	lines = append(lines, "Go Version: "+info.GoVersion, "Platform: "+info.Platform)
	if IsDevelopment() {
		lines = append(lines, "Development build")
	}
	return strings.Join(lines, "\n")
}

// IsDevelopment reports whether the binary was built without release information.
func IsDevelopment() bool {
	return !known(GitCommit) || !known(BuildDate)
}

// Satisfies reports whether the running version matches a semver constraint such
// as ">= 0.1, < 1".
func Satisfies(constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("invalid version constraint '%s': %w", constraint, err)
	}
	sv, err := semver.NewVersion(Version)
	if err != nil {
		return false, fmt.Errorf("invalid semantic version '%s': %w", Version, err)
	}
	return c.Check(sv), nil
}

// SetBuildInfo overrides the build information. Used by tests.
func SetBuildInfo(version, gitCommit, buildDate string) {
	Version = version
	GitCommit = gitCommit
	BuildDate = buildDate
}

func known(s string) bool {
	return s != "" && s != "unknown"
}
