// Package version reports the compiler version and the host platform.
package version

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
)

// Overridden at build time via -ldflags "-X viper/internal/version.Version=...".
var (
	Version    = "0.1.0-dev"
	GitCommit  = ""
	GitMessage = ""
	BuildDate  = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Semver parses Version. A malformed ldflags value is an error here rather
// than a panic at startup.
func Semver() (*semver.Version, error) {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return nil, fmt.Errorf("malformed compiler version %q: %w", Version, err)
	}
	return v, nil
}

// Colored renders MAJOR.MINOR.PATCH with one color per component; the
// prerelease and metadata suffixes stay plain.
func Colored() string {
	v, err := Semver()
	if err != nil {
		return Version
	}
	var sb strings.Builder
	sb.WriteString(majorColor.Sprint(v.Major()))
	sb.WriteByte('.')
	sb.WriteString(minorColor.Sprint(v.Minor()))
	sb.WriteByte('.')
	sb.WriteString(patchColor.Sprint(v.Patch()))
	if pre := v.Prerelease(); pre != "" {
		sb.WriteString("-" + pre)
	}
	if meta := v.Metadata(); meta != "" {
		sb.WriteString("+" + meta)
	}
	return sb.String()
}

// Platform is the host as GOOS/GOARCH.
func Platform() string { return runtime.GOOS + "/" + runtime.GOARCH }

// Write prints the --version block.
func Write(w io.Writer) {
	fmt.Fprintf(w, "viper %s\n", Colored())
	if GitCommit != "" {
		commit := GitCommit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		if GitMessage != "" {
			fmt.Fprintf(w, "commit: %s (%s)\n", commit, GitMessage)
		} else {
			fmt.Fprintf(w, "commit: %s\n", commit)
		}
	}
	if BuildDate != "" {
		fmt.Fprintf(w, "built: %s\n", BuildDate)
	}
	fmt.Fprintf(w, "platform: %s\n", Platform())
}
