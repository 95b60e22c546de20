// Package version holds the build version of cristal-ref.
package version

// Version is the semantic version, overridden at build time with
// -ldflags "-X github.com/xwiki-contrib/cristal-go/internal/version.Version=...".
var Version = "0.1.0-dev"

// GitCommit is the commit the binary was built from, set at build time.
var GitCommit = ""

// FullVersion returns Version with the commit appended when known.
func FullVersion() string {
	if GitCommit == "" {
		return Version
	}
	return Version + " (" + GitCommit + ")"
}
