// Package version holds build metadata injected at link time via
// -ldflags "-X github.com/apexloop-data/setup.coach/internal/version.Version=...".
package version

var (
	// Version is the release tag, "dev" for local builds.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)
