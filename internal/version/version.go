// Package version holds build version information.
package version

// Version is the vmgrader version, overridden at build time with
// -ldflags "-X github.com/vmgrader/vmgrader/internal/version.Version=...".
var Version = "dev"
