// Package version provides build-time metadata for coolproxy binaries.
package version

import (
	"fmt"
	"runtime"
)

// The following are overridden via -ldflags at build time.
var (
	gitCommit = "local"
	buildDate = "unknown"
)

// GetVersion returns a one-line version string suitable for app.Version
// and startup log lines.
func GetVersion() string {
	return fmt.Sprintf("coolproxy/%s-%s %s", gitCommit, buildDate, runtime.Version())
}
