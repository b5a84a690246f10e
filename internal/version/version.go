// Package version carries build metadata injected with -ldflags, e.g.
// go build -ldflags "-X git.home.luguber.info/inful/folio/internal/version.Version=v0.3.0".
package version

import "fmt"

// Version is the release of the folio binary.
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the metadata for --version.
func String() string {
	return fmt.Sprintf("folio %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
