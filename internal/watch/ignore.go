package watch

import (
	"path/filepath"
	"strings"
)

// ShouldIgnore reports whether a change to path cannot affect a build:
// hidden and private files, editor swap files and OS litter.
func ShouldIgnore(path, privateMarker string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case privateMarker != "" && strings.HasPrefix(base, privateMarker):
		return true
	case strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
