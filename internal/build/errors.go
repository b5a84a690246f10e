package build

import (
	ferrors "git.home.luguber.info/inful/folio/internal/foundation/errors"
)

var (
	// ErrBuildFailed is returned when a build finished with reported problems.
	ErrBuildFailed = ferrors.BuildError("build finished with problems").Build()

	// ErrOutputFailed indicates the output directory could not be written.
	ErrOutputFailed = ferrors.FileSystemError("failed to write build output").Build()
)
