package eventstore

import (
	ferrors "git.home.luguber.info/inful/folio/internal/foundation/errors"
)

// Sentinel errors for journal operations. Errors returned by the store wrap
// their cause under the same category and message, so errors.Is matches them.
var (
	// ErrDatabaseOpenFailed indicates the SQLite database could not be opened.
	ErrDatabaseOpenFailed = ferrors.EventStoreError("could not open event store database").Build()

	// ErrInitializeSchemaFailed indicates the database schema could not be initialized.
	ErrInitializeSchemaFailed = ferrors.EventStoreError("failed to initialize event store schema").Build()

	// ErrEventAppendFailed indicates appending an event failed.
	ErrEventAppendFailed = ferrors.EventStoreError("failed to append event to store").Build()

	// ErrEventQueryFailed indicates querying events failed.
	ErrEventQueryFailed = ferrors.EventStoreError("failed to query events from store").Build()

	// ErrMarshalPayloadFailed indicates JSON marshaling of an event payload failed.
	ErrMarshalPayloadFailed = ferrors.EventStoreError("failed to marshal event payload").Build()

	// ErrUnmarshalPayloadFailed indicates a stored payload could not be decoded.
	ErrUnmarshalPayloadFailed = ferrors.EventStoreError("failed to unmarshal event payload").Build()
)

// wrap returns a copy of sentinel carrying cause.
func wrap(sentinel *ferrors.ClassifiedError, cause error) *ferrors.ErrorBuilder {
	return ferrors.WrapError(cause, sentinel.Category(), sentinel.Message())
}
