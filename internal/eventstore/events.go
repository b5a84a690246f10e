package eventstore

import (
	"encoding/json"
	"time"
)

// Event type names.
const (
	TypeBuildStarted   = "BuildStarted"
	TypeEntryRejected  = "EntryRejected"
	TypeDocumentFailed = "DocumentFailed"
	TypeBuildCompleted = "BuildCompleted"
)

// BuildStarted is recorded before any collection is ingested.
type BuildStarted struct {
	BaseEvent
	Root        string   `json:"root"`
	Collections []string `json:"collections"`
	Workers     int      `json:"workers"`
}

// NewBuildStarted creates a BuildStarted event.
func NewBuildStarted(buildID, root string, collections []string, workers int) (*BuildStarted, error) {
	e := &BuildStarted{Root: root, Collections: collections, Workers: workers}
	return e, e.seal(buildID, TypeBuildStarted, e)
}

// EntryRejected is recorded for every entry ingestion refused: invalid data,
// a duplicate identifier or an unreadable file.
type EntryRejected struct {
	BaseEvent
	Collection string   `json:"collection"`
	Entry      string   `json:"entry"`
	Path       string   `json:"path,omitempty"`
	Problems   []string `json:"problems"`
}

// NewEntryRejected creates an EntryRejected event.
func NewEntryRejected(buildID, collection, entry, path string, problems []string) (*EntryRejected, error) {
	e := &EntryRejected{Collection: collection, Entry: entry, Path: path, Problems: problems}
	return e, e.seal(buildID, TypeEntryRejected, e)
}

// DocumentFailed is recorded when a stage aborts a document.
type DocumentFailed struct {
	BaseEvent
	Collection string `json:"collection"`
	Entry      string `json:"entry"`
	Stage      string `json:"stage"`
	Position   string `json:"position,omitempty"`
	Error      string `json:"error"`
}

// NewDocumentFailed creates a DocumentFailed event.
func NewDocumentFailed(buildID, collection, entry, stage, position, msg string) (*DocumentFailed, error) {
	e := &DocumentFailed{Collection: collection, Entry: entry, Stage: stage, Position: position, Error: msg}
	return e, e.seal(buildID, TypeDocumentFailed, e)
}

// BuildCompleted closes a build. Status is "succeeded" or "failed".
type BuildCompleted struct {
	BaseEvent
	Status     string        `json:"status"`
	Entries    int           `json:"entries"`
	Rendered   int           `json:"rendered"`
	Rejected   int           `json:"rejected"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
}

// NewBuildCompleted creates a BuildCompleted event.
func NewBuildCompleted(buildID, status string, entries, rendered, rejected, failed int, duration time.Duration) (*BuildCompleted, error) {
	e := &BuildCompleted{
		Status:     status,
		Entries:    entries,
		Rendered:   rendered,
		Rejected:   rejected,
		Failed:     failed,
		Duration:   duration,
		DurationMS: duration.Milliseconds(),
	}
	return e, e.seal(buildID, TypeBuildCompleted, e)
}

// seal fills the base fields and encodes v, the enclosing event, as payload.
func (e *BaseEvent) seal(buildID, eventType string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return wrap(ErrMarshalPayloadFailed, err).
			WithContext("build_id", buildID).
			WithContext("event_type", eventType).
			Build()
	}
	e.EventBuildID = buildID
	e.EventType = eventType
	e.EventTimestamp = time.Now()
	e.EventPayload = payload
	return nil
}

// Decode returns the typed form of a stored event. Unknown types are
// returned unchanged.
func Decode(e Event) (Event, error) {
	var typed interface {
		Event
		base() *BaseEvent
	}
	switch e.Type() {
	case TypeBuildStarted:
		typed = &BuildStarted{}
	case TypeEntryRejected:
		typed = &EntryRejected{}
	case TypeDocumentFailed:
		typed = &DocumentFailed{}
	case TypeBuildCompleted:
		typed = &BuildCompleted{}
	default:
		return e, nil
	}
	if err := json.Unmarshal(e.Payload(), typed); err != nil {
		return nil, wrap(ErrUnmarshalPayloadFailed, err).
			WithContext("event_type", e.Type()).
			WithContext("event_id", e.ID()).
			Build()
	}
	*typed.base() = BaseEvent{
		EventID:        e.ID(),
		EventBuildID:   e.BuildID(),
		EventType:      e.Type(),
		EventTimestamp: e.Timestamp(),
		EventPayload:   e.Payload(),
		EventMetadata:  e.Metadata(),
	}
	if c, ok := typed.(*BuildCompleted); ok {
		c.Duration = time.Duration(c.DurationMS) * time.Millisecond
	}
	return typed, nil
}

func (e *BaseEvent) base() *BaseEvent { return e }
