package eventstore

import "time"

// Event is one journal record of a build.
type Event interface {
	// ID is the store-assigned sequence number, zero before the event is stored.
	ID() int64
	// BuildID names the build the event belongs to.
	BuildID() string
	// Type is the event type name.
	Type() string
	// Timestamp is when the event was stored.
	Timestamp() time.Time
	// Payload is the JSON encoded event data.
	Payload() []byte
	// Metadata holds optional string annotations.
	Metadata() map[string]string
}

// BaseEvent is the stored form of every event. Its fields never enter the
// payload.
type BaseEvent struct {
	EventID        int64             `json:"-"`
	EventBuildID   string            `json:"-"`
	EventType      string            `json:"-"`
	EventTimestamp time.Time         `json:"-"`
	EventPayload   []byte            `json:"-"`
	EventMetadata  map[string]string `json:"-"`
}

func (e *BaseEvent) ID() int64                   { return e.EventID }
func (e *BaseEvent) BuildID() string             { return e.EventBuildID }
func (e *BaseEvent) Type() string                { return e.EventType }
func (e *BaseEvent) Timestamp() time.Time        { return e.EventTimestamp }
func (e *BaseEvent) Payload() []byte             { return e.EventPayload }
func (e *BaseEvent) Metadata() map[string]string { return e.EventMetadata }
