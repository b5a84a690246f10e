// Package pipeline holds the ordered stage registry and the executor that
// drives one document from its source tree to its render tree.
//
// Stage order is part of the contract. A registry is an explicit ordered list
// checked at construction against the dependencies every stage declares, so a
// reordering that breaks a producer/consumer relationship fails at startup
// instead of producing wrong output.
package pipeline

// Phase is the half of the pipeline a stage runs in.
type Phase string

const (
	// PreConversion stages mutate the goldmark source tree.
	PreConversion Phase = "pre-conversion"
	// PostConversion stages mutate the HTML render tree.
	PostConversion Phase = "post-conversion"
)

// PhaseOrder defines the execution order of phases.
var PhaseOrder = []Phase{PreConversion, PostConversion}

// PhaseIndex returns the position of p in PhaseOrder, or -1.
func PhaseIndex(p Phase) int {
	for i, q := range PhaseOrder {
		if q == p {
			return i
		}
	}
	return -1
}

// Capability names a structural property of the tree that a stage produces
// and other stages consume.
type Capability string

const (
	CapAttributes       Capability = "attributes"
	CapMath             Capability = "math"
	CapFootnoteRefs     Capability = "footnote-refs"
	CapTablesNormalized Capability = "tables-normalized"
	CapHeadingIDs       Capability = "heading-ids"
	CapHeadingAnchors   Capability = "heading-anchors"
	// CapLinks is provided by every stage that can introduce new links.
	CapLinks Capability = "links"
)

// Dependencies declares ordering constraints and capabilities of a stage.
type Dependencies struct {
	// MustRunAfter lists stage names that must be registered and run earlier.
	MustRunAfter []string

	// MustRunBefore lists stage names that must be registered and run later.
	MustRunBefore []string

	// Provides lists the capabilities the stage establishes on the tree.
	Provides []Capability

	// Requires lists capabilities that at least one earlier stage must
	// provide. Every registered provider must run earlier.
	Requires []Capability

	// Follows lists capabilities whose registered providers, if any, must
	// all run earlier. An absent provider is not an error.
	Follows []Capability

	// Terminal marks a stage that must be the last of its phase.
	Terminal bool
}

// Stage is one named, independently configured transform.
type Stage interface {
	// Name returns the unique, kebab-case stage identifier.
	Name() string

	// Phase returns the phase the stage runs in.
	Phase() Phase

	// Dependencies declares ordering constraints and capabilities.
	Dependencies() Dependencies

	// Config returns the stage's effective options, keyed the way they are
	// published on the registry surface.
	Config() map[string]any
}

// SourceStage transforms the document's source tree in place.
type SourceStage interface {
	Stage
	TransformSource(doc *Document) error
}

// RenderStage transforms the document's render tree in place.
type RenderStage interface {
	Stage
	TransformRender(doc *Document) error
}
