package schema

import (
	"strconv"
	"strings"
)

// Segment is one step of a Path: either an object key or an array index.
type Segment struct {
	key     string
	index   int
	isIndex bool
}

// Key returns an object-key segment.
func Key(name string) Segment { return Segment{key: name} }

// Index returns an array-index segment.
func Index(i int) Segment { return Segment{index: i, isIndex: true} }

// IsIndex reports whether the segment addresses an array element.
func (s Segment) IsIndex() bool { return s.isIndex }

// Name returns the key of a key segment.
func (s Segment) Name() string { return s.key }

// Position returns the index of an index segment.
func (s Segment) Position() int { return s.index }

// Path locates a value inside a record, e.g. experience[1].company.
type Path []Segment

// Key returns a copy of p extended with an object key.
func (p Path) Key(name string) Path { return p.append(Key(name)) }

// Index returns a copy of p extended with an array index.
func (p Path) Index(i int) Path { return p.append(Index(i)) }

func (p Path) append(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// String renders the path in dotted form with bracketed indices.
func (p Path) String() string {
	if len(p) == 0 {
		return "(root)"
	}
	var b strings.Builder
	for i, s := range p {
		if s.isIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.key)
	}
	return b.String()
}
