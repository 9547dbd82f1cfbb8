/*
Package settings implements the descriptor format used to name and
constrain the fields stored in a Naomi settings image.

A descriptor file holds one logical entry per field, written as a name, a
colon and a comma separated list of clauses. Clauses declare the field
width ("nibble", "byte", "4 bytes"), whether the field is read-only
(optionally gated on another field, "read-only if Coin Chute Type is 1"),
a default ("default is 05", optionally conditional) and the allowed values
("1 to 1C", "0 - Off"). Entries may continue across physical lines; a line
without a colon extends the entry above it. Blank lines and lines starting
with "#" are ignored.

A parsed Schema pairs with raw region bytes in both directions: Unpack
reads current values out of a region and Pack writes resolved values back,
walking nibble pairs and little-endian byte fields in declaration order.
Values bound from an image live in a separate Values map keyed by setting
position, so one Schema can safely back any number of concurrent loads.
*/
package settings

import "strings"

// Size is the width class of a setting.
type Size int

// Supported setting widths. Nibbles always come in pairs sharing a byte,
// first the high half.
const (
	SizeUnknown Size = iota
	SizeNibble
	SizeByte
)

func (s Size) String() string {
	switch s {
	case SizeNibble:
		return "NIBBLE"
	case SizeByte:
		return "BYTE"
	default:
		return "UNKNOWN"
	}
}

// ReadOnlyKind classifies when a setting refuses a new value.
type ReadOnlyKind int

const (
	// ReadOnlyNever marks a freely writable setting
	ReadOnlyNever ReadOnlyKind = iota

	// ReadOnlyAlways marks a setting that only ever takes its default
	ReadOnlyAlways

	// ReadOnlyWhen marks a setting gated on another setting's value
	ReadOnlyWhen
)

// Condition references another setting by name together with the values
// that trigger it. The polarity flag follows the descriptor keyword that
// produced the condition; read-only and default clauses map the same
// keywords to opposite polarities.
type Condition struct {
	Name   string
	Values []int64
	Negate bool
}

func (c Condition) contains(v int64) bool {
	for _, value := range c.Values {
		if value == v {
			return true
		}
	}
	return false
}

// ReadOnly describes when a setting refuses writes.
type ReadOnly struct {
	Kind      ReadOnlyKind
	Condition Condition
}

// DefaultKind classifies how a setting obtains a value when none is bound.
type DefaultKind int

const (
	// DefaultNone marks a setting with no declared default
	DefaultNone DefaultKind = iota

	// DefaultLiteral marks a fixed default value
	DefaultLiteral

	// DefaultConditional marks a default chosen by an ordered rule list
	DefaultConditional
)

// DefaultRule is one conditional default; its value applies when the
// condition holds.
type DefaultRule struct {
	Condition Condition
	Value     int64
}

// Default describes the declared default of a setting.
type Default struct {
	Kind  DefaultKind
	Value int64
	Rules []DefaultRule
}

// Setting is one named field within a region. Allowed values are advisory
// metadata for display; unpacking accepts any bit pattern.
type Setting struct {
	Name     string
	Size     Size
	Length   int
	ReadOnly ReadOnly
	Values   map[int64]string
	Default  Default
}

// Schema is the ordered list of settings parsed from one descriptor file.
// It is immutable once built and safe for concurrent use; current values
// bind into a separate Values map.
type Schema struct {
	filename string
	settings []Setting
	index    map[string]int
}

// New builds a schema directly from a list of settings. Schemas built
// this way skip the reference checks Parse performs, so a condition
// naming a missing setting only surfaces when the schema is materialized.
func New(filename string, settings []Setting) *Schema {
	s := &Schema{
		filename: filename,
		settings: settings,
		index:    make(map[string]int, len(settings)),
	}
	for i := range settings {
		name := strings.ToLower(settings[i].Name)
		if _, ok := s.index[name]; !ok {
			s.index[name] = i
		}
	}
	return s
}

// Filename returns the descriptor filename the schema was parsed from.
func (s *Schema) Filename() string { return s.filename }

// Len returns the number of settings in the schema.
func (s *Schema) Len() int { return len(s.settings) }

// Settings returns the schema's settings in declaration order. The
// returned slice must not be modified.
func (s *Schema) Settings() []Setting { return s.settings }

// lookup returns the position of the first setting declared with name,
// compared case-insensitively. Descriptor files reuse placeholder names
// like "Unknown" for reserved spans, so later duplicates are reachable
// only by position.
func (s *Schema) lookup(name string) (int, bool) {
	i, ok := s.index[strings.ToLower(name)]
	return i, ok
}
