// Package source defines the coordinate and identity types shared by the
// breakpoint position pipeline: locations in original and generated
// coordinate systems, generated-coordinate ranges, and the line→columns
// table returned by position fetches.
//
// Lines and columns are zero-based throughout.
package source

import (
	"fmt"
	"math"
)

// ColumnUnbounded marks a range end column that extends to the end of its
// line. Range consumers normalize it away before doing column arithmetic.
const ColumnUnbounded = math.MaxInt32

// Position is a line/column pair in a single coordinate system.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Range is a generated-coordinate span. Start is inclusive, End exclusive.
// End.Column may be ColumnUnbounded.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// SourceLocation identifies one position in one source.
type SourceLocation struct {
	SourceID  string `json:"sourceId"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// Key returns the canonical identity for this location. Two locations with
// the same key are the same logical breakpoint site.
func (l SourceLocation) Key() string {
	return fmt.Sprintf("%s:%d:%d", l.SourceID, l.Line, l.Column)
}

// MappedLocation pairs the original-coordinate and generated-coordinate
// views of one breakpoint site. Location is nil when the source map could
// not translate the generated position; the pair is kept regardless.
type MappedLocation struct {
	Location  *SourceLocation `json:"location,omitempty"`
	Generated SourceLocation  `json:"generatedLocation"`
}

// Key returns the canonical identity used for deduplication: the original
// location's key, falling back to the generated location's key when the
// position failed translation.
func (m MappedLocation) Key() string {
	if m.Location != nil {
		return m.Location.Key()
	}
	return m.Generated.Key()
}

// BreakpointPositionSet is the published artifact for one source: an
// ordered, deduplicated sequence of mapped breakpoint positions.
type BreakpointPositionSet []MappedLocation
