package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// originalMarker separates a generated source id from the original-source
// suffix. Ids containing it identify authored sources derived from a map.
const originalMarker = "/originalSource-"

// Source is the shared-state record for one source file known to the
// debugger, either a generated artifact or an original derived from its
// source map. Records are treated as immutable once registered.
type Source struct {
	// ID uniquely identifies the source. See NewGeneratedID and OriginalID.
	ID string `json:"id"`

	// URL is the source's resolved location.
	URL string `json:"url"`

	// SourceMapURL points at the generated source's map, if it has one.
	SourceMapURL string `json:"sourceMapURL,omitempty"`
}

// IsOriginal reports whether the source is an original (authored) source.
func (s *Source) IsOriginal() bool {
	return IsOriginalID(s.ID)
}

// NewGeneratedID allocates an id for a generated source.
func NewGeneratedID() string {
	return "source-" + uuid.NewString()
}

// OriginalID derives the id of the index-th original source listed in a
// generated source's map. The derivation is deterministic: the same map
// always yields the same original ids.
func OriginalID(generatedID string, index int) string {
	return fmt.Sprintf("%s%s%d", generatedID, originalMarker, index)
}

// IsOriginalID reports whether id identifies an original source.
func IsOriginalID(id string) bool {
	return strings.Contains(id, originalMarker)
}

// OriginalToGeneratedID returns the id of the generated source an original
// id was derived from. Generated ids are returned unchanged.
func OriginalToGeneratedID(id string) string {
	if i := strings.Index(id, originalMarker); i >= 0 {
		return id[:i]
	}
	return id
}

// OriginalIndex returns the source-map sources index encoded in an original
// id, and false for generated or malformed ids.
func OriginalIndex(id string) (int, bool) {
	i := strings.Index(id, originalMarker)
	if i < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(id[i+len(originalMarker):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
