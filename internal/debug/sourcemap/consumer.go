// Package sourcemap consumes source map revision 3 documents: it decodes
// the VLQ mapping string into a per-line index and answers the two queries
// the breakpoint pipeline needs — translating generated positions to
// original positions, and listing the generated ranges that cover one
// original source.
package sourcemap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/janelledement/debugger/internal/debug/source"
)

// ErrNoSourceMap is returned by a Loader when a generated source has no map.
var ErrNoSourceMap = errors.New("sourcemap: source has no source map")

// mapping is one decoded segment: a generated position and, when srcIndex
// is not -1, the original position it was generated from.
type mapping struct {
	genCol   int
	srcIndex int
	origLine int
	origCol  int
}

// Consumer is an immutable, queryable view of one parsed source map.
type Consumer struct {
	file    string
	sources []string
	names   []string

	// byLine holds each generated line's mappings ordered by column;
	// lines lists the populated generated lines in ascending order.
	byLine map[int][]mapping
	lines  []int
}

// Parse decodes a source map revision 3 document.
func Parse(data []byte) (*Consumer, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("parse source map: invalid JSON")
	}
	doc := gjson.ParseBytes(data)

	if v := doc.Get("version").Int(); v != 3 {
		return nil, fmt.Errorf("parse source map: unsupported version %d", v)
	}

	root := doc.Get("sourceRoot").String()
	var sources []string
	for _, s := range doc.Get("sources").Array() {
		sources = append(sources, joinSourceRoot(root, s.String()))
	}

	var names []string
	for _, n := range doc.Get("names").Array() {
		names = append(names, n.String())
	}

	c := &Consumer{
		file:    doc.Get("file").String(),
		sources: sources,
		names:   names,
		byLine:  make(map[int][]mapping),
	}
	if err := c.decodeMappings(doc.Get("mappings").String()); err != nil {
		return nil, fmt.Errorf("parse source map: %w", err)
	}
	return c, nil
}

func joinSourceRoot(root, src string) string {
	if root == "" {
		return src
	}
	if strings.HasSuffix(root, "/") {
		return root + src
	}
	return root + "/" + src
}

// decodeMappings expands the semicolon/comma separated VLQ mapping string.
// Generated columns reset on every line; the source index and original
// line/column accumulate across the whole document.
func (c *Consumer) decodeMappings(mappings string) error {
	srcIndex := 0
	origLine := 0
	origCol := 0
	nameIndex := 0

	for genLine, lineStr := range strings.Split(mappings, ";") {
		if lineStr == "" {
			continue
		}
		genCol := 0
		for _, seg := range strings.Split(lineStr, ",") {
			pos := 0
			var fields [5]int
			n := 0
			for pos < len(seg) {
				if n == len(fields) {
					return fmt.Errorf("line %d: segment has too many fields", genLine)
				}
				v, next, err := decodeVLQ(seg, pos)
				if err != nil {
					return fmt.Errorf("line %d: %w", genLine, err)
				}
				fields[n] = v
				n++
				pos = next
			}

			switch n {
			case 1:
				genCol += fields[0]
				c.addMapping(genLine, mapping{genCol: genCol, srcIndex: -1})
			case 4, 5:
				genCol += fields[0]
				srcIndex += fields[1]
				origLine += fields[2]
				origCol += fields[3]
				if n == 5 {
					nameIndex += fields[4]
				}
				if srcIndex < 0 || srcIndex >= len(c.sources) {
					return fmt.Errorf("line %d: source index %d out of range", genLine, srcIndex)
				}
				c.addMapping(genLine, mapping{
					genCol:   genCol,
					srcIndex: srcIndex,
					origLine: origLine,
					origCol:  origCol,
				})
			default:
				return fmt.Errorf("line %d: segment has %d fields", genLine, n)
			}
		}
	}

	c.lines = make([]int, 0, len(c.byLine))
	for line := range c.byLine {
		c.lines = append(c.lines, line)
	}
	sort.Ints(c.lines)
	return nil
}

func (c *Consumer) addMapping(line int, m mapping) {
	row := c.byLine[line]
	// Mappings arrive in column order within a line; keep it that way even
	// for maps with out-of-order segments.
	i := sort.Search(len(row), func(i int) bool { return row[i].genCol > m.genCol })
	row = append(row, mapping{})
	copy(row[i+1:], row[i:])
	row[i] = m
	c.byLine[line] = row
}

// File returns the map's generated file name, if recorded.
func (c *Consumer) File() string {
	return c.file
}

// SourceCount returns the number of original sources the map references.
func (c *Consumer) SourceCount() int {
	return len(c.sources)
}

// SourceURL returns the resolved URL of the index-th original source.
func (c *Consumer) SourceURL(index int) string {
	if index < 0 || index >= len(c.sources) {
		return ""
	}
	return c.sources[index]
}

// OriginalFor translates a generated position to its original position
// using the closest mapping at or before the column on that generated
// line. ok is false when the line has no usable mapping there.
func (c *Consumer) OriginalFor(line, column int) (srcIndex, origLine, origCol int, ok bool) {
	row := c.byLine[line]
	i := sort.Search(len(row), func(i int) bool { return row[i].genCol > column })
	if i == 0 {
		return 0, 0, 0, false
	}
	m := row[i-1]
	if m.srcIndex < 0 {
		return 0, 0, 0, false
	}
	return m.srcIndex, m.origLine, m.origCol, true
}

// GeneratedRangesFor returns the ordered generated-coordinate spans covering
// the index-th original source. A span that runs to the end of a generated
// line has an end column of source.ColumnUnbounded.
func (c *Consumer) GeneratedRangesFor(srcIndex int) []source.Range {
	var ranges []source.Range
	var cur *source.Range

	flush := func() {
		if cur != nil {
			ranges = append(ranges, *cur)
			cur = nil
		}
	}

	for _, line := range c.lines {
		row := c.byLine[line]
		for i, m := range row {
			if m.srcIndex == srcIndex {
				if cur == nil {
					cur = &source.Range{Start: source.Position{Line: line, Column: m.genCol}}
				}
				if i+1 < len(row) {
					cur.End = source.Position{Line: line, Column: row[i+1].genCol}
				} else {
					cur.End = source.Position{Line: line, Column: source.ColumnUnbounded}
				}
				continue
			}
			if cur != nil {
				// A foreign mapping on the same line bounds the open span;
				// one on a later line leaves the carried end in place.
				if cur.End.Line == line {
					cur.End = source.Position{Line: line, Column: m.genCol}
				}
				flush()
			}
		}
	}
	flush()
	return ranges
}
