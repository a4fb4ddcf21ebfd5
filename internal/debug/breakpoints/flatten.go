package breakpoints

import "github.com/janelledement/debugger/internal/debug/source"

// flatten turns a line/column table into a flat location list, lines
// ascending and columns in the order the fetcher reported them.
func flatten(table *source.LineColumnTable, gen *source.Source) []source.SourceLocation {
	locs := make([]source.SourceLocation, 0, table.Len())
	for _, line := range table.Lines() {
		for _, col := range table.Columns(line) {
			locs = append(locs, source.SourceLocation{
				SourceID:  gen.ID,
				Line:      line,
				Column:    col,
				SourceURL: gen.URL,
			})
		}
	}
	return locs
}

// pair zips generated locations with their translations by index. A nil
// translation leaves the mapped location with only its generated half.
func pair(generated []source.SourceLocation, originals []*source.SourceLocation) source.BreakpointPositionSet {
	set := make(source.BreakpointPositionSet, len(generated))
	for i, gen := range generated {
		set[i] = source.MappedLocation{
			Location:  originals[i],
			Generated: gen,
		}
	}
	return set
}

// dedupe drops positions whose location key was already seen, keeping the
// first occurrence. Two generated positions that map to the same original
// location collapse into one; positions without a translation key on their
// generated coordinates and so never collide with mapped ones.
func dedupe(set source.BreakpointPositionSet) source.BreakpointPositionSet {
	seen := make(map[string]struct{}, len(set))
	out := make(source.BreakpointPositionSet, 0, len(set))
	for _, pos := range set {
		key := pos.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, pos)
	}
	return out
}
