package breakpoints

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/janelledement/debugger/internal/debug/source"
)

// normalizeRange rewrites an unbounded end column into the first column of
// the next line, which selects the rest of the end line without relying on
// the fetcher understanding the sentinel.
func normalizeRange(rng source.Range) source.Range {
	if rng.End.Column == source.ColumnUnbounded {
		rng.End = source.Position{Line: rng.End.Line + 1, Column: 0}
	}
	return rng
}

// fetchOriginal queries positions for an original source: each generated
// range covering it is fetched from the generated source, concurrently, and
// the per-range tables are merged in range order.
func (r *Resolver) fetchOriginal(ctx context.Context, originalID string) (*source.Source, *source.LineColumnTable, error) {
	ranges, err := r.maps.GeneratedRangesForOriginal(ctx, originalID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving generated ranges for %s: %w", originalID, err)
	}

	generatedID := source.OriginalToGeneratedID(originalID)
	gen, ok := r.store.Source(generatedID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: generated source %s for %s", ErrNoSource, generatedID, originalID)
	}

	tables := make([]*source.LineColumnTable, len(ranges))
	g, gctx := errgroup.WithContext(ctx)
	for i, rng := range ranges {
		i := i
		rng := normalizeRange(rng)
		g.Go(func() error {
			table, err := r.fetcher.BreakpointPositions(gctx, gen, &rng)
			if err != nil {
				return fmt.Errorf("fetching range %d of %s: %w", i, originalID, err)
			}
			tables[i] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	merged := source.NewLineColumnTable()
	for _, table := range tables {
		merged.Merge(table)
	}
	return gen, merged, nil
}
