package breakpoints

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/janelledement/debugger/internal/debug/source"
	"github.com/janelledement/debugger/internal/debug/store"
)

// ErrNoSource indicates the store holds no source record for the id a
// resolution needs.
var ErrNoSource = errors.New("breakpoints: no such source")

// ErrMappingMismatch indicates the map service returned a translation batch
// whose length does not match the request batch.
var ErrMappingMismatch = errors.New("breakpoints: mapping batch length mismatch")

// PositionFetcher queries a debug server for the breakpoint positions of a
// generated source, optionally limited to a range. A nil range means the
// whole source.
type PositionFetcher interface {
	BreakpointPositions(ctx context.Context, src *source.Source, rng *source.Range) (*source.LineColumnTable, error)
}

// MapService translates generated locations to original ones and reports
// which generated ranges cover an original source.
type MapService interface {
	OriginalLocations(ctx context.Context, locs []source.SourceLocation) ([]*source.SourceLocation, error)
	GeneratedRangesForOriginal(ctx context.Context, originalID string) ([]source.Range, error)
}

// Resolver computes and publishes breakpoint position sets.
type Resolver struct {
	store   *store.Store
	fetcher PositionFetcher
	maps    MapService
	group   singleflight.Group
}

// NewResolver creates a resolver backed by the given store, fetcher, and map
// service.
func NewResolver(st *store.Store, fetcher PositionFetcher, maps MapService) *Resolver {
	return &Resolver{
		store:   st,
		fetcher: fetcher,
		maps:    maps,
	}
}

// ResolvePositions returns the breakpoint positions for the source with the
// given id, computing and publishing them on first use.
//
// A set already published for the id is returned as-is. Otherwise the
// resolution runs once, no matter how many goroutines ask concurrently; all
// of them receive the same set or the same error. A failed resolution is not
// cached, so a later call retries from scratch.
func (r *Resolver) ResolvePositions(ctx context.Context, sourceID string) (source.BreakpointPositionSet, error) {
	if positions, ok := r.store.Positions(sourceID); ok {
		return positions, nil
	}

	v, err, _ := r.group.Do(sourceID, func() (any, error) {
		// A resolution that finished between the outer check and
		// joining the group already published; don't compute twice.
		if positions, ok := r.store.Positions(sourceID); ok {
			return positions, nil
		}
		return r.resolve(ctx, sourceID)
	})
	if err != nil {
		return nil, err
	}
	return v.(source.BreakpointPositionSet), nil
}

// resolve computes the position set for sourceID and publishes it unless the
// source disappeared from the store while the computation ran.
func (r *Resolver) resolve(ctx context.Context, sourceID string) (source.BreakpointPositionSet, error) {
	var (
		gen   *source.Source
		table *source.LineColumnTable
		err   error
	)
	if source.IsOriginalID(sourceID) {
		gen, table, err = r.fetchOriginal(ctx, sourceID)
	} else {
		gen, table, err = r.fetchGenerated(ctx, sourceID)
	}
	if err != nil {
		return nil, err
	}

	generated := flatten(table, gen)

	originals, err := r.maps.OriginalLocations(ctx, generated)
	if err != nil {
		return nil, fmt.Errorf("translating %d positions for %s: %w", len(generated), sourceID, err)
	}
	if len(originals) != len(generated) {
		return nil, fmt.Errorf("%w: got %d translations for %d positions", ErrMappingMismatch, len(originals), len(generated))
	}

	positions := dedupe(pair(generated, originals))

	// The source may have been removed while we were fetching. The caller
	// still gets the computed set, but a gone source keeps nothing.
	src, ok := r.store.Source(sourceID)
	if !ok {
		return positions, nil
	}
	if err := r.store.Dispatch(store.AddBreakpointPositions(src, positions)); err != nil {
		return nil, fmt.Errorf("publishing positions for %s: %w", sourceID, err)
	}
	return positions, nil
}

// fetchGenerated queries the whole generated source in one request.
func (r *Resolver) fetchGenerated(ctx context.Context, sourceID string) (*source.Source, *source.LineColumnTable, error) {
	src, ok := r.store.Source(sourceID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoSource, sourceID)
	}
	table, err := r.fetcher.BreakpointPositions(ctx, src, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching positions for %s: %w", sourceID, err)
	}
	return src, table, nil
}
