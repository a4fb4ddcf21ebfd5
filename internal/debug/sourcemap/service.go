package sourcemap

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/janelledement/debugger/internal/debug/source"
)

// DefaultCacheSize bounds the number of parsed consumers the service keeps.
const DefaultCacheSize = 64

// Loader fetches the raw source map document for a generated source.
// Implementations return ErrNoSourceMap when the source has none.
type Loader interface {
	SourceMap(ctx context.Context, generatedID string) ([]byte, error)
}

// Service answers source-map queries for the breakpoint pipeline. Parsed
// consumers are cached per generated source id; a nil cached consumer
// records that the source has no map.
type Service struct {
	loader Loader
	cache  *lru.Cache[string, *Consumer]
}

// Option configures a Service.
type Option func(*Service) error

// WithCacheSize sets the consumer cache capacity.
func WithCacheSize(size int) Option {
	return func(s *Service) error {
		cache, err := lru.New[string, *Consumer](size)
		if err != nil {
			return err
		}
		s.cache = cache
		return nil
	}
}

// NewService creates a source-map service reading maps through loader.
func NewService(loader Loader, opts ...Option) (*Service, error) {
	cache, err := lru.New[string, *Consumer](DefaultCacheSize)
	if err != nil {
		return nil, err
	}
	s := &Service{loader: loader, cache: cache}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// consumer returns the parsed map for a generated source id, loading and
// caching it on first use. A nil consumer with nil error means "no map".
func (s *Service) consumer(ctx context.Context, generatedID string) (*Consumer, error) {
	if c, ok := s.cache.Get(generatedID); ok {
		return c, nil
	}

	data, err := s.loader.SourceMap(ctx, generatedID)
	if errors.Is(err, ErrNoSourceMap) {
		s.cache.Add(generatedID, nil)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load source map for %s: %w", generatedID, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("source map for %s: %w", generatedID, err)
	}
	s.cache.Add(generatedID, c)
	return c, nil
}

// OriginalLocations translates a batch of generated-coordinate locations to
// original-coordinate locations. The result has the same length and index
// correspondence as the input; entries the map cannot translate are nil.
// Any load or parse failure fails the whole batch.
func (s *Service) OriginalLocations(ctx context.Context, locs []source.SourceLocation) ([]*source.SourceLocation, error) {
	out := make([]*source.SourceLocation, len(locs))
	for i, loc := range locs {
		c, err := s.consumer(ctx, loc.SourceID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			continue
		}
		srcIndex, origLine, origCol, ok := c.OriginalFor(loc.Line, loc.Column)
		if !ok {
			continue
		}
		out[i] = &source.SourceLocation{
			SourceID:  source.OriginalID(loc.SourceID, srcIndex),
			Line:      origLine,
			Column:    origCol,
			SourceURL: c.SourceURL(srcIndex),
		}
	}
	return out, nil
}

// GeneratedRangesForOriginal returns the ordered generated-coordinate spans
// that fully cover the original source with the given id.
func (s *Service) GeneratedRangesForOriginal(ctx context.Context, originalID string) ([]source.Range, error) {
	index, ok := source.OriginalIndex(originalID)
	if !ok {
		return nil, fmt.Errorf("generated ranges: %s is not an original source id", originalID)
	}
	generatedID := source.OriginalToGeneratedID(originalID)

	c, err := s.consumer(ctx, generatedID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("generated ranges for %s: %w", originalID, ErrNoSourceMap)
	}
	return c.GeneratedRangesFor(index), nil
}

// OriginalSourcesFor lists the original source records derivable from a
// generated source's map, with deterministic ids. It returns nil when the
// source has no map.
func (s *Service) OriginalSourcesFor(ctx context.Context, generatedID string) ([]*source.Source, error) {
	c, err := s.consumer(ctx, generatedID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	out := make([]*source.Source, 0, c.SourceCount())
	for i := 0; i < c.SourceCount(); i++ {
		out = append(out, &source.Source{
			ID:  source.OriginalID(generatedID, i),
			URL: c.SourceURL(i),
		})
	}
	return out, nil
}
