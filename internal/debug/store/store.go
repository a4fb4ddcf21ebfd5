// Package store holds the debugger's shared state: the table of known
// sources and the table of resolved breakpoint positions. All writes go
// through Dispatch so each logical update is applied atomically and
// observers see whole actions, never partial state.
package store

import (
	"fmt"
	"sync"

	"github.com/janelledement/debugger/internal/debug/source"
)

// ActionType identifies a state-changing action.
type ActionType int

const (
	// ActionAddSource registers a source record.
	ActionAddSource ActionType = iota
	// ActionRemoveSource drops a source record and its positions.
	ActionRemoveSource
	// ActionAddBreakpointPositions publishes a resolved position set.
	ActionAddBreakpointPositions
)

// String returns the action type's wire-style name.
func (t ActionType) String() string {
	switch t {
	case ActionAddSource:
		return "ADD_SOURCE"
	case ActionRemoveSource:
		return "REMOVE_SOURCE"
	case ActionAddBreakpointPositions:
		return "ADD_BREAKPOINT_POSITIONS"
	default:
		return "UNKNOWN"
	}
}

// Action is one atomic state update.
type Action struct {
	Type      ActionType
	SourceID  string
	Source    *source.Source
	Positions source.BreakpointPositionSet
}

// AddSource builds an action registering src.
func AddSource(src *source.Source) Action {
	return Action{Type: ActionAddSource, SourceID: src.ID, Source: src}
}

// RemoveSource builds an action dropping the source with the given id.
func RemoveSource(id string) Action {
	return Action{Type: ActionRemoveSource, SourceID: id}
}

// AddBreakpointPositions builds an action publishing the resolved positions
// for src.
func AddBreakpointPositions(src *source.Source, positions source.BreakpointPositionSet) Action {
	return Action{Type: ActionAddBreakpointPositions, SourceID: src.ID, Source: src, Positions: positions}
}

// Store is the shared debugger state. All methods are safe for concurrent
// use. Source records are treated as immutable once registered.
type Store struct {
	mu        sync.RWMutex
	sources   map[string]*source.Source
	positions map[string]source.BreakpointPositionSet

	hookMu sync.RWMutex
	hooks  []func(Action)
}

// New creates an empty store.
func New() *Store {
	return &Store{
		sources:   make(map[string]*source.Source),
		positions: make(map[string]source.BreakpointPositionSet),
	}
}

// OnDispatch registers a callback invoked after every applied action.
// Callbacks run outside the write lock and must not block for long.
func (s *Store) OnDispatch(fn func(Action)) {
	s.hookMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hookMu.Unlock()
}

// Dispatch applies an action to the store.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	switch a.Type {
	case ActionAddSource:
		s.sources[a.Source.ID] = a.Source
	case ActionRemoveSource:
		delete(s.sources, a.SourceID)
		delete(s.positions, a.SourceID)
	case ActionAddBreakpointPositions:
		s.positions[a.SourceID] = a.Positions
	default:
		s.mu.Unlock()
		return fmt.Errorf("dispatch: unknown action type %d", a.Type)
	}
	s.mu.Unlock()

	s.hookMu.RLock()
	hooks := s.hooks
	s.hookMu.RUnlock()
	for _, fn := range hooks {
		fn(a)
	}
	return nil
}

// Source returns the record for a source id.
func (s *Store) Source(id string) (*source.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	return src, ok
}

// SourceByURL returns the first source whose URL matches.
func (s *Store) SourceByURL(url string) (*source.Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, src := range s.sources {
		if src.URL == url {
			return src, true
		}
	}
	return nil, false
}

// Sources returns all registered source records.
func (s *Store) Sources() []*source.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*source.Source, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, src)
	}
	return out
}

// HasPositions reports whether a resolved position set has been published
// for the source id.
func (s *Store) HasPositions(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.positions[id]
	return ok
}

// Positions returns the published position set for a source id. The
// returned slice is a copy.
func (s *Store) Positions(id string) (source.BreakpointPositionSet, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.positions[id]
	if !ok {
		return nil, false
	}
	out := make(source.BreakpointPositionSet, len(set))
	copy(out, set)
	return out, true
}
