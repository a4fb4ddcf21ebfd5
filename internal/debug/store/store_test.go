package store

import (
	"testing"

	"github.com/janelledement/debugger/internal/debug/source"
)

func TestStore_AddSource(t *testing.T) {
	st := New()
	src := &source.Source{ID: "source-1", URL: "bundle.js"}

	if err := st.Dispatch(AddSource(src)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	got, ok := st.Source("source-1")
	if !ok {
		t.Fatal("expected source to be registered")
	}
	if got.URL != "bundle.js" {
		t.Errorf("expected url bundle.js, got %s", got.URL)
	}
}

func TestStore_RemoveSource(t *testing.T) {
	st := New()
	src := &source.Source{ID: "source-1", URL: "bundle.js"}
	st.Dispatch(AddSource(src))
	st.Dispatch(AddBreakpointPositions(src, source.BreakpointPositionSet{}))

	if err := st.Dispatch(RemoveSource("source-1")); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	if _, ok := st.Source("source-1"); ok {
		t.Error("expected source to be removed")
	}
	if st.HasPositions("source-1") {
		t.Error("expected positions to be dropped with the source")
	}
}

func TestStore_PublishPositions(t *testing.T) {
	st := New()
	src := &source.Source{ID: "source-1", URL: "bundle.js"}
	st.Dispatch(AddSource(src))

	if st.HasPositions("source-1") {
		t.Error("expected no positions before publish")
	}

	set := source.BreakpointPositionSet{
		{Generated: source.SourceLocation{SourceID: "source-1", Line: 10, Column: 2}},
	}
	if err := st.Dispatch(AddBreakpointPositions(src, set)); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	got, ok := st.Positions("source-1")
	if !ok {
		t.Fatal("expected published positions")
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 position, got %d", len(got))
	}
	if got[0].Generated.Line != 10 {
		t.Errorf("expected line 10, got %d", got[0].Generated.Line)
	}
}

func TestStore_PositionsReturnsCopy(t *testing.T) {
	st := New()
	src := &source.Source{ID: "source-1"}
	st.Dispatch(AddSource(src))
	st.Dispatch(AddBreakpointPositions(src, source.BreakpointPositionSet{
		{Generated: source.SourceLocation{SourceID: "source-1", Line: 10, Column: 2}},
	}))

	got, _ := st.Positions("source-1")
	got[0].Generated.Line = 99

	again, _ := st.Positions("source-1")
	if again[0].Generated.Line != 10 {
		t.Error("mutating a returned set must not affect the store")
	}
}

func TestStore_SourceByURL(t *testing.T) {
	st := New()
	st.Dispatch(AddSource(&source.Source{ID: "source-1", URL: "a.js"}))
	st.Dispatch(AddSource(&source.Source{ID: "source-2", URL: "b.js"}))

	src, ok := st.SourceByURL("b.js")
	if !ok {
		t.Fatal("expected source for b.js")
	}
	if src.ID != "source-2" {
		t.Errorf("expected source-2, got %s", src.ID)
	}

	if _, ok := st.SourceByURL("missing.js"); ok {
		t.Error("expected no source for unknown url")
	}
}

func TestStore_OnDispatch(t *testing.T) {
	st := New()
	var seen []ActionType
	st.OnDispatch(func(a Action) {
		seen = append(seen, a.Type)
	})

	src := &source.Source{ID: "source-1"}
	st.Dispatch(AddSource(src))
	st.Dispatch(AddBreakpointPositions(src, nil))

	if len(seen) != 2 {
		t.Fatalf("expected 2 callbacks, got %d", len(seen))
	}
	if seen[0] != ActionAddSource || seen[1] != ActionAddBreakpointPositions {
		t.Errorf("unexpected action order: %v", seen)
	}
}

func TestStore_UnknownAction(t *testing.T) {
	st := New()
	if err := st.Dispatch(Action{Type: ActionType(99)}); err == nil {
		t.Error("expected error for unknown action type")
	}
}

func TestActionTypeString(t *testing.T) {
	tests := []struct {
		actionType ActionType
		expected   string
	}{
		{ActionAddSource, "ADD_SOURCE"},
		{ActionRemoveSource, "REMOVE_SOURCE"},
		{ActionAddBreakpointPositions, "ADD_BREAKPOINT_POSITIONS"},
		{ActionType(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if tt.actionType.String() != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, tt.actionType.String())
			}
		})
	}
}
