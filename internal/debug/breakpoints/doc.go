// Package breakpoints resolves the set of valid breakpoint positions for a
// source.
//
// Generated sources are queried directly: the debug server reports the
// line/column offsets where execution can pause. Original (authored)
// sources have no runtime positions of their own; the resolver asks the
// source-map service which generated ranges cover the original, queries
// positions inside each range, and maps the results back to original
// coordinates.
//
// Resolution for a source id runs at most once at a time. Concurrent
// callers for the same id share the in-flight result, and completed
// results are published to the shared store so later calls return without
// touching any collaborator. Any collaborator failure aborts the whole
// resolution for every waiter; nothing partial is ever published.
package breakpoints
