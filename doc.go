// Package arbor is a declarative lifecycle-tree scheduler: application code
// describes a tree of stateful units ("epochs") that attach children, own
// resources, and are automatically torn down and re-run when their declared
// dependencies change.
//
// An epoch runs an init body once, then re-runs its tick body whenever a
// dependency fires or it is invalidated. Before each re-run the engine
// unwinds everything the previous run attached, newest first, so a body can
// acquire resources without ever writing teardown code at the call site.
// Trees drain pending epochs in tree order, parents before children and
// earlier siblings before later ones, so re-execution is deterministic
// for a fixed attachment sequence.
//
// The reactive layer builds on that engine: State holds an equality-gated
// value, Effect re-runs a body as its dependencies change, Phase gates a
// body behind a boolean, Reaction skips the initial run, and Memo publishes
// a derived value that only propagates when it actually changes. Docks hold
// keyed child epochs whose membership changes outside the tick window.
//
// Everything is single-threaded and cooperative. A Runtime arbitrates
// flushes across the trees spawned from it; package-level constructors use
// one ambient runtime per goroutine.
package arbor
