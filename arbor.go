package arbor

import (
	"io"
	"reflect"

	"github.com/loamlabs/arbor/internal"
)

func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}

	return v.(T)
}

// typeKey identifies exports by their Go type.
func typeKey[T any]() any {
	return reflect.TypeOf((*T)(nil))
}

// Engine value types and errors, re-exported as-is.
type (
	Coord      = internal.Coord
	EpochState = internal.EpochState
	Handle     = internal.Handle
	Logger     = internal.Logger
	NopLogger  = internal.NopLogger
	FaultError = internal.FaultError
	LoopError  = internal.LoopError
	UseError   = internal.UseError
	Frame      = internal.Frame
	FrameKind  = internal.FrameKind

	RuntimeOption = internal.RuntimeOption
	TreeOption    = internal.TreeOption
)

const (
	StateUnattached   = internal.StateUnattached
	StateInitializing = internal.StateInitializing
	StateIdle         = internal.StateIdle
	StateTicking      = internal.StateTicking
	StateFaulted      = internal.StateFaulted
	StateDetached     = internal.StateDetached
)

const (
	FrameBootstrap  = internal.FrameBootstrap
	FrameInit       = internal.FrameInit
	FrameTick       = internal.FrameTick
	FrameDockMutate = internal.FrameDockMutate
)

// Tick re-runs an epoch's recurring work.
type Tick func(*Scope)

// Init performs an epoch's one-time setup and returns its tick body. A nil
// Tick means the epoch only ever runs its init.
type Init func(*Scope) Tick

func wrapInit(init Init) internal.Init {
	return func(sc *internal.Scope) internal.Tick {
		tick := init(&Scope{sc})
		if tick == nil {
			return nil
		}
		return func(sc *internal.Scope) { tick(&Scope{sc}) }
	}
}

// Scope is the mutation capability handed to every init and tick body. It
// is only valid while its body runs: the engine seals it on return, and any
// later use panics with a *UseError.
type Scope struct {
	sc *internal.Scope
}

// OnCleanup records fn to run when this attachment unwinds. Attachments
// from one run unwind in reverse order.
func (s *Scope) OnCleanup(fn func()) { s.sc.OnCleanup(fn) }

// Own ties a closer's lifetime to this attachment. Close errors are logged,
// never propagated.
func (s *Scope) Own(c io.Closer) { s.sc.Own(c) }

// Retain ties a handle's lifetime to this attachment.
func (s *Scope) Retain(h Handle) { s.sc.Retain(h) }

// Attach adds a child epoch under this one and runs its init now. The child
// detaches when this attachment unwinds.
func (s *Scope) Attach(label string, init Init) (*Epoch, error) {
	ep, err := s.sc.Attach(label, wrapInit(init))
	return &Epoch{ep}, err
}

// Invalidate asks the scheduler to re-run this epoch's tick body.
func (s *Scope) Invalidate() { s.sc.Invalidate() }

// Epoch returns the epoch this scope mutates.
func (s *Scope) Epoch() *Epoch { return &Epoch{s.sc.Epoch()} }

// Export publishes a value visible to this epoch's descendants and to
// anything attached under it from this point on. Exports are keyed by Go
// type; a later export of the same type shadows earlier ones.
func Export[T any](s *Scope, v T) {
	s.sc.Export(typeKey[T](), v)
}

// Import resolves the nearest visible export of T: this epoch's own exports
// newest first, then each ancestor's exports from just before the point
// this branch was attached. Missing an export is a programming error and
// panics; use TryImport when absence is expected.
func Import[T any](s *Scope) T {
	return as[T](s.sc.Import(typeKey[T]()))
}

// TryImport resolves the nearest visible export of T, reporting whether one
// was found.
func TryImport[T any](s *Scope) (T, bool) {
	v, ok := s.sc.TryImport(typeKey[T]())
	if !ok {
		var zero T
		return zero, false
	}
	return as[T](v), true
}

// Runtime owns a set of trees and arbitrates their flushes: one at a time,
// lower layers nesting inline, everything else deferred in spawn order.
// Package-level constructors use the calling goroutine's ambient runtime;
// construct one explicitly to inject a logger or tune the pass bound.
type Runtime struct {
	rt *internal.Runtime
}

func NewRuntime(opts ...RuntimeOption) *Runtime {
	return &Runtime{internal.NewRuntime(opts...)}
}

// NewTree spawns a lifecycle tree and synchronously runs init as its root.
// On a root init fault the tree is still returned alongside the error, so
// the host can inspect or dispose it.
func (r *Runtime) NewTree(label string, init Init, opts ...TreeOption) (*Tree, error) {
	t, err := r.rt.NewTree(label, wrapInit(init), opts...)
	return &Tree{t}, err
}

// Batch runs fn with flushing held; writes inside coalesce into one flush.
func (r *Runtime) Batch(fn func()) { r.rt.Batch(fn) }

// Hold suppresses flushing until the matching Release. Holds nest.
func (r *Runtime) Hold() { r.rt.Hold() }

// Release undoes one Hold. Dropping the last hold drains whatever queued
// up while it was held.
func (r *Runtime) Release() { r.rt.Release() }

// Settled runs fn once, after the engine next goes quiet: no flush running,
// no holds, no deferred trees.
func (r *Runtime) Settled(fn func()) { r.rt.Settled(fn) }

// Trace formats what the engine is doing right now, outermost frame first.
func (r *Runtime) Trace() string { return r.rt.Trace() }

// NewTree spawns a tree on the goroutine's ambient runtime.
func NewTree(label string, init Init, opts ...TreeOption) (*Tree, error) {
	t, err := internal.GetRuntime().NewTree(label, wrapInit(init), opts...)
	return &Tree{t}, err
}

// Batch runs fn on the goroutine's ambient runtime with flushing held;
// writes inside coalesce into one flush.
func Batch(fn func()) {
	internal.GetRuntime().Batch(fn)
}

// Settled runs fn once the goroutine's ambient runtime goes quiet.
func Settled(fn func()) {
	internal.GetRuntime().Settled(fn)
}

// Untrack runs fn without recording reactive dependencies.
func Untrack[T any](fn func() T) T {
	var result T
	internal.GetRuntime().Untrack(func() { result = fn() })
	return result
}

// Tree is one schedulable lifecycle tree: a root epoch plus a flush policy.
type Tree struct {
	t *internal.Tree
}

// Flush asks the runtime to drain the tree's pending work now, subject to
// holds and the layer rule like any other request. A deferred flush returns
// nil and runs later.
func (t *Tree) Flush() error { return t.t.Flush() }

// Tick runs at most one pending epoch and reports whether it did, for
// manual trees pumped by a host loop.
func (t *Tree) Tick() bool { return t.t.Tick() }

// Dispose detaches the whole tree and drops any pending work. Idempotent.
func (t *Tree) Dispose() { t.t.Dispose() }

// Err returns the root epoch's fault, if any.
func (t *Tree) Err() error { return t.t.Err() }

// Root returns the tree's root epoch.
func (t *Tree) Root() *Epoch { return &Epoch{t.t.Root()} }

// Render draws the tree's live epochs for diagnostics, one line each.
func (t *Tree) Render() string { return t.t.Render() }

// Epoch is a handle on one unit of a lifecycle tree.
type Epoch struct {
	ep *internal.Epoch
}

func (e *Epoch) Label() string     { return e.ep.Label() }
func (e *Epoch) Coord() Coord      { return e.ep.Coord() }
func (e *Epoch) State() EpochState { return e.ep.State() }

// Err returns the fault that stopped this epoch, if any.
func (e *Epoch) Err() error { return e.ep.Err() }

// Detach tears the epoch down, unwinding every attachment newest first.
// Safe to call from anywhere, including the epoch's own body. Idempotent.
func (e *Epoch) Detach() { e.ep.Detach() }

// Dock holds keyed child epochs that attach and detach outside the tick
// window, for collections whose membership is driven by external events.
type Dock struct {
	d *internal.Dock
}

// NewDock creates a dock on the scope's epoch. Dock children tick in
// attachment order and detach in reverse when the dock unwinds.
func NewDock(at *Scope) *Dock {
	return &Dock{internal.NewDock(at.sc)}
}

// Set attaches a child under key, detaching any previous occupant first.
// The child sees every export the dock's epoch has published so far.
func (d *Dock) Set(key any, init Init) (*Epoch, error) {
	ep, err := d.d.Set(key, wrapInit(init))
	return &Epoch{ep}, err
}

// Drop detaches and removes the child under key, if any.
func (d *Dock) Drop(key any) { d.d.Drop(key) }

// Get returns the live child under key.
func (d *Dock) Get(key any) (*Epoch, bool) {
	ep, ok := d.d.Get(key)
	if !ok {
		return nil, false
	}
	return &Epoch{ep}, true
}

// Len reports the number of live children.
func (d *Dock) Len() int { return d.d.Len() }

// Dep is a static dependency handed to a computation constructor. Triggers,
// states, and memos all satisfy it.
type Dep interface {
	dep() *internal.Trigger
}

func statics(ds []Dep) []*internal.Trigger {
	if len(ds) == 0 {
		return nil
	}
	out := make([]*internal.Trigger, len(ds))
	for i, d := range ds {
		out[i] = d.dep()
	}
	return out
}

// Trigger is a multicast event source carrying values of T.
type Trigger[T any] struct {
	tr *internal.Trigger
}

func NewTrigger[T any]() *Trigger[T] {
	return &Trigger[T]{internal.NewTrigger()}
}

// Fire delivers v to every current subscriber in subscription order.
// Re-entrant fires queue up and drain one at a time; subscribers added or
// removed mid-dispatch only affect later fires.
func (t *Trigger[T]) Fire(v T) { t.tr.Fire(v) }

// Subscribe registers fn for every later fire. Release the handle, or
// Retain it on a scope, to unsubscribe.
func (t *Trigger[T]) Subscribe(fn func(T)) Handle {
	return t.tr.Subscribe(func(v any) { fn(as[T](v)) })
}

func (t *Trigger[T]) dep() *internal.Trigger { return t.tr }

// State is a value container that notifies on change. Writes of an equal
// value are dropped, so T must be comparable.
type State[T any] struct {
	st *internal.State
}

func NewState[T any](initial T) *State[T] {
	return &State[T]{internal.NewState(initial)}
}

// Get returns the current value, tracking it as a dependency when read
// inside a computation body.
func (s *State[T]) Get() T { return as[T](s.st.Get()) }

// Peek returns the current value without tracking anything.
func (s *State[T]) Peek() T { return as[T](s.st.Peek()) }

// Set writes a new value and notifies dependents, unless it equals the
// current one.
func (s *State[T]) Set(v T) { s.st.Set(v) }

// Subscribe registers fn for every actual change of the value. Release the
// handle, or Retain it on a scope, to unsubscribe.
func (s *State[T]) Subscribe(fn func(T)) Handle {
	return s.st.Trigger().Subscribe(func(v any) { fn(as[T](v)) })
}

func (s *State[T]) dep() *internal.Trigger { return s.st.Trigger() }

// comp is the shared handle of the computation kinds.
type comp struct {
	c *internal.Computation
}

// Epoch returns the computation's epoch.
func (h comp) Epoch() *Epoch { return &Epoch{h.c.Epoch()} }

// Detach stops the computation and unwinds everything its runs attached.
func (h comp) Detach() { h.c.Epoch().Detach() }

// Err returns the fault that stopped the computation, if any.
func (h comp) Err() error { return h.c.Epoch().Err() }

func bodyOf(body func(*Scope)) func(*internal.Scope) any {
	return func(sc *internal.Scope) any {
		body(&Scope{sc})
		return nil
	}
}

// Effect re-runs its body whenever a dependency changes. The body runs once
// at attach; states it reads while running become its dependencies for the
// next run, and extra deps subscribe statically for its whole life.
type Effect struct{ comp }

func NewEffect(at *Scope, body func(*Scope), deps ...Dep) (*Effect, error) {
	c, err := internal.NewComputation(at.sc, internal.CompEffect, bodyOf(body), statics(deps), nil)
	return &Effect{comp{c}}, err
}

// Phase is an effect gated by a boolean state: the body only executes while
// the gate is true, but the epoch still re-evaluates on every gate or
// dependency change, tearing down whatever the previous run attached.
type Phase struct{ comp }

func NewPhase(at *Scope, gate *State[bool], body func(*Scope), deps ...Dep) (*Phase, error) {
	c, err := internal.NewComputation(at.sc, internal.CompPhase, bodyOf(body), statics(deps), gate.st)
	return &Phase{comp{c}}, err
}

// Reaction is an effect whose first run is a no-op: only dependency-driven
// re-runs execute the body. The deps passed here drive the first re-run,
// since a body that never ran cannot have discovered its own.
type Reaction struct{ comp }

func NewReaction(at *Scope, body func(*Scope), deps ...Dep) (*Reaction, error) {
	c, err := internal.NewComputation(at.sc, internal.CompReaction, bodyOf(body), statics(deps), nil)
	return &Reaction{comp{c}}, err
}

// Memo is a computation that reads as a signal: it recomputes a value from
// its dependencies and publishes it through an equality-gated state, so
// consumers only hear about actual changes.
type Memo[T any] struct{ comp }

func NewMemo[T any](at *Scope, compute func(*Scope) T) (*Memo[T], error) {
	c, err := internal.NewComputation(at.sc, internal.CompMemo, func(sc *internal.Scope) any {
		return compute(&Scope{sc})
	}, nil, nil)
	return &Memo[T]{comp{c}}, err
}

// Get returns the memo's current value, tracking it as a dependency when
// read inside a computation body.
func (m *Memo[T]) Get() T { return as[T](m.c.Out().Get()) }

// Peek returns the memo's current value without tracking anything.
func (m *Memo[T]) Peek() T { return as[T](m.c.Out().Peek()) }

func (m *Memo[T]) dep() *internal.Trigger { return m.c.Out().Trigger() }

// WithLogger replaces a runtime's default stderr logger.
func WithLogger(l Logger) RuntimeOption { return internal.WithLogger(l) }

// WithMaxPasses overrides a runtime's flush pass bound (default 1000).
func WithMaxPasses(n int) RuntimeOption { return internal.WithMaxPasses(n) }

// WithLayer sets a tree's priority layer. Lower layers flush first: a flush
// request from a lower layer runs inline inside a higher layer's flush,
// never the other way around.
func WithLayer(n int) TreeOption { return internal.WithLayer(n) }

// Manual makes a tree host-driven: pending work waits for Flush or Tick.
func Manual() TreeOption { return internal.Manual() }

// Seed publishes v on a tree's root before its init runs, keyed by type
// like Export.
func Seed[T any](v T) TreeOption { return internal.SeedExport(typeKey[T](), v) }

// IsLoopError reports whether err is a flush pass-bound abort.
func IsLoopError(err error) bool { return internal.IsLoopError(err) }

// AsFault unwraps err to the epoch fault it carries, if any.
func AsFault(err error) (*FaultError, bool) { return internal.AsFault(err) }
