package internal

import (
	"fmt"
	"io"
	"slices"
)

// EpochState tracks where an epoch is in its life.
type EpochState int

const (
	StateUnattached EpochState = iota
	StateInitializing
	StateIdle
	StateTicking
	StateFaulted
	StateDetached
)

func (s EpochState) String() string {
	switch s {
	case StateUnattached:
		return "unattached"
	case StateInitializing:
		return "initializing"
	case StateIdle:
		return "idle"
	case StateTicking:
		return "ticking"
	case StateFaulted:
		return "faulted"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Handle is anything released by a single Release call. Releasing more than
// once must be safe.
type Handle interface {
	Release()
}

// Tick re-runs an epoch's recurring work. Epochs whose init returns a nil
// Tick only ever run their init.
type Tick func(*Scope)

// Init performs an epoch's one-time setup and returns its tick body.
type Init func(*Scope) Tick

type recordKind int

const (
	recCleanup recordKind = iota
	recCloser
	recHandle
	recChild
	recExport
)

// record is one entry of an epoch's attachment log. The log grows in the
// order the body attached things and unwinds newest first.
type record struct {
	kind    recordKind
	cleanup func()
	closer  io.Closer
	handle  Handle
	child   *Epoch
	export  exportEntry
}

type exportEntry struct {
	key   any
	value any
}

// Epoch is one stateful unit of a lifecycle tree.
type Epoch struct {
	id    Id
	label string
	coord Coord

	tree   *Tree
	parent *Epoch

	state EpochState
	fault *FaultError

	tick Tick

	log      []record
	initMark int // records below this index are init-time

	// attach-ordered, for diagnostics; includes dock children
	children []*Epoch

	// re-entrant unwind coalescing: the running loop keeps popping until
	// the lowest requested index is reached
	unwinding bool
	unwindTo  int

	// position in the parent's log; parent exports resolve below this only
	birth int

	// next sibling index handed out, shared by log and dock children
	nextChild int

	queued       bool // member of the tree's pending set
	detachOnExit bool // detach requested while the body was running
}

func newEpoch(tree *Tree, parent *Epoch, label string, coord Coord) *Epoch {
	return &Epoch{
		id:     NewId(),
		label:  label,
		coord:  coord,
		tree:   tree,
		parent: parent,
		state:  StateUnattached,
	}
}

func (e *Epoch) Id() Id            { return e.id }
func (e *Epoch) Label() string     { return e.label }
func (e *Epoch) Coord() Coord      { return e.coord }
func (e *Epoch) State() EpochState { return e.state }
func (e *Epoch) Tree() *Tree       { return e.tree }

// Err returns the fault that stopped this epoch, if any.
func (e *Epoch) Err() error {
	if e.fault != nil {
		return e.fault
	}
	return nil
}

// attach runs init under a fresh scope, recording everything it does.
// On panic the epoch faults, keeps its partial attachments, and the fault
// is returned to the attacher.
func (e *Epoch) attach(seeds []exportEntry, init Init) error {
	if e.state != StateUnattached {
		misuse("attach", "epoch already attached")
	}
	if e.parent != nil {
		e.parent.children = append(e.parent.children, e)
	}

	e.state = StateInitializing
	for _, seed := range seeds {
		e.log = append(e.log, record{kind: recExport, export: seed})
	}

	rt := e.tree.rt
	sc := &Scope{epoch: e}
	rt.stack.push(FrameInit, e)

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.fail(r)
				err = e.fault
			}
		}()
		e.tick = init(sc)
	}()

	rt.stack.pop()
	sc.sealed = true
	e.initMark = len(e.log)

	if err != nil {
		return err
	}

	e.state = StateIdle
	if e.detachOnExit {
		e.detachOnExit = false
		e.finishDetach()
	}
	return nil
}

// Tick unwinds everything the previous run attached and executes the tick
// body. Faulted and detached epochs never tick; a panic in the body faults
// the epoch but never stops the surrounding drain.
func (e *Epoch) Tick() {
	if e.state != StateIdle || e.tick == nil {
		return
	}

	e.state = StateTicking
	e.unwind(e.initMark)

	if e.detachOnExit {
		e.detachOnExit = false
		e.state = StateIdle
		e.finishDetach()
		return
	}

	rt := e.tree.rt
	sc := &Scope{epoch: e}
	rt.stack.push(FrameTick, e)

	func() {
		defer func() {
			if r := recover(); r != nil {
				e.fail(r)
			}
		}()
		e.tick(sc)
	}()

	rt.stack.pop()
	sc.sealed = true

	if e.state == StateTicking {
		e.state = StateIdle
	}
	if e.detachOnExit {
		e.detachOnExit = false
		e.Detach()
	}
}

// Detach tears the epoch down, unwinding every attachment newest first.
// Idempotent. A detach requested while the epoch's own body runs is honored
// once the body returns; one requested while already unwinding just lowers
// the unwind watermark.
func (e *Epoch) Detach() {
	switch e.state {
	case StateUnattached, StateDetached:
		return
	case StateInitializing, StateTicking:
		e.detachOnExit = true
		if e.unwinding {
			e.unwind(0)
		}
		return
	}

	if e.unwinding {
		e.unwind(0)
		return
	}
	e.finishDetach()
}

func (e *Epoch) finishDetach() {
	e.state = StateDetached
	e.unwind(0)
	e.tick = nil

	if e.parent != nil {
		if i := slices.Index(e.parent.children, e); i >= 0 {
			e.parent.children = slices.Delete(e.parent.children, i, i+1)
		}
	}
}

// unwind pops and runs log records newest first, down to (excluding) index
// to. A re-entrant call while the loop runs only lowers the watermark.
func (e *Epoch) unwind(to int) {
	if e.unwinding {
		if to < e.unwindTo {
			e.unwindTo = to
		}
		return
	}

	e.unwinding = true
	e.unwindTo = to

	for len(e.log) > e.unwindTo {
		i := len(e.log) - 1
		rec := e.log[i]
		e.log = e.log[:i]
		e.runRecord(rec)
	}

	e.unwinding = false
}

// runRecord executes one popped record. Panics and close errors are
// reported and swallowed so the unwind always finishes.
func (e *Epoch) runRecord(rec record) {
	switch rec.kind {
	case recCleanup:
		e.guard("cleanup", rec.cleanup)
	case recCloser:
		if err := rec.closer.Close(); err != nil {
			e.tree.rt.reportf("close during unwind of %q at %s: %v", e.label, e.coord, err)
		}
	case recHandle:
		e.guard("release", rec.handle.Release)
	case recChild:
		rec.child.Detach()
	case recExport:
		// value dropped with the record
	}
}

func (e *Epoch) guard(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.tree.rt.reportf("panic in %s during unwind of %q at %s: %v", what, e.label, e.coord, r)
		}
	}()
	fn()
}

func (e *Epoch) fail(cause any) {
	e.fault = newFault(e, e.tree.rt.stack.snapshot(), cause)
	e.state = StateFaulted
	e.tree.rt.report(e.fault)
}

// lookup resolves an exported key: this epoch's log newest first, then each
// ancestor's log below the point this branch was attached. A child record
// stands for that child's own exports, so an epoch attached earlier acts as
// a declaration visible to everything attached after it in the same scope.
func (e *Epoch) lookup(key any) (any, bool) {
	limit := len(e.log)
	for node := e; node != nil; node = node.parent {
		if limit > len(node.log) {
			limit = len(node.log)
		}
		for i := limit - 1; i >= 0; i-- {
			switch rec := node.log[i]; rec.kind {
			case recExport:
				if rec.export.key == key {
					return rec.export.value, true
				}
			case recChild:
				if v, ok := rec.child.exported(key); ok {
					return v, ok
				}
			}
		}
		limit = node.birth
	}
	return nil, false
}

// exported scans only this epoch's direct export records, newest first.
// Exports of its own children do not bubble past it.
func (e *Epoch) exported(key any) (any, bool) {
	for i := len(e.log) - 1; i >= 0; i-- {
		rec := e.log[i]
		if rec.kind == recExport && rec.export.key == key {
			return rec.export.value, true
		}
	}
	return nil, false
}

// Scope is the mutation capability handed to init and tick bodies. It is
// only valid while its body runs; the engine seals it on return.
type Scope struct {
	epoch  *Epoch
	sealed bool
}

func (s *Scope) live(op string) {
	if s.sealed {
		misuse(op, "scope used after its body returned")
	}
}

// Epoch returns the epoch this scope mutates.
func (s *Scope) Epoch() *Epoch { return s.epoch }

// OnCleanup records fn to run when this attachment unwinds.
func (s *Scope) OnCleanup(fn func()) {
	s.live("Scope.OnCleanup")
	s.epoch.log = append(s.epoch.log, record{kind: recCleanup, cleanup: fn})
}

// Own ties a closer's lifetime to this attachment.
func (s *Scope) Own(c io.Closer) {
	s.live("Scope.Own")
	s.epoch.log = append(s.epoch.log, record{kind: recCloser, closer: c})
}

// Retain ties a handle's lifetime to this attachment.
func (s *Scope) Retain(h Handle) {
	s.live("Scope.Retain")
	s.epoch.log = append(s.epoch.log, record{kind: recHandle, handle: h})
}

// Export publishes a value to this epoch and everything attached below it
// from this point on.
func (s *Scope) Export(key, value any) {
	s.live("Scope.Export")
	s.epoch.log = append(s.epoch.log, record{kind: recExport, export: exportEntry{key: key, value: value}})
}

// Import resolves the nearest export of key. Missing imports are a
// programming error and panic; use TryImport when absence is expected.
func (s *Scope) Import(key any) any {
	s.live("Scope.Import")
	v, ok := s.epoch.lookup(key)
	if !ok {
		misuse("Scope.Import", fmt.Sprintf("no export for key %v in reach of %q at %s", key, s.epoch.label, s.epoch.coord))
	}
	return v
}

// TryImport resolves the nearest export of key, reporting whether one was
// found.
func (s *Scope) TryImport(key any) (any, bool) {
	s.live("Scope.TryImport")
	return s.epoch.lookup(key)
}

// Attach adds a child epoch under this one and runs its init now. The child
// is recorded in the attachment log, so it detaches when this attachment
// unwinds.
func (s *Scope) Attach(label string, init Init) (*Epoch, error) {
	s.live("Scope.Attach")

	e := s.epoch
	child := newEpoch(e.tree, e, label, e.coord.Extend(e.nextChild))
	child.birth = len(e.log)
	e.nextChild++
	e.log = append(e.log, record{kind: recChild, child: child})

	err := child.attach(nil, init)
	return child, err
}

// Invalidate asks the scheduler to re-run this epoch's tick body.
func (s *Scope) Invalidate() {
	s.live("Scope.Invalidate")
	s.epoch.tree.schedule(s.epoch)
}
