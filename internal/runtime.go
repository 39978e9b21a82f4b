package internal

import "fmt"

// Runtime orchestrates every tree spawned from it: one flush at a time,
// hold/release batching, deferral of lower-priority flushes, settled
// callbacks, and the diagnostic call stack faults get snapshotted from.
type Runtime struct {
	logger Logger
	clock  Clock
	stack  callStack
	trk    tracker

	maxPasses int

	batch   batcher
	current *Tree // tree being flushed right now

	deferred deferQueue
	settled  settledQueue
	settling bool
}

// RuntimeOption configures a runtime at construction.
type RuntimeOption func(*Runtime)

// WithLogger replaces the default stderr logger.
func WithLogger(l Logger) RuntimeOption {
	return func(r *Runtime) { r.logger = l }
}

// WithMaxPasses overrides the flush pass bound.
func WithMaxPasses(n int) RuntimeOption {
	return func(r *Runtime) { r.maxPasses = n }
}

func NewRuntime(opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		logger:    NewDefaultLogger(),
		maxPasses: DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Hold suppresses flushing until the matching Release. Holds nest.
func (r *Runtime) Hold() {
	r.batch.hold()
}

// Release undoes one Hold. Dropping the last hold drains whatever queued up
// while it was held.
func (r *Runtime) Release() {
	r.batch.release()
	if r.batch.idle() && r.current == nil {
		r.settle()
	}
}

// Batch runs fn with flushing held, then drains: writes inside fn coalesce
// into one flush.
func (r *Runtime) Batch(fn func()) {
	r.Hold()
	defer r.Release()
	fn()
}

// Settled runs fn once, after the next flush fully drains: holds released,
// deferred trees included.
func (r *Runtime) Settled(fn func()) {
	r.settled.add(fn)
}

// Untrack runs fn with dependency recording suspended.
func (r *Runtime) Untrack(fn func()) {
	r.trk.untracked(fn)
}

// Trace formats the engine's current call stack, innermost frame last.
func (r *Runtime) Trace() string {
	return formatFrames(r.stack.snapshot())
}

// requestFlush is the single arbiter for who flushes when. Held runtimes
// park the request; a request landing mid-flush runs inline only when it
// comes from the same or a lower layer.
func (r *Runtime) requestFlush(t *Tree) error {
	if t.disposed {
		return nil
	}
	if !r.batch.idle() {
		r.deferred.park(t)
		return nil
	}
	if r.current != nil && t.layer > r.current.layer {
		r.deferred.park(t)
		return nil
	}
	return r.flushNow(t)
}

func (r *Runtime) flushNow(t *Tree) error {
	prev := r.current
	r.current = t
	restore := r.bind()

	err := t.ticker.Drain()
	if err != nil {
		r.report(err)
	}

	restore()
	r.current = prev

	if prev == nil && r.batch.idle() {
		r.settle()
	}
	return err
}

// settle drains deferred trees in spawn order, then fires settled
// callbacks; callbacks may queue more of either. Runs only between
// top-level flushes.
func (r *Runtime) settle() {
	if r.settling {
		return
	}
	r.settling = true
	defer func() { r.settling = false }()

	for r.batch.idle() {
		if t := r.deferred.next(); t != nil {
			if t.disposed {
				continue
			}
			r.flushNow(t)
			continue
		}
		if r.settled.empty() {
			return
		}
		r.settled.run()
	}
}

func (r *Runtime) report(err error) {
	if f, ok := AsFault(err); ok {
		r.logger.Error(formatFault(f))
		return
	}
	r.logger.Error(err.Error())
}

func (r *Runtime) reportf(format string, args ...any) {
	r.logger.Error(fmt.Sprintf(format, args...))
}
