package internal

// DefaultMaxPasses bounds how many times one flush may wrap back to an
// earlier coordinate before the engine calls it a feedback loop.
const DefaultMaxPasses = 1000

// Ticker drains one tree's pending epochs in coordinate order. A pass ends
// when the next popped coordinate does not sort after the previous one;
// too many passes abort the drain.
type Ticker struct {
	tree *Tree
	work workset

	draining bool

	maxPasses int

	// pass bookkeeping, valid while draining
	passes int
	prev   Coord
	popped bool

	// onPending fires on the pending set's empty-to-nonempty transition
	// outside a drain; auto trees use it to request a flush
	onPending func()
}

// Schedule adds an epoch to the pending set. Faulted and detached epochs
// are dropped, re-schedules coalesce, and work scheduled mid-drain is
// picked up by the running loop.
func (t *Ticker) Schedule(e *Epoch) {
	if e.state == StateFaulted || e.state == StateDetached {
		return
	}

	wasEmpty := t.work.empty()
	if !t.work.add(e) {
		return
	}

	if !t.draining {
		t.work.take()
		if wasEmpty && t.onPending != nil {
			t.onPending()
		}
	}
}

// Drain ticks pending epochs in coordinate order until none remain. A
// nested call while draining is a no-op: the running loop sees the new
// work. Exceeding the pass bound aborts the drain, drops the pending set,
// and returns a LoopError.
func (t *Ticker) Drain() error {
	if t.draining {
		return nil
	}
	t.begin()
	defer func() { t.draining = false }()

	for {
		ran, err := t.RunNext()
		if err != nil || !ran {
			return err
		}
	}
}

// RunNext pops the smallest pending epoch and ticks it, reporting whether
// anything was pending. Only legal inside a drain.
func (t *Ticker) RunNext() (bool, error) {
	if !t.draining {
		misuse("Ticker.RunNext", "no drain in progress")
	}

	e := t.work.pop()
	if e == nil {
		return false, nil
	}

	// an epoch at or before the previous coordinate means the scan wrapped:
	// new work landed behind the cursor, or something rescheduled itself
	if t.popped && e.coord.Compare(t.prev) <= 0 {
		t.passes++
		if t.passes > t.max() {
			t.work.clear()
			return false, &LoopError{Tree: t.tree.label, Passes: t.passes, Limit: t.max()}
		}
	}
	t.prev = e.coord
	t.popped = true

	e.Tick()
	return true, nil
}

// Step ticks at most one pending epoch, for hosts that pump manually.
func (t *Ticker) Step() bool {
	if t.draining {
		misuse("Tree.Tick", "tree is already flushing")
	}
	t.begin()
	defer func() { t.draining = false }()

	ran, _ := t.RunNext()
	return ran
}

func (t *Ticker) begin() {
	t.draining = true
	t.passes = 1
	t.popped = false
}

func (t *Ticker) max() int {
	if t.maxPasses > 0 {
		return t.maxPasses
	}
	return DefaultMaxPasses
}
