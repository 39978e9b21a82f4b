package internal

// FlushMode says who drains a tree's pending work.
type FlushMode int

const (
	// FlushAuto trees request a flush from the runtime whenever work
	// appears; the runtime decides inline versus deferred.
	FlushAuto FlushMode = iota
	// FlushManual trees only drain when the host calls Flush or Tick.
	FlushManual
)

type treeConfig struct {
	layer int
	mode  FlushMode
	seeds []exportEntry
}

// TreeOption configures a tree at spawn.
type TreeOption func(*treeConfig)

// WithLayer sets the tree's priority layer. Lower layers flush first: a
// flush request from a lower layer runs inline inside a higher layer's
// flush, never the other way around.
func WithLayer(n int) TreeOption {
	return func(c *treeConfig) { c.layer = n }
}

// Manual makes the tree host-driven: pending work waits for Flush or Tick.
func Manual() TreeOption {
	return func(c *treeConfig) { c.mode = FlushManual }
}

// SeedExport publishes a value on the root before its init runs, as if an
// ancestor had exported it.
func SeedExport(key, value any) TreeOption {
	return func(c *treeConfig) { c.seeds = append(c.seeds, exportEntry{key: key, value: value}) }
}

// Tree is one schedulable lifecycle tree: a root epoch, a ticker, a flush
// policy, and a place in the runtime's priority order.
type Tree struct {
	id    Id
	label string
	rt    *Runtime

	root   *Epoch
	ticker Ticker

	layer int
	stamp uint64 // spawn stamp; deferred flushes drain in stamp order
	mode  FlushMode

	deferred bool // parked in the runtime's deferred queue
	disposed bool
}

// NewTree spawns a tree and runs its root init synchronously. Flushes
// requested during bootstrap wait until it finishes. On a root init fault
// the tree is returned alongside the error so the host can inspect or
// dispose it.
func (r *Runtime) NewTree(label string, init Init, opts ...TreeOption) (*Tree, error) {
	var cfg treeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Tree{
		id:    NewId(),
		label: label,
		rt:    r,
		layer: cfg.layer,
		stamp: r.clock.Next(),
		mode:  cfg.mode,
	}
	t.ticker = Ticker{tree: t, maxPasses: r.maxPasses}
	if t.mode == FlushAuto {
		t.ticker.onPending = func() { r.requestFlush(t) }
	}

	t.root = newEpoch(t, nil, label, Coord{})

	r.Hold()
	r.stack.push(FrameBootstrap, nil)
	restore := r.bind()

	err := t.root.attach(cfg.seeds, init)

	restore()
	r.stack.pop()
	r.Release()

	return t, err
}

func (t *Tree) Id() Id        { return t.id }
func (t *Tree) Label() string { return t.label }
func (t *Tree) Layer() int    { return t.layer }
func (t *Tree) Root() *Epoch  { return t.root }

// Err returns the root epoch's fault, if any.
func (t *Tree) Err() error { return t.root.Err() }

// Flush asks the runtime to drain this tree now. Subject to holds and the
// layer rule like any other request: a deferred flush returns nil and runs
// later.
func (t *Tree) Flush() error {
	if t.disposed {
		return nil
	}
	return t.rt.requestFlush(t)
}

// Tick runs at most one pending epoch and reports whether it did. For
// manual trees pumped by a host loop.
func (t *Tree) Tick() bool {
	if t.disposed {
		return false
	}

	r := t.rt
	prev := r.current
	r.current = t
	restore := r.bind()

	did := t.ticker.Step()

	restore()
	r.current = prev

	if prev == nil && r.batch.idle() {
		r.settle()
	}
	return did
}

// Dispose detaches the whole tree and drops any pending or deferred work.
// Safe to call more than once.
func (t *Tree) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true

	t.root.Detach()
	t.ticker.work.clear()
	t.rt.deferred.remove(t)
}

func (t *Tree) schedule(e *Epoch) {
	if t.disposed {
		return
	}
	t.ticker.Schedule(e)
}

// Render draws the live epochs of the tree, one line each.
func (t *Tree) Render() string {
	return renderTree(t)
}
