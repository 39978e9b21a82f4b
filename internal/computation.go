package internal

// CompKind selects when a computation's body runs.
type CompKind int

const (
	// CompEffect bodies run on attach and on every dependency change.
	CompEffect CompKind = iota
	// CompPhase bodies run only while their gate is true; flipping the
	// gate or touching a dependency re-evaluates.
	CompPhase
	// CompReaction bodies skip the first run and fire on changes only.
	CompReaction
	// CompMemo bodies compute a value published through a state, so an
	// unchanged result does not re-notify consumers.
	CompMemo
)

func (k CompKind) String() string {
	switch k {
	case CompEffect:
		return "effect"
	case CompPhase:
		return "phase"
	case CompReaction:
		return "reaction"
	case CompMemo:
		return "memo"
	default:
		return "computation"
	}
}

// Computation is an epoch whose tick re-runs a reactive body, re-recording
// its dynamic dependencies as it goes.
type Computation struct {
	kind  CompKind
	epoch *Epoch

	body func(*Scope) any
	deps deps

	gate *State // phase only
	out  *State // memo only

	ran bool
}

// NewComputation attaches a computation under the given scope and runs it
// once, as a first tick. Static triggers stay subscribed for the epoch's
// whole life; dynamic dependencies churn per run through the positional
// differ.
func NewComputation(at *Scope, kind CompKind, body func(*Scope) any, statics []*Trigger, gate *State) (*Computation, error) {
	c := &Computation{
		kind: kind,
		gate: gate,
		body: body,
	}
	c.deps.notify = func(any) { c.invalidate() }
	if kind == CompMemo {
		c.out = NewState(nil)
	}

	ep, err := at.Attach(kind.String(), func(sc *Scope) Tick {
		for _, tr := range statics {
			c.deps.pin(tr)
		}
		if gate != nil {
			c.deps.pin(gate.Trigger())
		}
		sc.OnCleanup(c.deps.releaseAll)

		return c.run
	})
	c.epoch = ep
	if err != nil {
		return c, err
	}

	// first run is a regular tick, so everything the body attaches is
	// tick-time and unwinds before the next run
	ep.Tick()
	if ep.fault != nil {
		return c, ep.fault
	}
	return c, nil
}

func (c *Computation) Epoch() *Epoch { return c.epoch }

// Out is the state a memo publishes through.
func (c *Computation) Out() *State { return c.out }

// DepCount reports the current dynamic dependency count.
func (c *Computation) DepCount() int { return c.deps.size() }

func (c *Computation) run(sc *Scope) {
	if c.kind == CompReaction && !c.ran {
		c.ran = true
		return
	}

	if c.gate != nil {
		if on, _ := c.gate.Peek().(bool); !on {
			// gated off: previous attachments are already unwound,
			// now drop the dynamic dependencies too
			c.deps.begin()
			c.deps.end()
			return
		}
	}

	rt := c.epoch.tree.rt
	c.deps.begin()
	rt.trk.run(c, func() {
		v := c.body(sc)
		if c.kind == CompMemo {
			c.out.Set(v)
		}
	})
	c.deps.end()
}

func (c *Computation) invalidate() {
	c.epoch.tree.schedule(c.epoch)
}
