package internal

// tracker knows which computation the runtime is executing and whether
// reads should record dependencies.
type tracker struct {
	current  *Computation
	tracking bool
}

func (t *tracker) run(c *Computation, fn func()) {
	prevC, prevT := t.current, t.tracking
	t.current, t.tracking = c, true
	defer func() {
		t.current, t.tracking = prevC, prevT
	}()

	fn()
}

func (t *tracker) untracked(fn func()) {
	prev := t.tracking
	t.tracking = false
	defer func() { t.tracking = prev }()

	fn()
}

func (t *tracker) access(tr *Trigger) {
	if t.current == nil || !t.tracking {
		return
	}
	t.current.deps.access(tr)
}

// deps holds a computation's dependencies: the positional list of reads the
// last run made, plus one refcounted subscription per distinct trigger.
// Each run walks the list with a cursor: re-reading the same trigger at the
// same position keeps everything as is, a mismatch swaps just that
// position, and a shorter run drops exactly the trailing excess. However
// many positions (or pins) share a trigger, the computation subscribes to
// it once, so one fire is one notification.
type deps struct {
	notify func(any)

	list   []*Trigger // read order of the last run
	cursor int
	subs   map[*Trigger]*depSub
}

type depSub struct {
	sub  *Sub
	refs int
}

func (d *deps) ref(tr *Trigger) {
	if d.subs == nil {
		d.subs = make(map[*Trigger]*depSub)
	}
	e := d.subs[tr]
	if e == nil {
		e = &depSub{sub: tr.Subscribe(d.notify)}
		d.subs[tr] = e
	}
	e.refs++
}

func (d *deps) unref(tr *Trigger) {
	e := d.subs[tr]
	if e == nil {
		return
	}
	e.refs--
	if e.refs == 0 {
		e.sub.Release()
		delete(d.subs, tr)
	}
}

// pin holds a reference for the computation's whole life: static deps and
// phase gates stay subscribed no matter what the body reads.
func (d *deps) pin(tr *Trigger) {
	d.ref(tr)
}

func (d *deps) begin() {
	d.cursor = 0
}

func (d *deps) access(tr *Trigger) {
	if d.cursor < len(d.list) {
		if d.list[d.cursor] == tr {
			d.cursor++
			return
		}
		d.unref(d.list[d.cursor])
		d.list[d.cursor] = tr
		d.ref(tr)
		d.cursor++
		return
	}

	d.list = append(d.list, tr)
	d.ref(tr)
	d.cursor++
}

func (d *deps) end() {
	for i := d.cursor; i < len(d.list); i++ {
		d.unref(d.list[i])
	}
	d.list = d.list[:d.cursor]
}

func (d *deps) releaseAll() {
	for _, e := range d.subs {
		e.sub.Release()
	}
	d.subs = nil
	d.list = nil
	d.cursor = 0
}

func (d *deps) size() int {
	return len(d.list)
}
