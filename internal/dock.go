package internal

import "slices"

// Dock holds dynamically keyed children outside the attachment log: slots
// that come and go at runtime while their host epoch stays up. Children
// draw sibling indexes from the host, so they tick in attachment order and
// a re-set key moves to the back.
type Dock struct {
	host    *Epoch
	entries map[any]*Epoch
	order   []any // live keys in attachment order
	dead    bool
}

// NewDock creates a dock on the scope's epoch. The dock registers a cleanup
// at its creation point, so its children detach in reverse attachment order
// exactly where the dock itself unwinds.
func NewDock(sc *Scope) *Dock {
	sc.live("NewDock")
	d := &Dock{
		host:    sc.epoch,
		entries: make(map[any]*Epoch),
	}
	sc.OnCleanup(d.teardown)
	return d
}

// Set attaches a child under key, detaching any previous occupant first.
// The new child sees every export its host has published so far.
func (d *Dock) Set(key any, init Init) (*Epoch, error) {
	if d.dead {
		misuse("Dock.Set", "dock already torn down")
	}

	if prev, ok := d.entries[key]; ok {
		prev.Detach()
		d.dropOrder(key)
		delete(d.entries, key)
	}

	host := d.host
	child := newEpoch(host.tree, host, dockLabel(key), host.coord.Extend(host.nextChild))
	host.nextChild++
	child.birth = len(host.log)

	rt := host.tree.rt
	rt.Hold()
	rt.stack.push(FrameDockMutate, host)
	restore := rt.bind()

	err := child.attach(nil, init)

	restore()
	rt.stack.pop()

	d.entries[key] = child
	d.order = append(d.order, key)
	rt.Release()

	return child, err
}

// Drop detaches and removes the child under key, if any.
func (d *Dock) Drop(key any) {
	if d.dead {
		misuse("Dock.Drop", "dock already torn down")
	}

	child, ok := d.entries[key]
	if !ok {
		return
	}
	delete(d.entries, key)
	d.dropOrder(key)
	child.Detach()
}

// Get returns the live child under key.
func (d *Dock) Get(key any) (*Epoch, bool) {
	e, ok := d.entries[key]
	return e, ok
}

func (d *Dock) Len() int { return len(d.entries) }

func (d *Dock) teardown() {
	d.dead = true
	for i := len(d.order) - 1; i >= 0; i-- {
		if child, ok := d.entries[d.order[i]]; ok {
			child.Detach()
		}
	}
	d.entries = nil
	d.order = nil
}

func (d *Dock) dropOrder(key any) {
	if i := slices.Index(d.order, key); i >= 0 {
		d.order = slices.Delete(d.order, i, i+1)
	}
}

func dockLabel(key any) string {
	if s, ok := key.(string); ok {
		return s
	}
	return "dock-entry"
}
