package internal

import "slices"

// deferQueue parks trees whose flush could not run yet, in spawn-stamp
// order. Stamps are unique, so the order is total and a tree spawned
// earlier always drains first.
type deferQueue struct {
	trees []*Tree
}

func (q *deferQueue) park(t *Tree) {
	if t.deferred {
		return
	}
	t.deferred = true

	at := len(q.trees)
	for i, p := range q.trees {
		if p.stamp > t.stamp {
			at = i
			break
		}
	}
	q.trees = slices.Insert(q.trees, at, t)
}

func (q *deferQueue) next() *Tree {
	if len(q.trees) == 0 {
		return nil
	}
	t := q.trees[0]
	q.trees = slices.Delete(q.trees, 0, 1)
	t.deferred = false
	return t
}

func (q *deferQueue) remove(t *Tree) {
	if !t.deferred {
		return
	}
	t.deferred = false
	if i := slices.Index(q.trees, t); i >= 0 {
		q.trees = slices.Delete(q.trees, i, i+1)
	}
}

// settledQueue holds callbacks waiting for the engine to go quiet.
type settledQueue struct {
	callbacks []func()
}

func (q *settledQueue) add(fn func()) {
	q.callbacks = append(q.callbacks, fn)
}

func (q *settledQueue) empty() bool {
	return len(q.callbacks) == 0
}

func (q *settledQueue) run() {
	callbacks := q.callbacks
	q.callbacks = nil

	for _, cb := range callbacks {
		cb()
	}
}
