package internal

import "slices"

// workset holds the epochs waiting to tick, ordered by coordinate. Incoming
// epochs buffer unsorted; take folds them into the sorted list. Membership
// is deduped with the epoch's queued flag, so scheduling is idempotent.
type workset struct {
	incoming []*Epoch
	sorted   []*Epoch
}

func (w *workset) add(e *Epoch) bool {
	if e.queued {
		return false
	}
	e.queued = true
	w.incoming = append(w.incoming, e)
	return true
}

func (w *workset) take() {
	if len(w.incoming) == 0 {
		return
	}
	w.sorted = append(w.sorted, w.incoming...)
	w.incoming = w.incoming[:0]
	slices.SortFunc(w.sorted, func(a, b *Epoch) int {
		return a.coord.Compare(b.coord)
	})
}

// pop removes and returns the pending epoch with the smallest coordinate.
func (w *workset) pop() *Epoch {
	w.take()
	if len(w.sorted) == 0 {
		return nil
	}
	e := w.sorted[0]
	w.sorted = w.sorted[1:]
	e.queued = false
	return e
}

func (w *workset) empty() bool {
	return len(w.incoming) == 0 && len(w.sorted) == 0
}

func (w *workset) clear() {
	for _, e := range w.incoming {
		e.queued = false
	}
	for _, e := range w.sorted {
		e.queued = false
	}
	w.incoming = nil
	w.sorted = nil
}
