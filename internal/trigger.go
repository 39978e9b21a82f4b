package internal

import "slices"

// Sub ties one subscriber to one trigger. Release detaches it; releasing
// more than once is fine, so a Sub can be retained by an epoch and also
// dropped early.
type Sub struct {
	tr       *Trigger
	notify   func(any)
	released bool
}

func (s *Sub) Release() {
	if s.released {
		return
	}
	s.released = true
	s.tr.remove(s)
}

// Trigger is the notification primitive everything reactive builds on.
// Fired values reach subscribers in subscription order. The subscriber
// list copies on update, so a dispatch in flight keeps its snapshot:
// subscribers added or removed mid-dispatch only affect later fires.
// Fires landing mid-dispatch queue up and drain in order.
type Trigger struct {
	subs   []*Sub
	queue  []any
	firing bool
}

func NewTrigger() *Trigger {
	return &Trigger{}
}

// Subscribe registers notify for every later fire.
func (t *Trigger) Subscribe(notify func(any)) *Sub {
	s := &Sub{tr: t, notify: notify}
	next := slices.Clone(t.subs)
	t.subs = append(next, s)
	return s
}

// Fire delivers v to every current subscriber. Re-entrant fires are queued
// and delivered by the outermost call, one at a time, in order.
func (t *Trigger) Fire(v any) {
	t.queue = append(t.queue, v)
	if t.firing {
		return
	}

	t.firing = true
	defer func() { t.firing = false }()

	for len(t.queue) > 0 {
		next := t.queue[0]
		t.queue = t.queue[1:]

		subs := t.subs
		for _, s := range subs {
			s.notify(next)
		}
	}
}

// SubCount reports live subscriptions.
func (t *Trigger) SubCount() int {
	return len(t.subs)
}

func (t *Trigger) remove(s *Sub) {
	i := slices.Index(t.subs, s)
	if i < 0 {
		return
	}
	next := slices.Clone(t.subs)
	t.subs = slices.Delete(next, i, i+1)
}
