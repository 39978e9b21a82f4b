package internal

// State is a Trigger with memory: it holds a current value and fires only
// when a write actually changes it. Values must be comparable; a write of
// an uncomparable dynamic value panics, which inside a body faults the
// epoch like any other panic.
type State struct {
	tr    *Trigger
	value any
}

func NewState(initial any) *State {
	return &State{
		tr:    NewTrigger(),
		value: initial,
	}
}

// Get returns the current value, recording a dependency when a computation
// is running and tracking.
func (s *State) Get() any {
	track(s.tr)
	return s.value
}

// Peek returns the current value without recording anything.
func (s *State) Peek() any {
	return s.value
}

// Set writes a new value and fires, unless the value is unchanged.
func (s *State) Set(v any) {
	if isEqual(s.value, v) {
		return
	}

	s.value = v
	s.tr.Fire(v)
}

// Trigger exposes the underlying trigger for subscriptions.
func (s *State) Trigger() *Trigger {
	return s.tr
}

func isEqual(a, b any) bool {
	return a == b
}

// track records tr as a dependency of whatever computation the goroutine's
// runtime is executing right now.
func track(tr *Trigger) {
	GetRuntime().trk.access(tr)
}
