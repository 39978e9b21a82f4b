package internal

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// FaultError records a panic recovered from an epoch's init or tick body.
// The epoch is left faulted; whatever it attached before failing stays in
// place until something detaches it.
type FaultError struct {
	Epoch  string // label of the faulted epoch
	Id     Id
	Coord  Coord
	Frames []Frame // engine call stack at the point of failure
	Cause  any
	Stack  []byte // goroutine stack at recovery
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("epoch %q at %s faulted: %v", e.Epoch, e.Coord, e.Cause)
}

func (e *FaultError) Unwrap() error {
	if err, ok := e.Cause.(error); ok {
		return err
	}
	return nil
}

func newFault(e *Epoch, frames []Frame, cause any) *FaultError {
	return &FaultError{
		Epoch:  e.label,
		Id:     e.id,
		Coord:  e.coord,
		Frames: frames,
		Cause:  cause,
		Stack:  debug.Stack(),
	}
}

// AsFault unwraps err to the fault it carries, if any.
func AsFault(err error) (*FaultError, bool) {
	var fe *FaultError
	ok := errors.As(err, &fe)
	return fe, ok
}

// LoopError is returned when a flush exceeds its pass bound. The flush is
// aborted and its pending work dropped; an auto tree would otherwise spin
// on the same feedback loop forever.
type LoopError struct {
	Tree   string
	Passes int
	Limit  int
}

func (e *LoopError) Error() string {
	return fmt.Sprintf("tree %q flush exceeded %d passes: aborting, likely a feedback loop", e.Tree, e.Limit)
}

func IsLoopError(err error) bool {
	var le *LoopError
	return errors.As(err, &le)
}

// UseError flags API misuse: a sealed scope, an unmatched release, a tick
// outside a drain. Misuse is a caller bug, so it is delivered by panic
// rather than returned.
type UseError struct {
	Op  string
	Why string
}

func (e *UseError) Error() string {
	return fmt.Sprintf("arbor: %s: %s", e.Op, e.Why)
}

func misuse(op, why string) {
	panic(&UseError{Op: op, Why: why})
}
