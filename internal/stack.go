package internal

// FrameKind says what the engine was doing when a frame was pushed.
type FrameKind int

const (
	FrameBootstrap FrameKind = iota
	FrameInit
	FrameTick
	FrameDockMutate
)

func (k FrameKind) String() string {
	switch k {
	case FrameBootstrap:
		return "bootstrap"
	case FrameInit:
		return "init"
	case FrameTick:
		return "tick"
	case FrameDockMutate:
		return "dock-mutate"
	default:
		return "unknown"
	}
}

// Frame is one entry of the engine's diagnostic call stack.
type Frame struct {
	Kind  FrameKind
	Epoch *Epoch // nil for bootstrap frames pushed before the root exists
}

// callStack tracks what the engine is doing right now. Snapshots of it give
// fault reports the how-did-we-get-here that a goroutine stack can't.
type callStack struct {
	frames []Frame
}

func (s *callStack) push(kind FrameKind, e *Epoch) {
	s.frames = append(s.frames, Frame{Kind: kind, Epoch: e})
}

func (s *callStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *callStack) snapshot() []Frame {
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}
