//go:build !wasm

package internal

import (
	"sync"

	"github.com/petermattis/goid"
)

var runtimes sync.Map

// GetRuntime returns the calling goroutine's ambient runtime, creating it
// on first use. Package-level constructors resolve through here, so
// independent goroutines get independent runtimes with zero plumbing.
func GetRuntime() *Runtime {
	gid := getGID()

	if r, ok := runtimes.Load(gid); ok {
		return r.(*Runtime)
	}

	r := NewRuntime()
	runtimes.Store(gid, r)
	return r
}

// bind makes r the goroutine's ambient runtime until restore runs. Flushes
// and bootstraps bind, so reads inside bodies track against the runtime
// actually running them even when it was injected rather than ambient.
func (r *Runtime) bind() (restore func()) {
	gid := getGID()
	prev, had := runtimes.Load(gid)
	runtimes.Store(gid, r)

	return func() {
		if had {
			runtimes.Store(gid, prev)
		} else {
			runtimes.Delete(gid)
		}
	}
}

func getGID() int64 {
	return goid.Get()
}
