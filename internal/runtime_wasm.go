//go:build wasm

package internal

import "sync"

var once sync.Once
var globalRuntime *Runtime

// GetRuntime returns the process-wide runtime. Wasm has no usable goroutine
// identity, so everything shares one.
func GetRuntime() *Runtime {
	once.Do(func() {
		globalRuntime = NewRuntime()
	})

	return globalRuntime
}

func (r *Runtime) bind() (restore func()) {
	prev := globalRuntime
	globalRuntime = r

	return func() {
		globalRuntime = prev
	}
}
