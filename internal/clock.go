package internal

import "sync/atomic"

// Clock issues monotonically increasing stamps. Deferred flushes drain in
// stamp order, so the stamp a tree gets at spawn fixes its place in line.
type Clock struct {
	now atomic.Uint64
}

func (c *Clock) Next() uint64 {
	return c.now.Add(1)
}

func (c *Clock) Now() uint64 {
	return c.now.Load()
}
