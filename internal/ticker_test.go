package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicker(t *testing.T) {
	t.Run("step ticks at most one epoch", func(t *testing.T) {
		r := NewRuntime(WithLogger(NopLogger{}))
		log := []string{}

		tree, err := r.NewTree("t", func(sc *Scope) Tick {
			sc.Attach("a", func(sc *Scope) Tick {
				sc.Invalidate()
				return func(*Scope) { log = append(log, "a") }
			})
			sc.Attach("b", func(sc *Scope) Tick {
				sc.Invalidate()
				return func(*Scope) { log = append(log, "b") }
			})
			return nil
		}, Manual())
		require.NoError(t, err)

		assert.True(t, tree.Tick())
		assert.Equal(t, []string{"a"}, log)
		assert.True(t, tree.Tick())
		assert.Equal(t, []string{"a", "b"}, log)
		assert.False(t, tree.Tick())
	})

	t.Run("forward progress never counts as a new pass", func(t *testing.T) {
		r := NewRuntime(WithLogger(NopLogger{}), WithMaxPasses(1))
		log := []string{}

		tree, err := r.NewTree("t", func(sc *Scope) Tick {
			for _, name := range []string{"a", "b", "c"} {
				name := name
				sc.Attach(name, func(sc *Scope) Tick {
					sc.Invalidate()
					return func(*Scope) { log = append(log, name) }
				})
			}
			return nil
		}, Manual())
		require.NoError(t, err)

		require.NoError(t, tree.Flush())
		assert.Equal(t, []string{"a", "b", "c"}, log)
	})

	t.Run("a self-rescheduling epoch trips the loop guard", func(t *testing.T) {
		r := NewRuntime(WithLogger(NopLogger{}), WithMaxPasses(8))

		tree, err := r.NewTree("t", func(sc *Scope) Tick {
			sc.Attach("spin", func(sc *Scope) Tick {
				sc.Invalidate()
				return func(sc *Scope) { sc.Invalidate() }
			})
			return nil
		}, Manual())
		require.NoError(t, err)

		err = tree.Flush()
		require.Error(t, err)
		assert.True(t, IsLoopError(err))

		var le *LoopError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "t", le.Tree)
		assert.Equal(t, 8, le.Limit)
		assert.Equal(t, 9, le.Passes)

		// the abort dropped the pending set
		assert.False(t, tree.Tick())
	})

	t.Run("run next outside a drain panics", func(t *testing.T) {
		r := NewRuntime(WithLogger(NopLogger{}))
		tree, err := r.NewTree("t", func(sc *Scope) Tick { return nil }, Manual())
		require.NoError(t, err)

		assert.PanicsWithError(t, "arbor: Ticker.RunNext: no drain in progress", func() {
			tree.ticker.RunNext()
		})
	})

	t.Run("detached epochs never schedule", func(t *testing.T) {
		r := NewRuntime(WithLogger(NopLogger{}))
		ticks := 0

		var gone *Epoch
		tree, err := r.NewTree("t", func(sc *Scope) Tick {
			gone, _ = sc.Attach("gone", func(sc *Scope) Tick {
				return func(*Scope) { ticks++ }
			})
			return nil
		}, Manual())
		require.NoError(t, err)

		gone.Detach()
		tree.ticker.Schedule(gone)

		assert.False(t, tree.Tick())
		assert.Equal(t, 0, ticks)
	})
}
