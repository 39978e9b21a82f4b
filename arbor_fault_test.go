package arbor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFault(t *testing.T) {
	t.Run("a root init fault returns the tree and the error", func(t *testing.T) {
		logger := &captureLog{}
		r := NewRuntime(WithLogger(logger))

		tree, err := r.NewTree("t", func(sc *Scope) Tick {
			panic("bad bootstrap")
		})
		require.Error(t, err)
		require.NotNil(t, tree)

		fe, ok := AsFault(err)
		require.True(t, ok)
		assert.Equal(t, "t", fe.Epoch)
		assert.Equal(t, "bad bootstrap", fe.Cause)
		assert.Equal(t, err, tree.Err())
		assert.Equal(t, StateFaulted, tree.Root().State())

		require.NotEmpty(t, logger.lines)
		assert.Contains(t, logger.lines[0], "bad bootstrap")
	})

	t.Run("a tick fault spares its siblings", func(t *testing.T) {
		logger := &captureLog{}
		r := NewRuntime(WithLogger(logger))
		log := []string{}
		count := NewState(0)

		var flaky *Effect
		_, err := r.NewTree("t", func(sc *Scope) Tick {
			flaky, _ = NewEffect(sc, func(*Scope) {
				if count.Get() > 0 {
					panic("wires crossed")
				}
				log = append(log, "flaky ok")
			})
			NewEffect(sc, func(*Scope) {
				log = append(log, fmt.Sprintf("steady %d", count.Get()))
			})
			return nil
		})
		require.NoError(t, err)

		count.Set(1)
		count.Set(2) // the faulted effect stays out of scheduling

		assert.Equal(t, []string{"flaky ok", "steady 0", "steady 1", "steady 2"}, log)

		require.Error(t, flaky.Err())
		fe, ok := AsFault(flaky.Err())
		require.True(t, ok)
		assert.Equal(t, "wires crossed", fe.Cause)
		assert.Equal(t, StateFaulted, flaky.Epoch().State())
		require.NotEmpty(t, fe.Frames)
		assert.Equal(t, FrameTick, fe.Frames[len(fe.Frames)-1].Kind)
		assert.NotEmpty(t, fe.Stack)

		require.NotEmpty(t, logger.lines)
		assert.Contains(t, logger.lines[0], "wires crossed")
	})

	t.Run("a first-run fault surfaces at the constructor", func(t *testing.T) {
		r := NewRuntime(WithLogger(&captureLog{}))

		_, err := r.NewTree("t", func(sc *Scope) Tick {
			_, effErr := NewEffect(sc, func(*Scope) { panic("dead on arrival") })
			require.Error(t, effErr)
			fe, ok := AsFault(effErr)
			require.True(t, ok)
			assert.Equal(t, "dead on arrival", fe.Cause)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("a faulted slot can be dropped and rebuilt", func(t *testing.T) {
		r := NewRuntime(WithLogger(&captureLog{}))

		var d *Dock
		tree, err := r.NewTree("t", func(sc *Scope) Tick {
			d = NewDock(sc)
			return nil
		})
		require.NoError(t, err)
		defer tree.Dispose()

		bad, err := d.Set("worker", func(sc *Scope) Tick { panic("corrupt") })
		require.Error(t, err)
		assert.Equal(t, StateFaulted, bad.State())

		good, err := d.Set("worker", func(sc *Scope) Tick { return nil })
		require.NoError(t, err)
		assert.Equal(t, StateIdle, good.State())
		assert.Equal(t, 1, d.Len())
	})
}
