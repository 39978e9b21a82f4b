package internal

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTree(t *testing.T) {
	t.Run("nested epochs", func(t *testing.T) {
		r := NewRuntime(WithLogger(NopLogger{}))
		tree, err := r.NewTree("app", func(sc *Scope) Tick {
			sc.Attach("config", func(sc *Scope) Tick { return nil })
			sc.Attach("workers", func(sc *Scope) Tick {
				sc.Attach("alpha", func(sc *Scope) Tick { return nil })
				sc.Attach("beta", func(sc *Scope) Tick { return nil })
				return nil
			})
			sc.Attach("status", func(sc *Scope) Tick { return nil })
			return nil
		})
		require.NoError(t, err)

		g := goldie.New(t,
			goldie.WithFixtureDir("testdata/golden"),
			goldie.WithNameSuffix(".golden"),
		)
		g.Assert(t, "render_tree", []byte(tree.Render()))
	})

	t.Run("states and dock children", func(t *testing.T) {
		r := NewRuntime(WithLogger(NopLogger{}))
		var d *Dock
		tree, err := r.NewTree("game", func(sc *Scope) Tick {
			d = NewDock(sc)
			sc.Attach("boom", func(sc *Scope) Tick { panic("nope") })
			return nil
		})
		require.NoError(t, err)

		_, err = d.Set("hud", func(sc *Scope) Tick { return nil })
		require.NoError(t, err)
		_, err = d.Set("minimap", func(sc *Scope) Tick { return nil })
		require.NoError(t, err)

		g := goldie.New(t,
			goldie.WithFixtureDir("testdata/golden"),
			goldie.WithNameSuffix(".golden"),
		)
		g.Assert(t, "render_states", []byte(tree.Render()))
	})
}

func TestFormatFrames(t *testing.T) {
	t.Run("an empty stack reads as idle", func(t *testing.T) {
		assert.Equal(t, "(engine idle)", formatFrames(nil))
	})

	t.Run("frames print outermost first", func(t *testing.T) {
		r := NewRuntime(WithLogger(NopLogger{}))
		var trace string
		_, err := r.NewTree("app", func(sc *Scope) Tick {
			sc.Attach("inner", func(sc *Scope) Tick {
				trace = r.Trace()
				return nil
			})
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, "bootstrap\ninit app ·\ninit inner 0", trace)
	})
}

func TestFormatFault(t *testing.T) {
	logger := &captureLogger{}
	r := NewRuntime(WithLogger(logger))

	var broken *Epoch
	_, err := r.NewTree("app", func(sc *Scope) Tick {
		broken, _ = sc.Attach("boom", func(sc *Scope) Tick { panic("nope") })
		return nil
	})
	require.NoError(t, err)

	fe, ok := AsFault(broken.Err())
	require.True(t, ok)

	report := formatFault(fe)
	assert.Contains(t, report, `epoch "boom" at 0`)
	assert.Contains(t, report, "faulted: nope")
	assert.Contains(t, report, "engine stack:")
	assert.Contains(t, report, "init boom 0")

	// the same report went to the logger when the fault happened
	require.Len(t, logger.errors, 1)
	assert.Equal(t, report, logger.errors[0])
}
