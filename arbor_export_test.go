package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport(t *testing.T) {
	t.Run("ancestors are visible to descendants", func(t *testing.T) {
		got := ""
		_, err := NewTree("t", func(sc *Scope) Tick {
			Export(sc, "postgres://main")
			sc.Attach("repo", func(sc *Scope) Tick {
				sc.Attach("query", func(sc *Scope) Tick {
					got = Import[string](sc)
					return nil
				})
				return nil
			})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "postgres://main", got)
	})

	t.Run("earlier siblings are visible to later ones", func(t *testing.T) {
		got, ok := "", false
		_, err := NewTree("t", func(sc *Scope) Tick {
			sc.Attach("first", func(sc *Scope) Tick {
				Export(sc, "from first")
				return nil
			})
			sc.Attach("second", func(sc *Scope) Tick {
				got, ok = TryImport[string](sc)
				return nil
			})
			return nil
		})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "from first", got)
	})

	t.Run("re-ticks do not see later siblings", func(t *testing.T) {
		var saw []bool
		probe := NewState(0)

		_, err := NewTree("t", func(sc *Scope) Tick {
			sc.Attach("first", func(sc *Scope) Tick {
				NewEffect(sc, func(sc *Scope) {
					probe.Get()
					_, ok := TryImport[string](sc)
					saw = append(saw, ok)
				})
				return nil
			})
			sc.Attach("second", func(sc *Scope) Tick {
				Export(sc, "too late")
				return nil
			})
			return nil
		})
		require.NoError(t, err)

		probe.Set(1) // re-run happens after the sibling exported

		assert.Equal(t, []bool{false, false}, saw)
	})

	t.Run("later exports shadow earlier ones", func(t *testing.T) {
		got := ""
		_, err := NewTree("t", func(sc *Scope) Tick {
			Export(sc, "first")
			Export(sc, "second")
			sc.Attach("reader", func(sc *Scope) Tick {
				got = Import[string](sc)
				return nil
			})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "second", got)
	})

	t.Run("nearer exports shadow farther ones", func(t *testing.T) {
		got := ""
		_, err := NewTree("t", func(sc *Scope) Tick {
			Export(sc, "root value")
			sc.Attach("mid", func(sc *Scope) Tick {
				Export(sc, "mid value")
				sc.Attach("leaf", func(sc *Scope) Tick {
					got = Import[string](sc)
					return nil
				})
				return nil
			})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "mid value", got)
	})

	t.Run("types key independently", func(t *testing.T) {
		gotInt, gotStr := 0, ""
		_, err := NewTree("t", func(sc *Scope) Tick {
			Export(sc, 42)
			Export(sc, "answer")
			sc.Attach("reader", func(sc *Scope) Tick {
				gotInt = Import[int](sc)
				gotStr = Import[string](sc)
				return nil
			})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, gotInt)
		assert.Equal(t, "answer", gotStr)
	})

	t.Run("seeds are visible before the root body runs", func(t *testing.T) {
		got := ""
		_, err := NewTree("t", func(sc *Scope) Tick {
			got = Import[string](sc)
			return nil
		}, Seed("seeded"))
		require.NoError(t, err)
		assert.Equal(t, "seeded", got)
	})

	t.Run("missing imports fault the importer", func(t *testing.T) {
		r := NewRuntime(WithLogger(NopLogger{}))
		_, err := r.NewTree("t", func(sc *Scope) Tick {
			Import[float64](sc)
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no export for key")
	})
}
