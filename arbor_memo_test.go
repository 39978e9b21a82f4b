package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemo(t *testing.T) {
	t.Run("derives values through a chain", func(t *testing.T) {
		log := []string{}
		count := NewState(1)

		var double, plustwo *Memo[int]
		_, err := NewTree("t", func(sc *Scope) Tick {
			double, _ = NewMemo(sc, func(*Scope) int {
				log = append(log, "doubling")
				return count.Get() * 2
			})
			plustwo, _ = NewMemo(sc, func(*Scope) int {
				log = append(log, "adding")
				return double.Get() + 2
			})
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, 2, double.Peek())
		assert.Equal(t, 4, plustwo.Peek())

		count.Set(10)
		assert.Equal(t, 20, double.Peek())
		assert.Equal(t, 22, plustwo.Peek())

		assert.Equal(t, []string{"doubling", "adding", "doubling", "adding"}, log)
	})

	t.Run("unchanged results do not propagate", func(t *testing.T) {
		log := []string{}
		count := NewState(1)

		_, err := NewTree("t", func(sc *Scope) Tick {
			floor, _ := NewMemo(sc, func(*Scope) int {
				log = append(log, "running floor")
				return count.Get() / 10
			})
			NewMemo(sc, func(*Scope) int {
				log = append(log, "running label")
				return floor.Get() + 1
			})
			return nil
		})
		require.NoError(t, err)

		count.Set(9) // floor recomputes to the same 0

		assert.Equal(t, []string{"running floor", "running label", "running floor"}, log)
	})

	t.Run("reads outside a body are plain reads", func(t *testing.T) {
		count := NewState(3)

		var square *Memo[int]
		_, err := NewTree("t", func(sc *Scope) Tick {
			square, _ = NewMemo(sc, func(*Scope) int { return count.Get() * count.Get() })
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, 9, square.Get())
		count.Set(4)
		assert.Equal(t, 16, square.Get())
	})
}
