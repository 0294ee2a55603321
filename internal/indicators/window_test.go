package indicators

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for i := 1; i <= 5; i++ {
		w.Push(float64(i))
	}
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []float64{3, 4, 5}, w.Values())
}

func TestHistoryMatchesLastCapacitySamples(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, capacity := range []int{1, 5, 50} {
		h := NewHistory([]string{"BTCUSDT"}, capacity)
		var pushed []float64
		for range 2*capacity + 3 {
			p := rng.Float64() * 100
			pushed = append(pushed, p)
			require.True(t, h.Append("BTCUSDT", p))

			want := pushed
			if len(want) > capacity {
				want = want[len(want)-capacity:]
			}
			require.Equal(t, want, h.Snapshot("BTCUSDT"))
		}
	}
}

func TestHistoryUnknownSymbol(t *testing.T) {
	h := NewHistory([]string{"BTCUSDT"}, 10)
	assert.False(t, h.Append("DOGEUSDT", 1))

	snap := h.Snapshot("DOGEUSDT")
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
	assert.Zero(t, h.Len("DOGEUSDT"))
}

func TestHistorySnapshotIsCopy(t *testing.T) {
	h := NewHistory([]string{"BTCUSDT"}, 10)
	h.Append("BTCUSDT", 1)
	snap := h.Snapshot("BTCUSDT")
	snap[0] = 99
	assert.Equal(t, []float64{1}, h.Snapshot("BTCUSDT"))
}
