package indicators

import (
	"math"
	"math/rand"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walk(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	p := 100.0
	for i := range out {
		p *= 1 + (rng.Float64()-0.5)*0.02
		out[i] = p
	}
	return out
}

// mirror builds a price path whose returns are k times those of src.
func mirror(src []float64, k float64) []float64 {
	out := make([]float64, len(src))
	out[0] = 50
	for i := 1; i < len(src); i++ {
		r := src[i]/src[i-1] - 1
		out[i] = out[i-1] * (1 + k*r)
	}
	return out
}

func TestCorrelationsNoData(t *testing.T) {
	m := Correlations([]string{"A", "B"}, map[string][]float64{
		"A": walk(50, 1),
		"B": walk(9, 2),
	})
	assert.True(t, m.Empty())

	assert.True(t, Correlations(nil, nil).Empty())
}

func TestCorrelationsValues(t *testing.T) {
	a := walk(51, 1)
	m := Correlations([]string{"A", "B", "C", "D"}, map[string][]float64{
		"A": a,
		"B": a,
		"C": mirror(a, -1),
		"D": constant(51, 3),
	})
	require.False(t, m.Empty())
	assert.Equal(t, 50, m.Samples)

	v, ok := m.Get("A", "A")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	v, ok = m.Get("A", "B")
	require.True(t, ok)
	assert.InDelta(t, 1.0, v, 1e-9)

	v, ok = m.Get("A", "C")
	require.True(t, ok)
	assert.InDelta(t, -1.0, v, 1e-9)

	_, ok = m.Get("A", "D")
	assert.False(t, ok)
	_, ok = m.Get("D", "D")
	assert.False(t, ok)

	for i := range m.Values {
		for j := range m.Values {
			if math.IsNaN(m.Values[i][j]) {
				assert.True(t, math.IsNaN(m.Values[j][i]))
				continue
			}
			assert.Equal(t, m.Values[i][j], m.Values[j][i])
		}
	}
}

func TestCorrelationsTruncatesToShortest(t *testing.T) {
	long := walk(51, 4)
	short := long[len(long)-12:]
	m := Correlations([]string{"A", "B"}, map[string][]float64{"A": long, "B": short})
	assert.Equal(t, 11, m.Samples)

	// right-aligned: the overlapping tails are identical
	v, ok := m.Get("A", "B")
	require.True(t, ok)
	assert.InDelta(t, 1.0, v, 1e-9)
}

func TestCorrelationMatrixJSONEncodesNaNAsNull(t *testing.T) {
	m := CorrelationMatrix{Symbols: []string{"A"}, Values: [][]float64{{math.NaN()}}, Samples: 9}
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"values":[[null]]`)
}

func TestBeta(t *testing.T) {
	bench := walk(51, 9)
	tests := []struct {
		name   string
		target []float64
		bench  []float64
		want   float64
	}{
		{name: "short target", target: walk(19, 1), bench: bench, want: NeutralBeta},
		{name: "short benchmark", target: bench, bench: bench[:19], want: NeutralBeta},
		{name: "flat benchmark", target: bench, bench: constant(51, 10), want: NeutralBeta},
		{name: "identical", target: bench, bench: bench, want: 1},
		{name: "double", target: mirror(bench, 2), bench: bench, want: 2},
		{name: "inverse", target: mirror(bench, -1), bench: bench, want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Beta(tt.target, tt.bench), 1e-9)
		})
	}
}

func TestEngine(t *testing.T) {
	e := NewEngine([]string{"A", "B"}, 500, 50)
	assert.False(t, e.Update("X", 1))

	a := walk(60, 1)
	b := mirror(a, 2)
	for i := range a {
		require.True(t, e.Update("A", a[i]))
		require.True(t, e.Update("B", b[i]))
	}
	assert.Len(t, e.Window("A"), 60)
	assert.Equal(t, 60, e.Len("B"))

	m := e.Correlations()
	assert.Equal(t, 50, m.Samples)
	assert.InDelta(t, 2.0, e.Beta("B", "A"), 1e-9)
	assert.Equal(t, NeutralBeta, e.Beta("B", "X"))
}
