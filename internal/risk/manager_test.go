package risk

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-core/internal/events"
	"signal-core/internal/strategy"
)

func newManager(bus *events.Bus) *Manager {
	return NewManager(DefaultConfig(), bus, zerolog.Nop())
}

func TestDrawdownBreaker(t *testing.T) {
	bus := events.NewBus()
	alerts, unsub := bus.Subscribe(events.EventRiskAlert, 4)
	defer unsub()

	m := newManager(bus)
	sig := strategy.Signal{Strategy: "mr", Symbol: "BTCUSDT", Action: strategy.ActionBuy}

	require.True(t, m.Approve(sig))

	assert.False(t, m.UpdateEquity(9400))
	st := m.State()
	assert.InDelta(t, 0.06, st.CurrentDrawdownPct, 1e-12)
	assert.Equal(t, 10000.0, st.PeakEquity)
	assert.True(t, st.Halted)
	assert.False(t, m.Approve(sig))
	assert.Equal(t, uint64(1), m.State().Rejections)

	a := (<-alerts).(Alert)
	assert.Equal(t, AlertDrawdownBreach, a.Kind)

	// still halted: no second alert
	assert.False(t, m.UpdateEquity(9300))
	assert.Len(t, alerts, 0)

	assert.True(t, m.UpdateEquity(9600))
	assert.True(t, m.Approve(sig))
	a = (<-alerts).(Alert)
	assert.Equal(t, AlertDrawdownRecovered, a.Kind)
}

func TestDrawdownAtLimitStillApproves(t *testing.T) {
	m := newManager(nil)
	assert.True(t, m.UpdateEquity(9500))
	assert.False(t, m.Halted())
}

func TestPeakIsMonotonic(t *testing.T) {
	m := newManager(nil)
	seq := []float64{10000, 10500, 10200, 11000, 9000, 10999}
	peak := 0.0
	for _, eq := range seq {
		m.UpdateEquity(eq)
		st := m.State()
		assert.GreaterOrEqual(t, st.PeakEquity, peak)
		peak = st.PeakEquity
		assert.InDelta(t, (st.PeakEquity-eq)/st.PeakEquity, st.CurrentDrawdownPct, 1e-12)
	}
	assert.Equal(t, 11000.0, peak)
}

func TestUpdateEquityIgnoresNonFinite(t *testing.T) {
	m := newManager(nil)
	assert.True(t, m.UpdateEquity(math.NaN()))
	assert.Equal(t, 10000.0, m.State().CurrentEquity)
}

func TestPositionSize(t *testing.T) {
	m := newManager(nil)
	tests := []struct {
		name  string
		price float64
		vol   float64
		want  float64
	}{
		{name: "vol at target", price: 50000, vol: 0.02, want: 0.02},
		{name: "low vol capped at full size", price: 50000, vol: 0.001, want: 0.02},
		{name: "default vol", price: 100, vol: 0.01, want: 10},
		{name: "high vol scales down", price: 100, vol: 0.08, want: 2.5},
		{name: "zero price", price: 0, vol: 0.02, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, m.PositionSize(tt.price, tt.vol), 1e-12)
		})
	}
}

func TestZeroConfigFallsBackToDefaults(t *testing.T) {
	m := NewManager(Config{}, nil, zerolog.Nop())
	def := DefaultConfig()
	assert.Equal(t, def, m.Config())
	assert.Equal(t, def.MaxPositionUSD, m.State().MaxPositionUSD)
	// full risk factor at the floor volatility
	assert.InDelta(t, def.MaxPositionUSD/100, m.PositionSize(100, def.FloorVolatility), 1e-12)
}
