package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-core/internal/indicators"
)

type stubEstimator struct {
	z     float64
	zerr  error
	trend float64
}

func (s stubEstimator) ZScore([]float64, int) (float64, error) { return s.z, s.zerr }
func (s stubEstimator) Trend([]float64) float64                { return s.trend }

// trendSpy records the window length handed to Trend.
type trendSpy struct {
	stubEstimator
	seen int
}

func (s *trendSpy) Trend(w []float64) float64 {
	s.seen = len(w)
	return s.trend
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestMeanReversionDecisions(t *testing.T) {
	tests := []struct {
		name   string
		n      int
		est    stubEstimator
		action Action
		side   Side
		reason string
	}{
		{name: "not enough data", n: 19, est: stubEstimator{z: -5, trend: 0.3}, action: ActionHold, side: SideNone, reason: "not enough data"},
		{name: "oversold", n: 25, est: stubEstimator{z: -3.0, trend: 0.3}, action: ActionBuy, side: SideLong, reason: "oversold"},
		{name: "overbought", n: 25, est: stubEstimator{z: 3.0, trend: 0.3}, action: ActionSell, side: SideShort, reason: "overbought"},
		{name: "within bounds", n: 25, est: stubEstimator{z: 0.1, trend: 0.3}, action: ActionHold, side: SideNone, reason: "within bounds"},
		{name: "threshold is strict", n: 25, est: stubEstimator{z: -2.0, trend: 0.3}, action: ActionHold, side: SideNone, reason: "within bounds"},
		{name: "trending regime", n: 25, est: stubEstimator{z: -3.0, trend: 0.7}, action: ActionHold, side: SideNone, reason: "trending regime"},
		{name: "trend ceiling is strict", n: 25, est: stubEstimator{z: -3.0, trend: 0.6}, action: ActionBuy, side: SideLong, reason: "oversold"},
		{name: "zero variance", n: 25, est: stubEstimator{zerr: indicators.ErrDegenerate, trend: 0.5}, action: ActionHold, side: SideNone, reason: "insufficient signal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr := NewMeanReversion("mr", DefaultMeanReversionParams()).WithEstimator(tt.est)
			w := flat(tt.n, 100)
			sig := mr.Evaluate("BTCUSDT", w)

			assert.Equal(t, tt.action, sig.Action)
			assert.Equal(t, tt.side, sig.Side)
			assert.Equal(t, tt.reason, sig.Reason)
			assert.Equal(t, "BTCUSDT", sig.Symbol)
			assert.Equal(t, "mr", sig.Strategy)
			assert.Equal(t, 100.0, sig.Price)
		})
	}
}

func TestMeanReversionRealStatistics(t *testing.T) {
	mr := NewMeanReversion("", MeanReversionParams{})

	t.Run("constant window never trades", func(t *testing.T) {
		sig := mr.Evaluate("ETHUSDT", flat(25, 3000))
		assert.Equal(t, ActionHold, sig.Action)
		assert.Equal(t, "insufficient signal", sig.Reason)
	})

	t.Run("sharp drop is oversold", func(t *testing.T) {
		w := make([]float64, 0, 20)
		for i := range 19 {
			w = append(w, 100+float64(i%2))
		}
		w = append(w, 90)
		sig := mr.Evaluate("ETHUSDT", w)
		require.Equal(t, ActionBuy, sig.Action, sig.Reason)
		assert.Less(t, sig.Metrics.ZScore, -4.0)
		assert.Equal(t, indicators.NeutralTrend, sig.Metrics.Trend)
	})

	t.Run("accelerating market is trending", func(t *testing.T) {
		w := make([]float64, 100)
		for i := range w {
			w[i] = 100 + 0.01*float64(i*i)
		}
		sig := mr.Evaluate("ETHUSDT", w)
		assert.Equal(t, ActionHold, sig.Action)
		assert.Equal(t, "trending regime", sig.Reason)
		assert.Greater(t, sig.Metrics.Trend, 0.6)
	})
}

func TestMeanReversionIsPure(t *testing.T) {
	mr := NewMeanReversion("mr", DefaultMeanReversionParams())
	w := []float64{}
	for i := range 40 {
		w = append(w, 100+float64(i%3))
	}
	before := append([]float64(nil), w...)

	a := mr.Evaluate("BTCUSDT", w)
	b := mr.Evaluate("BTCUSDT", w)
	assert.Equal(t, a, b)
	assert.Equal(t, before, w)
}

func TestMeanReversionTrendWindow(t *testing.T) {
	tests := []struct {
		name   string
		window int
		n      int
		want   int
	}{
		{name: "default", window: 0, n: 300, want: indicators.DefaultTrendWindow},
		{name: "custom", window: 50, n: 300, want: 50},
		{name: "short history", window: 50, n: 30, want: 30},
		{name: "raised to minimum", window: 5, n: 300, want: indicators.MinTrendSamples},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spy := &trendSpy{stubEstimator: stubEstimator{z: 0, trend: 0.3}}
			mr := NewMeanReversion("mr", MeanReversionParams{TrendWindow: tt.window}).WithEstimator(spy)
			mr.Evaluate("BTCUSDT", flat(tt.n, 100))
			assert.Equal(t, tt.want, spy.seen)
		})
	}
}
