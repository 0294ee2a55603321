package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairTradingEvaluateNeverTrades(t *testing.T) {
	p := NewPairTrading("pair", "BTCUSDT", "ETHUSDT", PairTradingParams{})

	sig := p.Evaluate("BTCUSDT", flat(30, 1))
	assert.Equal(t, ActionHold, sig.Action)
	assert.Equal(t, "awaiting pair sync", sig.Reason)

	sig = p.Evaluate("XRPUSDT", flat(30, 1))
	assert.Equal(t, "not in pair", sig.Reason)
}

func TestPairTradingEvaluatePair(t *testing.T) {
	legA := func(lastPrice float64) []float64 {
		w := make([]float64, 0, 30)
		for i := range 29 {
			w = append(w, 100+float64(i%2))
		}
		return append(w, lastPrice)
	}

	tests := []struct {
		name   string
		a, b   []float64
		action PairAction
		reason string
	}{
		{name: "short window", a: flat(10, 1), b: flat(10, 1), action: PairHold, reason: "not enough data"},
		{name: "constant spread", a: flat(30, 2), b: flat(30, 1), action: PairHold, reason: "insufficient signal"},
		{name: "spread rich", a: legA(120), b: flat(30, 100), action: PairShort, reason: "spread rich"},
		{name: "spread cheap", a: legA(80), b: flat(30, 100), action: PairLong, reason: "spread cheap"},
		{name: "within bounds", a: legA(100), b: flat(30, 100), action: PairHold, reason: "within bounds"},
		{name: "unequal lengths are right aligned", a: legA(120), b: flat(60, 100), action: PairShort, reason: "spread rich"},
	}

	p := NewPairTrading("pair", "BTCUSDT", "ETHUSDT", PairTradingParams{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := p.EvaluatePair("BTCUSDT", tt.a, "ETHUSDT", tt.b)
			assert.Equal(t, tt.action, sig.Action)
			assert.Equal(t, tt.reason, sig.Reason)
		})
	}
}
