package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiquiditySweep(t *testing.T) {
	withTail := func(tail ...float64) []float64 {
		return append(flat(50, 100), tail...)
	}

	tests := []struct {
		name   string
		window []float64
		action Action
		reason string
	}{
		{name: "not enough data", window: flat(49, 100), action: ActionHold, reason: "not enough data"},
		{name: "sweep high", window: withTail(110, 109), action: ActionSell, reason: "liquidity sweep high"},
		{name: "sweep low", window: withTail(90, 91), action: ActionBuy, reason: "liquidity sweep low"},
		{name: "slow drift", window: withTail(100.1, 100.2), action: ActionHold, reason: "no sweep"},
		{name: "small pullback from high", window: withTail(110, 109.8), action: ActionHold, reason: "no sweep"},
	}

	s := NewLiquiditySweep("sweep", LiquiditySweepParams{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := s.Evaluate("SOLUSDT", tt.window)
			assert.Equal(t, tt.action, sig.Action)
			assert.Equal(t, tt.reason, sig.Reason)
		})
	}
}
