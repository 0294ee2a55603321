package strategy

import "fmt"

// LiquiditySweepParams configure the sweep detector.
type LiquiditySweepParams struct {
	Lookback  int     `yaml:"lookback"`
	Proximity float64 `yaml:"proximity"` // how close prev must be to the extreme
	Reversal  float64 `yaml:"reversal"`  // minimum move away from prev
}

func DefaultLiquiditySweepParams() LiquiditySweepParams {
	return LiquiditySweepParams{Lookback: 50, Proximity: 0.001, Reversal: 0.005}
}

// LiquiditySweep approximates a stop-run on close prices: the previous print
// touched the window extreme and the current one snapped back sharply.
type LiquiditySweep struct {
	id string
	p  LiquiditySweepParams
}

func NewLiquiditySweep(id string, p LiquiditySweepParams) *LiquiditySweep {
	d := DefaultLiquiditySweepParams()
	if p.Lookback < 2 {
		p.Lookback = d.Lookback
	}
	if p.Proximity <= 0 {
		p.Proximity = d.Proximity
	}
	if p.Reversal <= 0 {
		p.Reversal = d.Reversal
	}
	if id == "" {
		id = "liquidity_sweep"
	}
	return &LiquiditySweep{id: id, p: p}
}

func (s *LiquiditySweep) ID() string   { return s.id }
func (s *LiquiditySweep) Name() string { return fmt.Sprintf("LiquiditySweep_%d", s.p.Lookback) }

func (s *LiquiditySweep) Evaluate(symbol string, window []float64) Signal {
	if len(window) < s.p.Lookback {
		return hold(s.id, symbol, window, "not enough data", Metrics{})
	}
	recent := window[len(window)-s.p.Lookback:]
	high, low := recent[0], recent[0]
	for _, v := range recent[1:] {
		high = max(high, v)
		low = min(low, v)
	}
	cur, prev := recent[len(recent)-1], recent[len(recent)-2]

	sig := hold(s.id, symbol, window, "no sweep", Metrics{})
	switch {
	case prev >= high*(1-s.p.Proximity) && cur < prev*(1-s.p.Reversal):
		sig.Action, sig.Side, sig.Reason = ActionSell, SideShort, "liquidity sweep high"
	case prev <= low*(1+s.p.Proximity) && cur > prev*(1+s.p.Reversal):
		sig.Action, sig.Side, sig.Reason = ActionBuy, SideLong, "liquidity sweep low"
	}
	return sig
}
