package strategy

import (
	"fmt"
	"math"
)

// PairTradingParams configure the spread trader.
type PairTradingParams struct {
	EntryZ     float64 `yaml:"entry_z"`
	MinSamples int     `yaml:"min_samples"`
}

func DefaultPairTradingParams() PairTradingParams {
	return PairTradingParams{EntryZ: 2.0, MinSamples: 20}
}

// PairTrading watches the log spread between two symbols. On its own it
// never trades; the pipeline calls EvaluatePair with both windows.
type PairTrading struct {
	id   string
	a, b string
	p    PairTradingParams
}

func NewPairTrading(id, a, b string, p PairTradingParams) *PairTrading {
	d := DefaultPairTradingParams()
	if p.EntryZ <= 0 {
		p.EntryZ = d.EntryZ
	}
	if p.MinSamples < 3 {
		p.MinSamples = d.MinSamples
	}
	if id == "" {
		id = "pair_trading"
	}
	return &PairTrading{id: id, a: a, b: b, p: p}
}

func (s *PairTrading) ID() string             { return s.id }
func (s *PairTrading) Name() string           { return fmt.Sprintf("PairTrading_%s_%s", s.a, s.b) }
func (s *PairTrading) Pair() (string, string) { return s.a, s.b }

func (s *PairTrading) Evaluate(symbol string, window []float64) Signal {
	if symbol != s.a && symbol != s.b {
		return hold(s.id, symbol, window, "not in pair", Metrics{})
	}
	return hold(s.id, symbol, window, "awaiting pair sync", Metrics{})
}

// EvaluatePair computes the z-score of the latest log spread log(A)-log(B)
// against the common trailing window.
func (s *PairTrading) EvaluatePair(a string, wa []float64, b string, wb []float64) PairSignal {
	out := PairSignal{Strategy: s.id, SymbolA: a, SymbolB: b, Action: PairHold}

	n := min(len(wa), len(wb))
	if n < s.p.MinSamples {
		out.Reason = "not enough data"
		return out
	}
	wa, wb = wa[len(wa)-n:], wb[len(wb)-n:]

	spread := make([]float64, n)
	sum := 0.0
	for i := range spread {
		spread[i] = math.Log(wa[i]) - math.Log(wb[i])
		sum += spread[i]
	}
	mean := sum / float64(n)
	ss := 0.0
	for _, v := range spread {
		ss += (v - mean) * (v - mean)
	}
	sd := math.Sqrt(ss / float64(n-1))
	if !(sd > 1e-12) || math.IsNaN(sd) {
		out.Reason = "insufficient signal"
		return out
	}

	z := (spread[n-1] - mean) / sd
	out.ZScore = z
	switch {
	case z > s.p.EntryZ:
		out.Action, out.Reason = PairShort, "spread rich"
	case z < -s.p.EntryZ:
		out.Action, out.Reason = PairLong, "spread cheap"
	default:
		out.Reason = "within bounds"
	}
	return out
}
