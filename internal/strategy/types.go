package strategy

// Action is what a signal asks the pipeline to do.
type Action string

const (
	ActionHold Action = "hold"
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Side is the intended exposure of a signal.
type Side string

const (
	SideNone  Side = "none"
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Metrics carries the statistics a decision was based on.
type Metrics struct {
	ZScore float64 `json:"zscore"`
	Trend  float64 `json:"trend"`
}

// Signal is a decision emitted by a strategy. It is a value and is never
// modified after Evaluate returns.
type Signal struct {
	Strategy string  `json:"strategy"`
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Action   Action  `json:"action"`
	Side     Side    `json:"side"`
	Reason   string  `json:"reason"`
	Metrics  Metrics `json:"metrics"`
}

// Actionable reports whether the signal requests a trade.
func (s Signal) Actionable() bool { return s.Action == ActionBuy || s.Action == ActionSell }

// Strategy evaluates the rolling price window of one symbol. Implementations
// must be pure: the same window always yields the same signal.
type Strategy interface {
	// ID returns the unique instance ID
	ID() string
	// Name returns the human-readable name
	Name() string
	Evaluate(symbol string, window []float64) Signal
}

// PairAction is the decision of a two-leg strategy.
type PairAction string

const (
	PairHold  PairAction = "hold"
	PairLong  PairAction = "long_pair"  // buy A, sell B
	PairShort PairAction = "short_pair" // sell A, buy B
)

// PairSignal is emitted by strategies that look at two symbols at once.
type PairSignal struct {
	Strategy string     `json:"strategy"`
	SymbolA  string     `json:"symbol_a"`
	SymbolB  string     `json:"symbol_b"`
	Action   PairAction `json:"action"`
	ZScore   float64    `json:"zscore"`
	Reason   string     `json:"reason"`
}

// PairEvaluator is an optional extension for strategies that need two
// synchronized windows.
type PairEvaluator interface {
	Pair() (a, b string)
	EvaluatePair(a string, windowA []float64, b string, windowB []float64) PairSignal
}

func last(window []float64) float64 {
	if len(window) == 0 {
		return 0
	}
	return window[len(window)-1]
}

func hold(id, symbol string, window []float64, reason string, m Metrics) Signal {
	return Signal{
		Strategy: id,
		Symbol:   symbol,
		Price:    last(window),
		Action:   ActionHold,
		Side:     SideNone,
		Reason:   reason,
		Metrics:  m,
	}
}
