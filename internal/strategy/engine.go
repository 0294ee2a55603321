package strategy

import (
	"fmt"

	"github.com/rs/zerolog"
)

type entry struct {
	s      Strategy
	symbol string // empty means every symbol
}

// Engine holds the active strategies and fans each window out to them.
type Engine struct {
	entries []entry
	log     zerolog.Logger
}

func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log.With().Str("component", "strategy").Logger()}
}

// Add registers a strategy. A non-empty symbol restricts it to that symbol.
func (e *Engine) Add(s Strategy, symbol string) {
	e.entries = append(e.entries, entry{s: s, symbol: symbol})
}

// Len returns the number of registered strategies.
func (e *Engine) Len() int { return len(e.entries) }

// Strategies lists registered strategies in evaluation order.
func (e *Engine) Strategies() []Strategy {
	out := make([]Strategy, 0, len(e.entries))
	for _, en := range e.entries {
		out = append(out, en.s)
	}
	return out
}

// Evaluate runs every strategy scoped to symbol, in registration order. A
// strategy that panics is skipped for this tick.
func (e *Engine) Evaluate(symbol string, window []float64) []Signal {
	out := make([]Signal, 0, len(e.entries))
	for _, en := range e.entries {
		if en.symbol != "" && en.symbol != symbol {
			continue
		}
		sig, err := e.safeEvaluate(en.s, symbol, window)
		if err != nil {
			e.log.Error().Err(err).Str("strategy", en.s.ID()).Str("symbol", symbol).Msg("strategy evaluation failed")
			continue
		}
		out = append(out, sig)
	}
	return out
}

// PairEvaluators returns the registered strategies that trade a pair
// containing symbol.
func (e *Engine) PairEvaluators(symbol string) []PairEvaluator {
	var out []PairEvaluator
	for _, en := range e.entries {
		pe, ok := en.s.(PairEvaluator)
		if !ok {
			continue
		}
		if a, b := pe.Pair(); a == symbol || b == symbol {
			out = append(out, pe)
		}
	}
	return out
}

func (e *Engine) safeEvaluate(s Strategy, symbol string, window []float64) (sig Signal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Evaluate(symbol, window), nil
}
