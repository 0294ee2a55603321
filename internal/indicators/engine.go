package indicators

import "sync"

// Engine owns the rolling histories used for analysis and correlation.
// Reads and writes are serialized so snapshots are always consistent with
// the most recently applied tick.
type Engine struct {
	mu   sync.RWMutex
	hist *History
	corr *History
}

// NewEngine builds an engine over a fixed symbol set. The correlation window
// keeps one extra price so corrWindow returns are available.
func NewEngine(symbols []string, historyCap, corrWindow int) *Engine {
	return &Engine{
		hist: NewHistory(symbols, historyCap),
		corr: NewHistory(symbols, corrWindow+1),
	}
}

// Update ingests a new price. It reports false for unconfigured symbols.
func (e *Engine) Update(symbol string, price float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hist.Append(symbol, price) {
		return false
	}
	e.corr.Append(symbol, price)
	return true
}

// Window returns a copy of the analysis history for symbol.
func (e *Engine) Window(symbol string) []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hist.Snapshot(symbol)
}

// Len reports how many samples symbol has in the analysis history.
func (e *Engine) Len(symbol string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.hist.Len(symbol)
}

func (e *Engine) Symbols() []string { return e.hist.Symbols() }

// Correlations recomputes the correlation matrix across all symbols.
func (e *Engine) Correlations() CorrelationMatrix {
	e.mu.RLock()
	symbols := e.corr.Symbols()
	series := make(map[string][]float64, len(symbols))
	for _, s := range symbols {
		series[s] = e.corr.Snapshot(s)
	}
	e.mu.RUnlock()
	return Correlations(symbols, series)
}

// Beta of target against benchmark over the correlation window.
func (e *Engine) Beta(target, benchmark string) float64 {
	e.mu.RLock()
	t, b := e.corr.Snapshot(target), e.corr.Snapshot(benchmark)
	e.mu.RUnlock()
	return Beta(t, b)
}
