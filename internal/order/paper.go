package order

import (
	"math"
	"sort"
	"sync"

	"signal-core/pkg/exchanges/common"
)

// Position is a signed paper holding; negative quantity is short.
type Position struct {
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`
	EntryPrice float64 `json:"entry_price"`
}

// PaperLedger simulates cash and positions for paper fills so equity can be
// marked to market. Shorts are allowed; margin is not modeled.
type PaperLedger struct {
	mu        sync.RWMutex
	cash      float64
	feeRate   float64
	fees      float64
	fills     int
	positions map[string]*Position
	marks     map[string]float64
}

func NewPaperLedger(initialCash, feeRate float64) *PaperLedger {
	return &PaperLedger{
		cash:      initialCash,
		feeRate:   feeRate,
		positions: make(map[string]*Position),
		marks:     make(map[string]float64),
	}
}

// Apply books a fill at the order's reference price.
func (l *PaperLedger) Apply(o Order) {
	if o.Quantity <= 0 || o.Price <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	signed := o.Quantity
	if o.Side == common.SideSell {
		signed = -signed
	}
	value := o.Quantity * o.Price
	fee := value * l.feeRate

	l.cash -= signed * o.Price
	l.cash -= fee
	l.fees += fee
	l.fills++
	l.updatePosition(o.Symbol, signed, o.Price)
	if _, ok := l.marks[o.Symbol]; !ok {
		l.marks[o.Symbol] = o.Price
	}
}

func (l *PaperLedger) updatePosition(symbol string, signed, price float64) {
	pos, ok := l.positions[symbol]
	if !ok {
		l.positions[symbol] = &Position{Symbol: symbol, Quantity: signed, EntryPrice: price}
		return
	}

	next := pos.Quantity + signed
	switch {
	case math.Abs(next) < 1e-12:
		delete(l.positions, symbol)
	case pos.Quantity*signed > 0:
		// adding to the same side
		pos.EntryPrice = (pos.Quantity*pos.EntryPrice + signed*price) / next
		pos.Quantity = next
	case pos.Quantity*next < 0:
		// flipped through zero
		pos.Quantity = next
		pos.EntryPrice = price
	default:
		pos.Quantity = next
	}
}

// Mark records the latest price for symbol and returns current equity.
func (l *PaperLedger) Mark(symbol string, price float64) float64 {
	l.mu.Lock()
	if price > 0 {
		l.marks[symbol] = price
	}
	l.mu.Unlock()
	return l.Equity()
}

// Equity is cash plus the marked value of every position.
func (l *PaperLedger) Equity() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	eq := l.cash
	for sym, pos := range l.positions {
		mark, ok := l.marks[sym]
		if !ok {
			mark = pos.EntryPrice
		}
		eq += pos.Quantity * mark
	}
	return eq
}

// Holding returns the signed quantity held in symbol.
func (l *PaperLedger) Holding(symbol string) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if pos, ok := l.positions[symbol]; ok {
		return pos.Quantity
	}
	return 0
}

// Positions lists open positions sorted by symbol.
func (l *PaperLedger) Positions() []Position {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Position, 0, len(l.positions))
	for _, p := range l.positions {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Cash returns the cash balance after fees.
func (l *PaperLedger) Cash() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cash
}

// Fees returns total simulated fees paid.
func (l *PaperLedger) Fees() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.fees
}
