package market

import (
	"context"
	"time"
)

// Tick is one trade print for a configured symbol.
type Tick struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	Time   time.Time `json:"time"`
}

// Source produces ticks on a bounded channel until stopped. The channel is
// closed when Run returns.
type Source interface {
	Run(ctx context.Context) error
	Ticks() <-chan Tick
	Stop()
}
