package market

import (
	"context"

	"github.com/rs/zerolog"

	"signal-core/pkg/market/binance"
)

// KlineFetcher loads recent candles.
type KlineFetcher interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]binance.Kline, error)
}

// Warmup seeds history with recent closes so statistics are available before
// the first live ticks arrive. Per-symbol failures are logged and skipped.
// It returns the number of closes fed to seed.
func Warmup(ctx context.Context, f KlineFetcher, symbols []string, interval string, limit int, seed func(symbol string, price float64), log zerolog.Logger) int {
	if f == nil || limit <= 0 {
		return 0
	}
	total := 0
	for _, sym := range symbols {
		if ctx.Err() != nil {
			break
		}
		klines, err := f.GetKlines(ctx, sym, interval, limit)
		if err != nil {
			log.Warn().Err(err).Str("symbol", sym).Msg("warmup fetch failed")
			continue
		}
		for _, k := range klines {
			if k.Close <= 0 {
				continue
			}
			seed(sym, k.Close)
			total++
		}
		log.Debug().Str("symbol", sym).Int("closes", len(klines)).Msg("warmup loaded")
	}
	return total
}
