package market

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"signal-core/pkg/market/binance"
)

type fakeFetcher struct {
	data map[string][]binance.Kline
}

func (f fakeFetcher) GetKlines(_ context.Context, symbol, _ string, _ int) ([]binance.Kline, error) {
	k, ok := f.data[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return k, nil
}

func TestWarmupSeedsCloses(t *testing.T) {
	f := fakeFetcher{data: map[string][]binance.Kline{
		"BTCUSDT": {{Close: 1}, {Close: 2}, {Close: 0}},
	}}
	seeded := map[string][]float64{}
	n := Warmup(context.Background(), f, []string{"BTCUSDT", "ETHUSDT"}, "1m", 3,
		func(s string, p float64) { seeded[s] = append(seeded[s], p) }, zerolog.Nop())

	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{1, 2}, seeded["BTCUSDT"])
	assert.Empty(t, seeded["ETHUSDT"])
}

func TestWarmupDisabled(t *testing.T) {
	n := Warmup(context.Background(), nil, []string{"BTCUSDT"}, "1m", 10, func(string, float64) {}, zerolog.Nop())
	assert.Zero(t, n)
}
