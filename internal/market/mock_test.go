package market

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockFeedEmitsPerSymbol(t *testing.T) {
	m := &MockFeed{
		Symbols:  []string{"BTCUSDT", "ETHUSDT"},
		Interval: 5 * time.Millisecond,
		Seed:     42,
		Logger:   zerolog.Nop(),
	}
	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	seen := map[string]int{}
	for range 6 {
		select {
		case tk := <-m.Ticks():
			assert.Greater(t, tk.Price, 0.0)
			seen[tk.Symbol]++
		case <-time.After(2 * time.Second):
			t.Fatal("no tick")
		}
	}
	assert.Equal(t, 3, seen["BTCUSDT"])
	assert.Equal(t, 3, seen["ETHUSDT"])

	m.Stop()
	m.Stop()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("mock feed did not stop")
	}
}
