package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TRADING_MODE", "")
	t.Setenv("BINANCE_SYMBOLS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModePaper, cfg.TradingMode)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT", "SOLUSDT", "BNBUSDT", "XRPUSDT"}, cfg.Symbols)
	assert.Equal(t, 1000.0, cfg.MaxPositionSizeUSD)
	assert.Equal(t, 0.05, cfg.MaxDrawdownPct)
	assert.Equal(t, 10000.0, cfg.StartingEquity)
	assert.Equal(t, 500, cfg.HistoryCapacity)
	assert.Equal(t, 50, cfg.CorrelationWindow)
	assert.Equal(t, 20*time.Second, cfg.LivenessTimeout)
	assert.Equal(t, 5*time.Second, cfg.ReconnectInitial)
	assert.Equal(t, 60*time.Second, cfg.ReconnectMax)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TRADING_MODE", "paper")
	t.Setenv("BINANCE_SYMBOLS", " btcusdt , ethusdt ,")
	t.Setenv("MAX_DRAWDOWN_PCT", "0.1")
	t.Setenv("LIVENESS_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModePaper, cfg.TradingMode)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Symbols)
	assert.Equal(t, 0.1, cfg.MaxDrawdownPct)
	assert.Equal(t, 5*time.Second, cfg.LivenessTimeout)
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name    string
		mode    TradingMode
		key     string
		secret  string
		wantErr bool
	}{
		{name: "paper needs nothing", mode: ModePaper},
		{name: "live without keys", mode: ModeLive, wantErr: true},
		{name: "live with keys", mode: ModeLive, key: "k", secret: "s"},
		{name: "testnet ignores live keys", mode: ModeTestnet, key: "k", secret: "s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TRADING_MODE", string(tt.mode))
			t.Setenv("BINANCE_API_KEY", tt.key)
			t.Setenv("BINANCE_API_SECRET", tt.secret)
			t.Setenv("BINANCE_TESTNET_API_KEY", "")
			t.Setenv("BINANCE_TESTNET_API_SECRET", "")

			_, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrMissingCredentials))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("MAX_DRAWDOWN_PCT", "1.5")
	_, err := Load()
	require.Error(t, err)
}

func TestMasked(t *testing.T) {
	cfg := Config{BinanceAPIKey: "abcdefgh", BinanceAPISecret: "xy"}
	m := cfg.Masked()
	assert.Equal(t, "abcd****", m.BinanceAPIKey)
	assert.Equal(t, "****", m.BinanceAPISecret)
	assert.Equal(t, "abcdefgh", cfg.BinanceAPIKey)
}
