package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-core/internal/events"
	"signal-core/internal/indicators"
	"signal-core/internal/market"
	"signal-core/internal/monitor"
	"signal-core/internal/order"
	"signal-core/internal/risk"
	"signal-core/internal/strategy"
	"signal-core/pkg/cache"
	"signal-core/pkg/exchanges/common"
)

// alwaysBuy buys once the window has at least three prices.
type alwaysBuy struct{ action strategy.Action }

func (alwaysBuy) ID() string   { return "stub" }
func (alwaysBuy) Name() string { return "Stub" }
func (s alwaysBuy) Evaluate(symbol string, w []float64) strategy.Signal {
	sig := strategy.Signal{Strategy: "stub", Symbol: symbol, Price: w[len(w)-1], Action: strategy.ActionHold, Side: strategy.SideNone}
	if len(w) >= 3 {
		sig.Action = s.action
		sig.Side = strategy.SideLong
		if s.action == strategy.ActionSell {
			sig.Side = strategy.SideShort
		}
		sig.Reason = "stub"
	}
	return sig
}

type stubPair struct{ alwaysBuy }

func (stubPair) Pair() (string, string) { return "BTCUSDT", "ETHUSDT" }
func (stubPair) EvaluatePair(a string, wa []float64, b string, wb []float64) strategy.PairSignal {
	if len(wa) == 0 || len(wb) == 0 {
		return strategy.PairSignal{Strategy: "pair", SymbolA: a, SymbolB: b, Action: strategy.PairHold}
	}
	return strategy.PairSignal{Strategy: "pair", SymbolA: a, SymbolB: b, Action: strategy.PairShort, ZScore: 2.5}
}

type failingBroker struct{}

func (failingBroker) SubmitOrder(context.Context, common.OrderRequest) (common.OrderResult, error) {
	return common.OrderResult{}, errors.New("exchange unavailable")
}

type fixture struct {
	p      *Pipeline
	bus    *events.Bus
	ledger *order.PaperLedger
	risk   *risk.Manager
}

func newFixture(t *testing.T, s strategy.Strategy, startEquity float64, mutate func(*Config)) fixture {
	t.Helper()
	bus := events.NewBus()
	ledger := order.NewPaperLedger(10000, 0)
	rcfg := risk.DefaultConfig()
	rcfg.StartingEquity = startEquity
	rm := risk.NewManager(rcfg, bus, zerolog.Nop())

	se := strategy.NewEngine(zerolog.Nop())
	se.Add(s, "")

	cfg := Config{
		Stats:      indicators.NewEngine([]string{"BTCUSDT", "ETHUSDT"}, 100, 50),
		Strategies: se,
		Risk:       rm,
		Router:     order.NewRouter(nil, ledger, zerolog.Nop()),
		Ledger:     ledger,
		Bus:        bus,
		Metrics:    monitor.NewSystemMetrics(),
		Mode:       order.ModePaper,
		Logger:     zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := NewPipeline(cfg)
	require.NoError(t, err)
	return fixture{p: p, bus: bus, ledger: ledger, risk: rm}
}

func tick(sym string, price float64) market.Tick {
	return market.Tick{Symbol: sym, Price: price, Time: time.Now()}
}

func TestNewPipelineRequiresCollaborators(t *testing.T) {
	_, err := NewPipeline(Config{})
	assert.Error(t, err)
}

func TestNewPipelineWarnsWithoutEquitySource(t *testing.T) {
	var buf bytes.Buffer
	newFixture(t, alwaysBuy{action: strategy.ActionBuy}, 10000, func(c *Config) {
		c.Mode = order.ModeTestnet
		c.Ledger = nil
		c.Logger = zerolog.New(&buf)
	})
	assert.Contains(t, buf.String(), "drawdown breaker will not trip")
	assert.Contains(t, buf.String(), `"mode":"testnet"`)

	buf.Reset()
	newFixture(t, alwaysBuy{action: strategy.ActionBuy}, 10000, func(c *Config) {
		c.Logger = zerolog.New(&buf)
	})
	assert.NotContains(t, buf.String(), "drawdown breaker")
}

func TestPipelinePaperOrder(t *testing.T) {
	f := newFixture(t, alwaysBuy{action: strategy.ActionBuy}, 10000, nil)
	ctx := context.Background()

	for _, px := range []float64{100, 101, 102} {
		_, ok := f.p.HandleTick(ctx, tick("BTCUSDT", px))
		require.True(t, ok)
	}

	orders, err := f.p.RecentOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "filled", orders[0].Status)
	assert.True(t, strings.HasPrefix(orders[0].ExchangeID, "paper_"))
	assert.Equal(t, "BUY", orders[0].Side)
	// 1000 USD at full risk factor (vol 0.01 -> factor 1)
	assert.InDelta(t, 1000.0/102, orders[0].Qty, 1e-9)
	assert.InDelta(t, 1000.0/102, f.ledger.Holding("BTCUSDT"), 1e-9)

	snaps := f.p.Snapshots()
	require.Len(t, snaps, 1)
	assert.InDelta(t, f.ledger.Holding("BTCUSDT"), snaps[0].Holding, 1e-12)
}

func TestPipelineDashboardUpdate(t *testing.T) {
	f := newFixture(t, alwaysBuy{action: strategy.ActionHold}, 10000, nil)
	ch, unsub := f.bus.Subscribe(events.EventDashboard, 8)
	defer unsub()

	f.p.HandleTick(context.Background(), tick("ETHUSDT", 200))
	upd, ok := f.p.HandleTick(context.Background(), tick("ETHUSDT", 210))
	require.True(t, ok)

	assert.Equal(t, "ETHUSDT", upd.Symbol)
	assert.InDelta(t, 5.0, upd.ChangePct, 1e-9)
	assert.Zero(t, upd.ZScore)
	assert.Equal(t, indicators.NeutralTrend, upd.Trend)
	assert.Equal(t, 2, upd.Samples)

	select {
	case msg := <-ch:
		_, isUpd := msg.(DashboardUpdate)
		assert.True(t, isUpd)
	case <-time.After(time.Second):
		t.Fatal("no dashboard event")
	}
}

func TestPipelineIgnoresUnknownAndInvalid(t *testing.T) {
	f := newFixture(t, alwaysBuy{action: strategy.ActionBuy}, 10000, nil)
	_, ok := f.p.HandleTick(context.Background(), tick("DOGEUSDT", 1))
	assert.False(t, ok)
	_, ok = f.p.HandleTick(context.Background(), tick("BTCUSDT", 0))
	assert.False(t, ok)
	assert.Zero(t, f.p.Status(context.Background()).TicksProcessed)
}

func TestPipelineBreakerBlocksOrders(t *testing.T) {
	// ledger equity 10000 against a 20000 peak: 50% drawdown
	f := newFixture(t, alwaysBuy{action: strategy.ActionBuy}, 20000, nil)
	ctx := context.Background()
	for _, px := range []float64{100, 101, 102, 103} {
		upd, _ := f.p.HandleTick(ctx, tick("BTCUSDT", px))
		assert.True(t, upd.Halted)
	}
	orders, err := f.p.RecentOrders(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.True(t, f.p.Risk().Halted)
	assert.Positive(t, f.p.Risk().Rejections)
}

func TestPipelineAsyncBrokerFailure(t *testing.T) {
	f := newFixture(t, alwaysBuy{action: strategy.ActionSell}, 10000, func(c *Config) {
		c.Mode = order.ModeLive
		c.Ledger = nil
		c.Router = order.NewRouter(failingBroker{}, nil, zerolog.Nop())
		c.Async = order.NewAsyncExecutor(c.Router, 2, 10, zerolog.Nop())
	})

	ticks := make(chan market.Tick, 4)
	for _, px := range []float64{100, 101, 102} {
		ticks <- tick("BTCUSDT", px)
	}
	close(ticks)

	require.NoError(t, f.p.Run(context.Background(), ticks))

	orders, err := f.p.RecentOrders(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "failed", orders[0].Status)
	assert.Equal(t, "exchange unavailable", orders[0].Reason)
	assert.Equal(t, "SELL", orders[0].Side)
	assert.Empty(t, f.p.Positions())
}

func TestPipelinePairSignals(t *testing.T) {
	f := newFixture(t, stubPair{alwaysBuy{action: strategy.ActionHold}}, 10000, nil)
	ch, unsub := f.bus.Subscribe(events.EventPairSignal, 8)
	defer unsub()

	f.p.HandleTick(context.Background(), tick("BTCUSDT", 100))
	select {
	case <-ch:
		t.Fatal("pair signal without both legs")
	default:
	}

	f.p.HandleTick(context.Background(), tick("ETHUSDT", 10))
	select {
	case msg := <-ch:
		ps := msg.(strategy.PairSignal)
		assert.Equal(t, strategy.PairShort, ps.Action)
	case <-time.After(time.Second):
		t.Fatal("expected pair signal")
	}
}

func TestPipelineRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, alwaysBuy{action: strategy.ActionHold}, 10000, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ticks := make(chan market.Tick)
	done := make(chan error, 1)
	go func() { done <- f.p.Run(ctx, ticks) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestServiceReads(t *testing.T) {
	f := newFixture(t, alwaysBuy{action: strategy.ActionHold}, 10000, func(c *Config) {
		c.FeedConnected = func() bool { return true }
		c.Meta = SystemStatus{Version: "test", Venue: "binance"}
		c.Prices = cache.NewPriceCache()
		c.StaleAfter = time.Hour
	})
	ctx := context.Background()
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, f.p.Status(ctx).StaleSymbols)
	for i := range 30 {
		f.p.HandleTick(ctx, tick("BTCUSDT", 100+float64(i)))
		f.p.HandleTick(ctx, tick("ETHUSDT", 10+float64(i)/10))
	}

	st := f.p.Status(ctx)
	assert.Empty(t, st.StaleSymbols)
	assert.True(t, st.FeedConnected)
	assert.True(t, st.DryRun)
	assert.Equal(t, "test", st.Version)
	assert.EqualValues(t, 60, st.TicksProcessed)
	require.Len(t, st.Strategies, 1)
	assert.Equal(t, "stub", st.Strategies[0].ID)

	h, ok := f.p.History("BTCUSDT", 5)
	require.True(t, ok)
	assert.Equal(t, []float64{125, 126, 127, 128, 129}, h)
	_, ok = f.p.History("NOPE", 5)
	assert.False(t, ok)

	m := f.p.Correlations()
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, m.Symbols)
	assert.EqualValues(t, 60, f.p.Metrics().TicksProcessed)
}
