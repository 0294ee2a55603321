package engine

import (
	"context"
	"errors"
	"math"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signal-core/internal/events"
	"signal-core/internal/indicators"
	"signal-core/internal/market"
	"signal-core/internal/monitor"
	"signal-core/internal/order"
	"signal-core/internal/persistence"
	"signal-core/internal/risk"
	"signal-core/internal/strategy"
	"signal-core/pkg/cache"
	"signal-core/pkg/db"
	"signal-core/pkg/exchanges/common"
)

const (
	recentOrders       = 100
	defaultVolLookback = 20
	dashboardRSIPeriod = 14
	defaultVolatility  = 0.01
	defaultStaleAfter  = 30 * time.Second
)

// Journal persists order outcomes.
type Journal interface {
	RecordExecution(e order.Execution)
	RecentOrders(ctx context.Context, limit int) ([]db.OrderRecord, error)
}

// Config holds every collaborator of a Pipeline. Stats, Strategies, Risk
// and Router are required.
type Config struct {
	Stats      *indicators.Engine
	Strategies *strategy.Engine
	Risk       *risk.Manager
	Router     *order.Router
	// Async dispatches broker orders off the tick path. nil routes inline.
	Async *order.AsyncExecutor
	// Ledger marks paper equity; nil outside paper mode.
	Ledger  *order.PaperLedger
	Bus     *events.Bus
	Metrics *monitor.SystemMetrics
	Journal Journal
	Mode    order.Mode

	// DefaultVolatility feeds PositionSize when no realized estimate is used.
	DefaultVolatility     float64
	UseRealizedVolatility bool
	VolatilityLookback    int

	// Prices tracks per-symbol freshness; symbols silent for longer than
	// StaleAfter are listed in Status.
	Prices     *cache.PriceCache
	StaleAfter time.Duration

	FeedConnected func() bool
	Meta          SystemStatus
	Logger        zerolog.Logger
}

// Pipeline processes ticks one at a time: history, equity, strategies, risk
// gate, execution, then a dashboard update.
type Pipeline struct {
	cfg   Config
	log   zerolog.Logger
	ticks atomic.Uint64

	mu     sync.RWMutex
	latest map[string]DashboardUpdate
	recent []order.Execution

	results sync.WaitGroup
}

func NewPipeline(cfg Config) (*Pipeline, error) {
	switch {
	case cfg.Stats == nil:
		return nil, errors.New("pipeline: statistics engine required")
	case cfg.Strategies == nil:
		return nil, errors.New("pipeline: strategy engine required")
	case cfg.Risk == nil:
		return nil, errors.New("pipeline: risk manager required")
	case cfg.Router == nil:
		return nil, errors.New("pipeline: router required")
	}
	if cfg.Mode == "" {
		cfg.Mode = order.ModePaper
	}
	if cfg.DefaultVolatility <= 0 {
		cfg.DefaultVolatility = defaultVolatility
	}
	if cfg.VolatilityLookback <= 1 {
		cfg.VolatilityLookback = defaultVolLookback
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = defaultStaleAfter
	}
	p := &Pipeline{
		cfg:    cfg,
		log:    cfg.Logger.With().Str("component", "pipeline").Logger(),
		latest: make(map[string]DashboardUpdate),
	}
	if cfg.Ledger == nil {
		p.log.Warn().Str("mode", string(cfg.Mode)).
			Msg("no equity source; drawdown breaker will not trip")
	}
	return p, nil
}

// Run consumes ticks until the channel closes or ctx is done. On return the
// async executor (if any) has finished its in-flight orders and every result
// has been recorded.
func (p *Pipeline) Run(ctx context.Context, ticks <-chan market.Tick) error {
	if p.cfg.Async != nil {
		p.cfg.Async.Start(ctx)
		p.results.Add(1)
		go p.consumeResults()
	}
	defer p.shutdown()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t, ok := <-ticks:
			if !ok {
				return nil
			}
			p.HandleTick(ctx, t)
		}
	}
}

func (p *Pipeline) shutdown() {
	if p.cfg.Async == nil {
		return
	}
	p.log.Info().Int("pending", p.cfg.Async.Pending()).Msg("waiting for in-flight orders")
	p.cfg.Async.Close()
	p.results.Wait()
}

func (p *Pipeline) consumeResults() {
	defer p.results.Done()
	for e := range p.cfg.Async.Results() {
		p.record(e)
	}
}

// HandleTick runs the full pipeline for one tick. ok is false when the tick
// was ignored (unknown symbol or invalid price).
func (p *Pipeline) HandleTick(ctx context.Context, t market.Tick) (DashboardUpdate, bool) {
	start := time.Now()
	if t.Price <= 0 || math.IsNaN(t.Price) || math.IsInf(t.Price, 0) {
		p.log.Debug().Str("symbol", t.Symbol).Float64("price", t.Price).Msg("invalid price dropped")
		return DashboardUpdate{}, false
	}
	if !p.cfg.Stats.Update(t.Symbol, t.Price) {
		p.log.Debug().Str("symbol", t.Symbol).Msg("tick for unconfigured symbol dropped")
		return DashboardUpdate{}, false
	}
	p.ticks.Add(1)
	if p.cfg.Prices != nil {
		p.cfg.Prices.Set(t.Symbol, t.Price)
	}
	window := p.cfg.Stats.Window(t.Symbol)

	if p.cfg.Ledger != nil {
		p.cfg.Risk.UpdateEquity(p.cfg.Ledger.Mark(t.Symbol, t.Price))
	}

	for _, sig := range p.cfg.Strategies.Evaluate(t.Symbol, window) {
		if !sig.Actionable() {
			continue
		}
		p.onSignal(ctx, sig, window)
	}
	p.evaluatePairs(t.Symbol)

	upd := p.dashboard(t, window)
	p.mu.Lock()
	p.latest[t.Symbol] = upd
	p.mu.Unlock()
	p.publish(events.EventDashboard, upd)

	if p.cfg.Metrics != nil {
		st := p.cfg.Risk.State()
		p.cfg.Metrics.SetRisk(st.CurrentEquity, st.CurrentDrawdownPct, st.Halted)
		p.cfg.Metrics.ObserveTick(t.Symbol, time.Since(start))
	}
	return upd, true
}

func (p *Pipeline) onSignal(ctx context.Context, sig strategy.Signal, window []float64) {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.ObserveSignal(sig.Strategy, string(sig.Action))
	}
	p.publish(events.EventStrategySignal, sig)

	if !p.cfg.Risk.Approve(sig) {
		return
	}

	vol := p.cfg.DefaultVolatility
	if p.cfg.UseRealizedVolatility {
		if v, ok := indicators.Volatility(window, p.cfg.VolatilityLookback); ok {
			vol = v
		}
	}
	qty := p.cfg.Risk.PositionSize(sig.Price, vol)
	if qty <= 0 {
		p.log.Warn().Str("symbol", sig.Symbol).Float64("price", sig.Price).Msg("zero position size; signal skipped")
		return
	}

	o := order.Order{
		ID:        uuid.NewString(),
		Strategy:  sig.Strategy,
		Symbol:    sig.Symbol,
		Side:      sideOf(sig.Action),
		Type:      common.OrderTypeMarket,
		Quantity:  qty,
		Price:     sig.Price,
		Mode:      p.cfg.Mode,
		Reason:    sig.Reason,
		CreatedAt: time.Now(),
	}
	p.log.Info().
		Str("strategy", sig.Strategy).
		Str("symbol", sig.Symbol).
		Str("action", string(sig.Action)).
		Str("reason", sig.Reason).
		Float64("zscore", sig.Metrics.ZScore).
		Float64("trend", sig.Metrics.Trend).
		Float64("qty", qty).
		Msg("signal approved")

	if p.cfg.Async != nil && p.cfg.Mode != order.ModePaper {
		// failures, including a full queue, come back on Results
		p.cfg.Async.Submit(o)
		return
	}
	res := p.cfg.Router.Submit(context.WithoutCancel(ctx), o)
	p.record(order.Execution{Order: o, Result: res, Timestamp: time.Now()})
}

func (p *Pipeline) evaluatePairs(symbol string) {
	for _, pe := range p.cfg.Strategies.PairEvaluators(symbol) {
		a, b := pe.Pair()
		ps := pe.EvaluatePair(a, p.cfg.Stats.Window(a), b, p.cfg.Stats.Window(b))
		if ps.Action == strategy.PairHold {
			continue
		}
		p.log.Info().
			Str("strategy", ps.Strategy).
			Str("pair", a+"/"+b).
			Str("action", string(ps.Action)).
			Float64("zscore", ps.ZScore).
			Msg("pair signal")
		p.publish(events.EventPairSignal, ps)
	}
}

func (p *Pipeline) record(e order.Execution) {
	if p.cfg.Metrics != nil {
		p.cfg.Metrics.ObserveOrder(e.Order.Symbol, string(e.Order.Side), string(e.Result.Status), e.Result.Latency)
	}
	if p.cfg.Journal != nil {
		p.cfg.Journal.RecordExecution(e)
	}
	p.mu.Lock()
	p.recent = append(p.recent, e)
	if len(p.recent) > recentOrders {
		p.recent = slices.Delete(p.recent, 0, len(p.recent)-recentOrders)
	}
	p.mu.Unlock()
	p.publish(events.EventOrderResult, e)
}

func (p *Pipeline) dashboard(t market.Tick, window []float64) DashboardUpdate {
	upd := DashboardUpdate{
		Symbol:  t.Symbol,
		Price:   t.Price,
		Time:    t.Time,
		Trend:   indicators.TrendIndicator(window),
		RSI:     indicators.RSI(window, dashboardRSIPeriod),
		Samples: len(window),
		Halted:  p.cfg.Risk.Halted(),
	}
	if z, err := indicators.ZScore(window, indicators.DefaultZLookback); err == nil {
		upd.ZScore = z
	}
	if len(window) > 1 && window[0] != 0 {
		upd.ChangePct = (window[len(window)-1] - window[0]) / window[0] * 100
	}
	if p.cfg.Ledger != nil {
		upd.Holding = p.cfg.Ledger.Holding(t.Symbol)
	}
	return upd
}

func (p *Pipeline) publish(e events.Event, payload any) {
	if p.cfg.Bus != nil {
		p.cfg.Bus.Publish(e, payload)
	}
}

func sideOf(a strategy.Action) common.Side {
	if a == strategy.ActionSell {
		return common.SideSell
	}
	return common.SideBuy
}

// --- read-only Service ---

func (p *Pipeline) Status(_ context.Context) SystemStatus {
	st := p.cfg.Meta
	st.Mode = string(p.cfg.Mode)
	st.DryRun = p.cfg.Mode == order.ModePaper
	st.Symbols = p.cfg.Stats.Symbols()
	st.TicksProcessed = p.ticks.Load()
	st.Risk = p.cfg.Risk.State()
	st.ServerTime = time.Now()
	if p.cfg.FeedConnected != nil {
		st.FeedConnected = p.cfg.FeedConnected()
	}
	if p.cfg.Prices != nil {
		st.StaleSymbols = p.cfg.Prices.Stale(st.Symbols, p.cfg.StaleAfter)
	}
	if p.cfg.Async != nil {
		st.PendingOrders = p.cfg.Async.Pending()
		st.DroppedOrders = p.cfg.Async.Dropped()
	}
	if p.cfg.Bus != nil {
		st.BusDropped = p.cfg.Bus.Dropped()
	}
	for _, s := range p.cfg.Strategies.Strategies() {
		st.Strategies = append(st.Strategies, StrategyInfo{ID: s.ID(), Name: s.Name()})
	}
	return st
}

// Snapshots returns the latest dashboard update per symbol, sorted by symbol.
func (p *Pipeline) Snapshots() []DashboardUpdate {
	p.mu.RLock()
	out := make([]DashboardUpdate, 0, len(p.latest))
	for _, u := range p.latest {
		out = append(out, u)
	}
	p.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// History returns up to limit trailing prices; ok is false for unknown symbols.
func (p *Pipeline) History(symbol string, limit int) ([]float64, bool) {
	if !slices.Contains(p.cfg.Stats.Symbols(), symbol) {
		return nil, false
	}
	w := p.cfg.Stats.Window(symbol)
	if limit > 0 && len(w) > limit {
		w = w[len(w)-limit:]
	}
	return w, true
}

func (p *Pipeline) Correlations() indicators.CorrelationMatrix { return p.cfg.Stats.Correlations() }

func (p *Pipeline) Beta(target, benchmark string) float64 { return p.cfg.Stats.Beta(target, benchmark) }

func (p *Pipeline) Risk() risk.State { return p.cfg.Risk.State() }

// RecentOrders reads the journal when present, otherwise the in-memory tail.
func (p *Pipeline) RecentOrders(ctx context.Context, limit int) ([]db.OrderRecord, error) {
	if limit <= 0 || limit > recentOrders {
		limit = recentOrders
	}
	if p.cfg.Journal != nil {
		return p.cfg.Journal.RecentOrders(ctx, limit)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]db.OrderRecord, 0, min(limit, len(p.recent)))
	for i := len(p.recent) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, persistence.RecordFromExecution(p.recent[i]))
	}
	return out, nil
}

func (p *Pipeline) Positions() []order.Position {
	if p.cfg.Ledger == nil {
		return []order.Position{}
	}
	return p.cfg.Ledger.Positions()
}

func (p *Pipeline) Metrics() monitor.MetricsSnapshot {
	if p.cfg.Metrics == nil {
		return monitor.MetricsSnapshot{Timestamp: time.Now()}
	}
	return p.cfg.Metrics.Snapshot()
}
