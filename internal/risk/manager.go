package risk

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"signal-core/internal/events"
	"signal-core/internal/strategy"
)

// Manager is the drawdown circuit breaker and position sizer. The pipeline
// writes equity; the dashboard reads State concurrently.
type Manager struct {
	mu         sync.RWMutex
	cfg        Config
	state      State
	rejections uint64
	bus        *events.Bus
	log        zerolog.Logger
}

// NewManager creates a manager with peak and current equity at
// cfg.StartingEquity. bus may be nil.
func NewManager(cfg Config, bus *events.Bus, log zerolog.Logger) *Manager {
	def := DefaultConfig()
	if cfg.StartingEquity <= 0 {
		cfg.StartingEquity = def.StartingEquity
	}
	if cfg.MaxDrawdownPct <= 0 {
		cfg.MaxDrawdownPct = def.MaxDrawdownPct
	}
	if cfg.MaxPositionUSD <= 0 {
		cfg.MaxPositionUSD = def.MaxPositionUSD
	}
	if cfg.TargetRisk <= 0 {
		cfg.TargetRisk = def.TargetRisk
	}
	if cfg.FloorVolatility <= 0 {
		cfg.FloorVolatility = def.FloorVolatility
	}
	return &Manager{
		cfg: cfg,
		state: State{
			PeakEquity:     cfg.StartingEquity,
			CurrentEquity:  cfg.StartingEquity,
			MaxDrawdownPct: cfg.MaxDrawdownPct,
			MaxPositionUSD: cfg.MaxPositionUSD,
			UpdatedAt:      time.Now(),
		},
		bus: bus,
		log: log.With().Str("component", "risk").Logger(),
	}
}

func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// UpdateEquity records a new equity observation, raising the peak if needed
// and recomputing drawdown from it. It returns false while drawdown exceeds
// the configured maximum.
func (m *Manager) UpdateEquity(equity float64) bool {
	if math.IsNaN(equity) || math.IsInf(equity, 0) {
		m.log.Warn().Float64("equity", equity).Msg("ignoring non-finite equity")
		return !m.Halted()
	}

	m.mu.Lock()
	wasHalted := m.state.Halted
	m.state.PeakEquity = math.Max(m.state.PeakEquity, equity)
	m.state.CurrentEquity = equity
	m.state.CurrentDrawdownPct = (m.state.PeakEquity - equity) / m.state.PeakEquity
	m.state.Halted = m.state.CurrentDrawdownPct > m.cfg.MaxDrawdownPct
	m.state.UpdatedAt = time.Now()
	st := m.state
	m.mu.Unlock()

	switch {
	case st.Halted && !wasHalted:
		m.log.Error().
			Str("severity", "critical").
			Float64("drawdown_pct", st.CurrentDrawdownPct).
			Float64("max_drawdown_pct", st.MaxDrawdownPct).
			Float64("equity", st.CurrentEquity).
			Float64("peak", st.PeakEquity).
			Msg("max drawdown exceeded; trading halted")
		m.publish(AlertDrawdownBreach, st)
	case !st.Halted && wasHalted:
		m.log.Info().Float64("drawdown_pct", st.CurrentDrawdownPct).Msg("drawdown back within limit; trading resumed")
		m.publish(AlertDrawdownRecovered, st)
	case st.Halted:
		m.log.Debug().Float64("drawdown_pct", st.CurrentDrawdownPct).Msg("drawdown still above limit")
	}
	return !st.Halted
}

// Approve rejects every signal while the breaker is active.
func (m *Manager) Approve(sig strategy.Signal) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Halted {
		m.rejections++
		m.log.Warn().
			Str("strategy", sig.Strategy).
			Str("symbol", sig.Symbol).
			Str("action", string(sig.Action)).
			Float64("drawdown_pct", m.state.CurrentDrawdownPct).
			Msg("signal rejected by drawdown breaker")
		return false
	}
	return true
}

// PositionSize converts a volatility estimate into a quantity at price:
// factor = min(1, target/max(vol, floor)); notional = max_position_usd*factor.
func (m *Manager) PositionSize(price, volatility float64) float64 {
	if price <= 0 || math.IsNaN(price) {
		return 0
	}
	m.mu.RLock()
	cfg := m.cfg
	m.mu.RUnlock()

	if math.IsNaN(volatility) {
		volatility = cfg.FloorVolatility
	}
	factor := math.Min(1, cfg.TargetRisk/math.Max(volatility, cfg.FloorVolatility))
	return cfg.MaxPositionUSD * factor / price
}

// Halted reports whether the breaker is active.
func (m *Manager) Halted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Halted
}

// State returns a snapshot for display.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := m.state
	st.Rejections = m.rejections
	return st
}

func (m *Manager) publish(kind AlertKind, st State) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.EventRiskAlert, Alert{
		Kind:           kind,
		DrawdownPct:    st.CurrentDrawdownPct,
		MaxDrawdownPct: st.MaxDrawdownPct,
		Equity:         st.CurrentEquity,
		PeakEquity:     st.PeakEquity,
		Time:           st.UpdatedAt,
	})
}
