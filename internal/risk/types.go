package risk

import (
	"time"
)

// Config defines the drawdown breaker and sizing parameters.
type Config struct {
	MaxDrawdownPct  float64 `json:"max_drawdown_pct"`  // 0.05 = 5% from peak
	MaxPositionUSD  float64 `json:"max_position_usd"`  // notional at full risk factor
	StartingEquity  float64 `json:"starting_equity"`   // initial peak and current equity
	TargetRisk      float64 `json:"target_risk"`       // volatility budget per position
	FloorVolatility float64 `json:"floor_volatility"`  // lower bound applied to vol before scaling
}

// DefaultConfig returns conservative defaults.
func DefaultConfig() Config {
	return Config{
		MaxDrawdownPct:  0.05,
		MaxPositionUSD:  1000,
		StartingEquity:  10000,
		TargetRisk:      0.02,
		FloorVolatility: 0.01,
	}
}

// State is a point-in-time view of the breaker.
type State struct {
	PeakEquity         float64   `json:"peak_equity"`
	CurrentEquity      float64   `json:"current_equity"`
	CurrentDrawdownPct float64   `json:"current_drawdown_pct"`
	MaxDrawdownPct     float64   `json:"max_drawdown_pct"`
	MaxPositionUSD     float64   `json:"max_position_usd"`
	Halted             bool      `json:"halted"`
	Rejections         uint64    `json:"rejections"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// AlertKind classifies breaker transitions.
type AlertKind string

const (
	AlertDrawdownBreach    AlertKind = "drawdown_breach"
	AlertDrawdownRecovered AlertKind = "drawdown_recovered"
)

// Alert is published on the bus whenever the breaker trips or clears.
type Alert struct {
	Kind           AlertKind `json:"kind"`
	DrawdownPct    float64   `json:"drawdown_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	Equity         float64   `json:"equity"`
	PeakEquity     float64   `json:"peak_equity"`
	Time           time.Time `json:"time"`
}
