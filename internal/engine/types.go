package engine

import (
	"time"

	"signal-core/internal/risk"
)

// DashboardUpdate is emitted on EventDashboard after every processed tick.
type DashboardUpdate struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Time      time.Time `json:"time"`
	ZScore    float64   `json:"zscore"`
	Trend     float64   `json:"trend"`
	ChangePct float64   `json:"change_pct"` // since the first price in the window
	Holding   float64   `json:"holding"`
	RSI       float64   `json:"rsi"`
	Samples   int       `json:"samples"`
	Halted    bool      `json:"halted"`
}

// StrategyInfo describes a registered strategy.
type StrategyInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SystemStatus represents the system runtime status.
type SystemStatus struct {
	Mode           string         `json:"mode"`
	DryRun         bool           `json:"dry_run"`
	Venue          string         `json:"venue"`
	Symbols        []string       `json:"symbols"`
	UseMockFeed    bool           `json:"use_mock_feed"`
	Version        string         `json:"version"`
	FeedConnected  bool           `json:"feed_connected"`
	StaleSymbols   []string       `json:"stale_symbols,omitempty"`
	TicksProcessed uint64         `json:"ticks_processed"`
	PendingOrders  int            `json:"pending_orders"`
	DroppedOrders  uint64         `json:"dropped_orders"`
	BusDropped     uint64         `json:"bus_dropped"`
	Strategies     []StrategyInfo `json:"strategies"`
	Risk           risk.State     `json:"risk"`
	ServerTime     time.Time      `json:"server_time"`
}
