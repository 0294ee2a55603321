// Package engine wires statistics, strategies, the risk gate and execution
// into the per-tick pipeline, and exposes a read-only view for the API.
package engine

import (
	"context"

	"signal-core/internal/indicators"
	"signal-core/internal/monitor"
	"signal-core/internal/order"
	"signal-core/internal/risk"
	"signal-core/pkg/db"
)

// Service defines what the API layer may read from the engine. It never
// mutates trading state.
type Service interface {
	Status(ctx context.Context) SystemStatus
	Snapshots() []DashboardUpdate
	History(symbol string, limit int) ([]float64, bool)
	Correlations() indicators.CorrelationMatrix
	Beta(target, benchmark string) float64
	Risk() risk.State
	RecentOrders(ctx context.Context, limit int) ([]db.OrderRecord, error)
	Positions() []order.Position
	Metrics() monitor.MetricsSnapshot
}

var _ Service = (*Pipeline)(nil)
