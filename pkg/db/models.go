package db

import (
	"context"
	"fmt"
	"time"
)

// OrderRecord is one journaled order and its outcome.
type OrderRecord struct {
	ID         string    `json:"id"`
	Strategy   string    `json:"strategy"`
	Symbol     string    `json:"symbol"`
	Side       string    `json:"side"`
	Qty        float64   `json:"qty"`
	Price      float64   `json:"price"`
	Mode       string    `json:"mode"`
	Status     string    `json:"status"`
	ExchangeID string    `json:"exchange_id"`
	Reason     string    `json:"reason,omitempty"`
	LatencyMs  float64   `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// RiskEvent is a journaled drawdown breaker transition.
type RiskEvent struct {
	ID             int64     `json:"id"`
	Kind           string    `json:"kind"`
	DrawdownPct    float64   `json:"drawdown_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	PeakEquity     float64   `json:"peak_equity"`
	CurrentEquity  float64   `json:"current_equity"`
	CreatedAt      time.Time `json:"created_at"`
}

// Statements shared with the batch writer.
const (
	InsertOrderSQL = `INSERT OR REPLACE INTO orders
		(id, strategy, symbol, side, qty, price, mode, status, exchange_id, reason, latency_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	InsertRiskEventSQL = `INSERT INTO risk_events
		(kind, drawdown_pct, max_drawdown_pct, peak_equity, current_equity, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
)

// Args returns the bind arguments for InsertOrderSQL.
func (o OrderRecord) Args() []any {
	return []any{o.ID, o.Strategy, o.Symbol, o.Side, o.Qty, o.Price, o.Mode, o.Status, o.ExchangeID, o.Reason, o.LatencyMs, o.CreatedAt.UnixMilli()}
}

// Args returns the bind arguments for InsertRiskEventSQL.
func (e RiskEvent) Args() []any {
	return []any{e.Kind, e.DrawdownPct, e.MaxDrawdownPct, e.PeakEquity, e.CurrentEquity, e.CreatedAt.UnixMilli()}
}

// InsertOrder writes one order record.
func (d *Database) InsertOrder(ctx context.Context, o OrderRecord) error {
	if _, err := d.DB.ExecContext(ctx, InsertOrderSQL, o.Args()...); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// InsertRiskEvent writes one risk event.
func (d *Database) InsertRiskEvent(ctx context.Context, e RiskEvent) error {
	if _, err := d.DB.ExecContext(ctx, InsertRiskEventSQL, e.Args()...); err != nil {
		return fmt.Errorf("insert risk event: %w", err)
	}
	return nil
}

// ListRecentOrders returns the newest orders first.
func (d *Database) ListRecentOrders(ctx context.Context, limit int) ([]OrderRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, strategy, symbol, side, qty, price, mode, status,
		       COALESCE(exchange_id, ''), COALESCE(reason, ''), COALESCE(latency_ms, 0), created_at
		FROM orders
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	out := []OrderRecord{}
	for rows.Next() {
		var (
			o  OrderRecord
			ms int64
		)
		if err := rows.Scan(&o.ID, &o.Strategy, &o.Symbol, &o.Side, &o.Qty, &o.Price, &o.Mode, &o.Status, &o.ExchangeID, &o.Reason, &o.LatencyMs, &ms); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.CreatedAt = time.UnixMilli(ms)
		out = append(out, o)
	}
	return out, rows.Err()
}

// ListRiskEvents returns the newest risk events first.
func (d *Database) ListRiskEvents(ctx context.Context, limit int) ([]RiskEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, kind, drawdown_pct, max_drawdown_pct, peak_equity, current_equity, created_at
		FROM risk_events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query risk events: %w", err)
	}
	defer rows.Close()

	out := []RiskEvent{}
	for rows.Next() {
		var (
			e  RiskEvent
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.DrawdownPct, &e.MaxDrawdownPct, &e.PeakEquity, &e.CurrentEquity, &ms); err != nil {
			return nil, fmt.Errorf("scan risk event: %w", err)
		}
		e.CreatedAt = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountOrdersByStatus groups journaled orders by status.
func (d *Database) CountOrdersByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := d.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}
