package persistence

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"signal-core/internal/events"
	"signal-core/internal/order"
	"signal-core/internal/risk"
	"signal-core/pkg/db"
)

// Journal records order outcomes and breaker transitions in SQLite.
type Journal struct {
	db  *db.Database
	bw  *BatchWriter
	log zerolog.Logger
}

func NewJournal(database *db.Database, log zerolog.Logger) *Journal {
	return &Journal{
		db:  database,
		bw:  NewBatchWriter(database.DB, 50, 500*time.Millisecond, log),
		log: log.With().Str("component", "journal").Logger(),
	}
}

// RecordFromExecution maps an execution onto its journal row.
func RecordFromExecution(e order.Execution) db.OrderRecord {
	rec := db.OrderRecord{
		ID:         e.Order.ID,
		Strategy:   e.Order.Strategy,
		Symbol:     e.Order.Symbol,
		Side:       string(e.Order.Side),
		Qty:        e.Order.Quantity,
		Price:      e.Order.Price,
		Mode:       string(e.Order.Mode),
		Status:     string(e.Result.Status),
		ExchangeID: e.Result.ID,
		Reason:     e.Result.Reason,
		LatencyMs:  float64(e.Result.Latency.Microseconds()) / 1000,
		CreatedAt:  e.Order.CreatedAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = e.Timestamp
	}
	return rec
}

// RecordExecution queues an order and its result for writing.
func (j *Journal) RecordExecution(e order.Execution) {
	j.bw.WriteQuery(db.InsertOrderSQL, RecordFromExecution(e).Args()...)
}

// RecordAlert queues a risk alert for writing.
func (j *Journal) RecordAlert(a risk.Alert) {
	ev := db.RiskEvent{
		Kind:           string(a.Kind),
		DrawdownPct:    a.DrawdownPct,
		MaxDrawdownPct: a.MaxDrawdownPct,
		PeakEquity:     a.PeakEquity,
		CurrentEquity:  a.Equity,
		CreatedAt:      a.Time,
	}
	j.bw.WriteQuery(db.InsertRiskEventSQL, ev.Args()...)
}

// Run journals risk alerts from bus until ctx is done.
func (j *Journal) Run(ctx context.Context, bus *events.Bus) {
	ch, unsub := bus.Subscribe(events.EventRiskAlert, 64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if a, ok := msg.(risk.Alert); ok {
				j.RecordAlert(a)
			}
		}
	}
}

// RecentOrders flushes pending writes and returns the newest orders.
func (j *Journal) RecentOrders(ctx context.Context, limit int) ([]db.OrderRecord, error) {
	if err := j.bw.Flush(); err != nil {
		j.log.Warn().Err(err).Msg("flush before read failed")
	}
	return j.db.ListRecentOrders(ctx, limit)
}

// RiskEvents flushes pending writes and returns the newest risk events.
func (j *Journal) RiskEvents(ctx context.Context, limit int) ([]db.RiskEvent, error) {
	if err := j.bw.Flush(); err != nil {
		j.log.Warn().Err(err).Msg("flush before read failed")
	}
	return j.db.ListRiskEvents(ctx, limit)
}

func (j *Journal) Metrics() BatchWriterMetrics { return j.bw.Metrics() }

// Close flushes remaining writes. The database is closed by its owner.
func (j *Journal) Close() error {
	return j.bw.Close()
}
