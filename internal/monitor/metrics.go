package monitor

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// SystemMetrics tracks pipeline throughput and latency. Counters are kept
// both in-process for the JSON status endpoint and in a private prometheus
// registry for /metrics.
type SystemMetrics struct {
	TickLatency  *LatencyHistogram
	OrderLatency *LatencyHistogram

	ticksProcessed   atomic.Uint64
	signalsGenerated atomic.Uint64
	ordersProcessed  atomic.Uint64
	ordersFailed     atomic.Uint64
	errorsCount      atomic.Uint64

	registry   *prometheus.Registry
	ticks      *prometheus.CounterVec
	signals    *prometheus.CounterVec
	orders     *prometheus.CounterVec
	tickDur    prometheus.Histogram
	orderDur   prometheus.Histogram
	equity     prometheus.Gauge
	drawdown   prometheus.Gauge
	halted     prometheus.Gauge
	feedUp     prometheus.Gauge
	reconnects prometheus.Counter

	started time.Time
}

// NewSystemMetrics creates a new metrics instance with its own registry.
func NewSystemMetrics() *SystemMetrics {
	m := &SystemMetrics{
		TickLatency:  NewLatencyHistogram(1000),
		OrderLatency: NewLatencyHistogram(1000),
		registry:     prometheus.NewRegistry(),
		ticks: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "signal_ticks_total", Help: "Count of market ticks processed"},
			[]string{"symbol"},
		),
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "signal_signals_total", Help: "Actionable strategy signals"},
			[]string{"strategy", "action"},
		),
		orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "signal_orders_total", Help: "Orders routed by outcome"},
			[]string{"symbol", "side", "status"},
		),
		tickDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signal_tick_duration_seconds",
			Help:    "Time to process one tick",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		orderDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signal_order_duration_seconds",
			Help:    "Broker round trip per order",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		equity:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "signal_equity", Help: "Current equity seen by the risk gate"}),
		drawdown:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "signal_drawdown_ratio", Help: "Drawdown from peak equity"}),
		halted:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "signal_trading_halted", Help: "1 while the drawdown breaker is tripped"}),
		feedUp:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "signal_feed_connected", Help: "1 while the market feed is connected"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{Name: "signal_feed_reconnects_total", Help: "Market feed reconnect attempts"}),
		started:    time.Now(),
	}
	m.registry.MustRegister(
		m.ticks, m.signals, m.orders, m.tickDur, m.orderDur,
		m.equity, m.drawdown, m.halted, m.feedUp, m.reconnects,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the prometheus registry for the HTTP handler.
func (m *SystemMetrics) Registry() *prometheus.Registry { return m.registry }

// ObserveTick records one processed tick.
func (m *SystemMetrics) ObserveTick(symbol string, d time.Duration) {
	m.ticksProcessed.Add(1)
	m.ticks.WithLabelValues(symbol).Inc()
	m.tickDur.Observe(d.Seconds())
	m.TickLatency.RecordDuration(d)
}

// ObserveSignal records an actionable signal.
func (m *SystemMetrics) ObserveSignal(strategy, action string) {
	m.signalsGenerated.Add(1)
	m.signals.WithLabelValues(strategy, action).Inc()
}

// ObserveOrder records a routed order and its latency.
func (m *SystemMetrics) ObserveOrder(symbol, side, status string, d time.Duration) {
	m.ordersProcessed.Add(1)
	if status != "filled" {
		m.ordersFailed.Add(1)
	}
	m.orders.WithLabelValues(symbol, side, status).Inc()
	m.orderDur.Observe(d.Seconds())
	m.OrderLatency.RecordDuration(d)
}

// SetRisk mirrors the risk gate state.
func (m *SystemMetrics) SetRisk(equity, drawdown float64, halted bool) {
	m.equity.Set(equity)
	m.drawdown.Set(drawdown)
	m.halted.Set(boolGauge(halted))
}

// SetFeedConnected mirrors feed connectivity.
func (m *SystemMetrics) SetFeedConnected(up bool) {
	m.feedUp.Set(boolGauge(up))
	if !up {
		m.reconnects.Inc()
	}
}

// IncrementErrors increments error counter.
func (m *SystemMetrics) IncrementErrors() {
	m.errorsCount.Add(1)
}

// MetricsSnapshot is the JSON view served by /api/metrics.
type MetricsSnapshot struct {
	TickLatency      LatencyStats `json:"tick_latency"`
	OrderLatency     LatencyStats `json:"order_latency"`
	TicksProcessed   uint64       `json:"ticks_processed"`
	SignalsGenerated uint64       `json:"signals_generated"`
	OrdersProcessed  uint64       `json:"orders_processed"`
	OrdersFailed     uint64       `json:"orders_failed"`
	ErrorsCount      uint64       `json:"errors_count"`
	GoroutineCount   int          `json:"goroutine_count"`
	HeapAlloc        uint64       `json:"heap_alloc_bytes"`
	HeapSys          uint64       `json:"heap_sys_bytes"`
	Uptime           string       `json:"uptime"`
	Timestamp        time.Time    `json:"timestamp"`
}

// Snapshot returns a point-in-time metrics snapshot.
func (m *SystemMetrics) Snapshot() MetricsSnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return MetricsSnapshot{
		TickLatency:      m.TickLatency.Stats(),
		OrderLatency:     m.OrderLatency.Stats(),
		TicksProcessed:   m.ticksProcessed.Load(),
		SignalsGenerated: m.signalsGenerated.Load(),
		OrdersProcessed:  m.ordersProcessed.Load(),
		OrdersFailed:     m.ordersFailed.Load(),
		ErrorsCount:      m.errorsCount.Load(),
		GoroutineCount:   runtime.NumGoroutine(),
		HeapAlloc:        memStats.HeapAlloc,
		HeapSys:          memStats.HeapSys,
		Uptime:           time.Since(m.started).Truncate(time.Second).String(),
		Timestamp:        time.Now(),
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// LatencyHistogram tracks latency samples over a sliding window.
type LatencyHistogram struct {
	mu          sync.Mutex
	samples     []float64
	maxSize     int
	dirty       bool
	cachedStats LatencyStats
}

// NewLatencyHistogram creates a sliding window histogram.
func NewLatencyHistogram(size int) *LatencyHistogram {
	if size <= 0 {
		size = 1000
	}
	return &LatencyHistogram{
		samples: make([]float64, 0, size),
		maxSize: size,
		dirty:   true,
	}
}

// Record adds a latency sample in milliseconds.
func (h *LatencyHistogram) Record(latencyMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) >= h.maxSize {
		h.samples = h.samples[1:]
	}
	h.samples = append(h.samples, latencyMs)
	h.dirty = true
}

// RecordDuration converts duration to ms and records.
func (h *LatencyHistogram) RecordDuration(d time.Duration) {
	h.Record(float64(d.Nanoseconds()) / 1e6)
}

// Stats returns min, max, avg, p50, p95, p99. Recomputed only when samples
// changed since the last call.
func (h *LatencyHistogram) Stats() LatencyStats {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.dirty && h.cachedStats.Count > 0 {
		return h.cachedStats
	}

	n := len(h.samples)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, h.samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	h.cachedStats = LatencyStats{
		Min:   sorted[0],
		Max:   sorted[n-1],
		Avg:   sum / float64(n),
		P50:   sorted[n/2],
		P95:   sorted[int(float64(n)*0.95)],
		P99:   sorted[int(float64(n)*0.99)],
		Count: n,
	}
	h.dirty = false

	return h.cachedStats
}

// LatencyStats holds computed latency statistics.
type LatencyStats struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Count int     `json:"count"`
}

// Timer helps measure operation duration.
type Timer struct {
	start     time.Time
	histogram *LatencyHistogram
}

// NewTimer creates a timer that records to the given histogram.
func NewTimer(h *LatencyHistogram) *Timer {
	return &Timer{start: time.Now(), histogram: h}
}

// Stop records elapsed time to histogram.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	if t.histogram != nil {
		t.histogram.RecordDuration(elapsed)
	}
	return elapsed
}
