package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"signal-core/internal/events"
	"signal-core/internal/order"
	"signal-core/internal/risk"
	"signal-core/internal/strategy"
	"signal-core/pkg/i18n"
)

// Notifier relays risk alerts, order outcomes, pair signals and feed drops
// to an AlertSink, and mirrors them into SystemMetrics.
type Notifier struct {
	Bus     *events.Bus
	Sink    AlertSink
	Metrics *SystemMetrics
	Log     zerolog.Logger
	// NotifyFills sends a message for every filled order, not only failures.
	NotifyFills bool
}

// Run blocks until ctx is done.
func (n *Notifier) Run(ctx context.Context) {
	log := n.Log.With().Str("component", "notifier").Logger()
	if n.Bus == nil || n.Sink == nil {
		log.Warn().Msg("notifier not fully configured; skipping")
		return
	}

	alerts, unsubA := n.Bus.Subscribe(events.EventRiskAlert, 50)
	defer unsubA()
	results, unsubR := n.Bus.Subscribe(events.EventOrderResult, 256)
	defer unsubR()
	pairs, unsubP := n.Bus.Subscribe(events.EventPairSignal, 64)
	defer unsubP()
	feed, unsubF := n.Bus.Subscribe(events.EventFeedStatus, 16)
	defer unsubF()

	for {
		var (
			msg string
			ok  bool
			v   any
		)
		select {
		case <-ctx.Done():
			return
		case v, ok = <-alerts:
		case v, ok = <-results:
		case v, ok = <-pairs:
		case v, ok = <-feed:
		}
		if !ok {
			return
		}
		if msg = n.format(v); msg == "" {
			continue
		}
		sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := n.Sink.Send(sendCtx, FormatNotification(msg)); err != nil {
			log.Warn().Err(err).Msg("alert delivery failed")
		}
		cancel()
	}
}

// format renders an event for humans; it also updates feed/risk gauges.
func (n *Notifier) format(v any) string {
	m := i18n.M()
	switch e := v.(type) {
	case risk.Alert:
		if e.Kind == risk.AlertDrawdownBreach {
			return fmt.Sprintf(m.DrawdownBreach, e.DrawdownPct*100, e.MaxDrawdownPct*100, e.Equity, e.PeakEquity)
		}
		return fmt.Sprintf(m.DrawdownRecovered, e.DrawdownPct*100, e.MaxDrawdownPct*100)

	case order.Execution:
		o := e.Order
		if e.Result.Filled() {
			if !n.NotifyFills {
				return ""
			}
			return fmt.Sprintf(m.OrderFilled, o.Side, o.Symbol, o.Quantity, o.Price, o.Strategy)
		}
		return fmt.Sprintf(m.OrderFailed, o.Side, o.Symbol, o.Quantity, e.Result.Reason)

	case strategy.PairSignal:
		if e.Action == strategy.PairHold {
			return ""
		}
		return fmt.Sprintf(m.PairSignal, e.SymbolA, e.SymbolB, e.Action, e.ZScore)

	case events.FeedStatus:
		if n.Metrics != nil {
			n.Metrics.SetFeedConnected(e.Connected)
		}
		if e.Connected {
			return ""
		}
		return fmt.Sprintf(m.FeedDisconnected, e.Err)
	}
	return ""
}

// FormatNotification adds the header used on every outbound alert.
func FormatNotification(text string) string {
	return "*" + i18n.M().NotificationTitle + "*\n\n" + text
}
