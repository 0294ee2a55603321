package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"signal-core/pkg/exchanges/common"
)

// Broker places orders on an exchange.
type Broker interface {
	SubmitOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error)
}

// Router sends approved orders to the paper ledger or a broker.
type Router struct {
	broker Broker
	ledger *PaperLedger
	log    zerolog.Logger
}

// NewRouter builds a router. broker may be nil in paper mode; ledger may be
// nil when paper fills need no accounting.
func NewRouter(broker Broker, ledger *PaperLedger, log zerolog.Logger) *Router {
	return &Router{broker: broker, ledger: ledger, log: log.With().Str("component", "router").Logger()}
}

// Submit executes o and never returns an error: every failure, including a
// broker panic, becomes a failed Result.
func (r *Router) Submit(ctx context.Context, o Order) (res Result) {
	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			res = failed(fmt.Sprintf("broker panic: %v", p))
		}
		res.Latency = time.Since(start)
		r.logResult(o, res)
	}()

	switch o.Mode {
	case ModePaper:
		if r.ledger != nil {
			r.ledger.Apply(o)
		}
		return Result{Status: StatusFilled, ID: "paper_" + uuid.NewString()}

	case ModeTestnet, ModeLive:
		if r.broker == nil {
			return failed("no broker configured")
		}
		if o.Quantity <= 0 {
			return failed("non-positive quantity")
		}
		ack, err := r.broker.SubmitOrder(ctx, common.OrderRequest{
			Symbol:   o.Symbol,
			Side:     o.Side,
			Type:     o.Type,
			Qty:      o.Quantity,
			ClientID: o.ID,
			Market:   common.MarketSpot,
		})
		if err != nil {
			return failed(err.Error())
		}
		switch ack.Status {
		case common.StatusRejected, common.StatusExpired, common.StatusCanceled:
			return Result{Status: StatusFailed, ID: ack.ExchangeOrderID, Reason: "order " + string(ack.Status)}
		}
		return Result{Status: StatusFilled, ID: ack.ExchangeOrderID}

	default:
		return failed(fmt.Sprintf("unknown mode %q", o.Mode))
	}
}

func (r *Router) logResult(o Order, res Result) {
	ev := r.log.Info()
	if !res.Filled() {
		ev = r.log.Warn().Str("reason", res.Reason)
	}
	ev.Str("order_id", o.ID).
		Str("exchange_id", res.ID).
		Str("mode", string(o.Mode)).
		Str("symbol", o.Symbol).
		Str("side", string(o.Side)).
		Float64("qty", o.Quantity).
		Float64("price", o.Price).
		Dur("latency", res.Latency).
		Msg("order " + string(res.Status))
}
