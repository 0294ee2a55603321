package market

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"signal-core/internal/events"
	"signal-core/pkg/market/binance"
)

const (
	defaultLiveness = 20 * time.Second
	defaultBuffer   = 1024
)

// Conn is the subset of *websocket.Conn the ingestor reads from.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Dialer opens stream connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// Decoder turns a raw frame into a trade.
type Decoder interface {
	Decode(raw []byte) (binance.Trade, error)
}

// WebsocketDialer adapts a gorilla dialer.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
}

func (w WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d := w.Dialer
	if d == nil {
		d = websocket.DefaultDialer
	}
	conn, _, err := d.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// IngestorConfig wires an Ingestor. Zero values fall back to defaults.
type IngestorConfig struct {
	URL      string
	Liveness time.Duration
	Backoff  Backoff
	Buffer   int
	Dialer   Dialer
	Decoder  Decoder
	Bus      *events.Bus
	Logger   zerolog.Logger
}

// Ingestor keeps one multiplexed trade stream open and pushes decoded ticks
// onto a bounded channel in arrival order.
type Ingestor struct {
	url      string
	liveness time.Duration
	backoff  Backoff
	dialer   Dialer
	decoder  Decoder
	bus      *events.Bus
	log      zerolog.Logger

	out      chan Tick
	stop     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool
	// wait pauses between sessions; false means ctx ended first.
	wait func(ctx context.Context, d time.Duration) bool

	connected    atomic.Bool
	reconnects   atomic.Uint64
	decodeErrors atomic.Uint64
}

func NewIngestor(cfg IngestorConfig) *Ingestor {
	if cfg.Liveness <= 0 {
		cfg.Liveness = defaultLiveness
	}
	if cfg.Backoff.Initial <= 0 {
		cfg.Backoff.Initial = 5 * time.Second
	}
	if cfg.Backoff.Max < cfg.Backoff.Initial {
		cfg.Backoff.Max = max(60*time.Second, cfg.Backoff.Initial)
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = defaultBuffer
	}
	if cfg.Dialer == nil {
		cfg.Dialer = WebsocketDialer{}
	}
	if cfg.Decoder == nil {
		cfg.Decoder = binance.NewTradeDecoder()
	}
	return &Ingestor{
		url:      cfg.URL,
		liveness: cfg.Liveness,
		backoff:  Backoff{Initial: cfg.Backoff.Initial, Max: cfg.Backoff.Max},
		dialer:   cfg.Dialer,
		decoder:  cfg.Decoder,
		bus:      cfg.Bus,
		log:      cfg.Logger.With().Str("component", "ingestor").Logger(),
		out:      make(chan Tick, cfg.Buffer),
		stop:     make(chan struct{}),
		wait:     sleepCtx,
	}
}

// Ticks returns the channel consumed by the pipeline.
func (i *Ingestor) Ticks() <-chan Tick { return i.out }

// Connected reports whether a stream session is currently open.
func (i *Ingestor) Connected() bool { return i.connected.Load() }

// Reconnects counts sessions that ended and were retried.
func (i *Ingestor) Reconnects() uint64 { return i.reconnects.Load() }

// DecodeErrors counts dropped frames.
func (i *Ingestor) DecodeErrors() uint64 { return i.decodeErrors.Load() }

// Stop ends Run. Safe to call more than once and before Run.
func (i *Ingestor) Stop() {
	i.stopOnce.Do(func() { close(i.stop) })
}

// Run connects and reconnects until Stop is called or ctx is done. Retries
// are unlimited.
func (i *Ingestor) Run(ctx context.Context) error {
	if !i.running.CompareAndSwap(false, true) {
		return errors.New("ingestor already running")
	}
	defer close(i.out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-i.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		err := i.session(ctx)
		if ctx.Err() != nil {
			i.log.Info().Msg("ingestor stopped")
			return nil
		}

		n := i.reconnects.Add(1)
		delay := i.backoff.Next()
		i.log.Warn().Err(err).Dur("retry_in", delay).Uint64("attempt", n).Msg("stream disconnected; reconnecting")
		i.publish(false, int(n), err)

		if !i.wait(ctx, delay) {
			i.log.Info().Msg("ingestor stopped")
			return nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (i *Ingestor) session(ctx context.Context) error {
	conn, err := i.dialer.Dial(ctx, i.url)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	i.backoff.Reset()
	i.connected.Store(true)
	defer i.connected.Store(false)

	// Closing the conn unblocks ReadMessage immediately on Stop.
	release := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		release()
		_ = conn.Close()
	}()

	i.log.Info().Str("url", i.url).Msg("stream connected")
	i.publish(true, 0, nil)

	for {
		if err := conn.SetReadDeadline(time.Now().Add(i.liveness)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}

		trade, err := i.decoder.Decode(msg)
		if err != nil {
			i.decodeErrors.Add(1)
			i.log.Warn().Err(err).Msg("dropping undecodable message")
			continue
		}

		select {
		case i.out <- toTick(trade):
		case <-ctx.Done():
			return nil
		}
	}
}

func (i *Ingestor) publish(connected bool, attempt int, err error) {
	if i.bus == nil {
		return
	}
	st := events.FeedStatus{Source: "binance", Connected: connected, Reconnect: attempt, Time: time.Now()}
	if err != nil {
		st.Err = err.Error()
	}
	i.bus.Publish(events.EventFeedStatus, st)
}

func toTick(t binance.Trade) Tick {
	ts := time.Now()
	if t.Time > 0 {
		ts = time.UnixMilli(t.Time)
	}
	return Tick{Symbol: t.Symbol, Price: t.Price, Time: ts}
}
