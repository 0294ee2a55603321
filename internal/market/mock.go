package market

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"signal-core/internal/events"
)

// MockFeed generates synthetic ticks for local development.
type MockFeed struct {
	Bus        *events.Bus
	Symbols    []string
	StartPrice float64
	Step       float64 // max relative move per tick
	Interval   time.Duration
	Seed       int64
	Logger     zerolog.Logger

	once     sync.Once
	out      chan Tick
	stop     chan struct{}
	stopOnce sync.Once
}

func (m *MockFeed) init() {
	m.once.Do(func() {
		m.out = make(chan Tick, defaultBuffer)
		m.stop = make(chan struct{})
	})
}

// Ticks returns the synthetic tick channel.
func (m *MockFeed) Ticks() <-chan Tick {
	m.init()
	return m.out
}

// Stop ends Run. Idempotent.
func (m *MockFeed) Stop() {
	m.init()
	m.stopOnce.Do(func() { close(m.stop) })
}

// Run emits one random-walk tick per symbol every Interval.
func (m *MockFeed) Run(ctx context.Context) error {
	m.init()
	defer close(m.out)

	if len(m.Symbols) == 0 {
		m.Symbols = []string{"BTCUSDT"}
	}
	if m.StartPrice == 0 {
		m.StartPrice = 100.0
	}
	if m.Step == 0 {
		m.Step = 0.002
	}
	if m.Interval == 0 {
		m.Interval = time.Second
	}
	seed := m.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	prices := make(map[string]float64, len(m.Symbols))
	for _, s := range m.Symbols {
		prices[s] = m.StartPrice
	}

	if m.Bus != nil {
		m.Bus.Publish(events.EventFeedStatus, events.FeedStatus{Source: "mock", Connected: true, Time: time.Now()})
	}
	m.Logger.Info().Strs("symbols", m.Symbols).Dur("interval", m.Interval).Msg("mock feed started")

	t := time.NewTicker(m.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-m.stop:
			return nil
		case now := <-t.C:
			for _, sym := range m.Symbols {
				p := prices[sym] * (1 + (rng.Float64()*2-1)*m.Step)
				prices[sym] = p
				select {
				case m.out <- Tick{Symbol: sym, Price: p, Time: now}:
				case <-ctx.Done():
					return nil
				case <-m.stop:
					return nil
				}
			}
		}
	}
}
