package strategy

import (
	"errors"
	"fmt"

	"signal-core/internal/indicators"
)

// Estimator supplies the statistics MeanReversion decides on.
type Estimator interface {
	ZScore(window []float64, lookback int) (float64, error)
	Trend(window []float64) float64
}

type indicatorEstimator struct{}

func (indicatorEstimator) ZScore(w []float64, lookback int) (float64, error) {
	return indicators.ZScore(w, lookback)
}

func (indicatorEstimator) Trend(w []float64) float64 { return indicators.TrendOver(w, len(w)) }

// MeanReversionParams are the tunables of MeanReversion.
type MeanReversionParams struct {
	Lookback     int     `yaml:"lookback"`
	EntryZ       float64 `yaml:"entry_z"`
	TrendCeiling float64 `yaml:"trend_ceiling"`
	// TrendWindow is the trailing sample count fed to the trend estimate.
	TrendWindow int `yaml:"trend_window"`
}

func DefaultMeanReversionParams() MeanReversionParams {
	return MeanReversionParams{
		Lookback:     indicators.DefaultZLookback,
		EntryZ:       2.0,
		TrendCeiling: 0.6,
		TrendWindow:  indicators.DefaultTrendWindow,
	}
}

// MeanReversion buys statistically oversold prints and sells overbought ones,
// but stays flat while the trend indicator says the market is trending.
type MeanReversion struct {
	id  string
	p   MeanReversionParams
	est Estimator
}

func NewMeanReversion(id string, p MeanReversionParams) *MeanReversion {
	d := DefaultMeanReversionParams()
	if p.Lookback < 2 {
		p.Lookback = d.Lookback
	}
	if p.EntryZ <= 0 {
		p.EntryZ = d.EntryZ
	}
	if p.TrendCeiling <= 0 {
		p.TrendCeiling = d.TrendCeiling
	}
	if p.TrendWindow <= 0 {
		p.TrendWindow = d.TrendWindow
	}
	p.TrendWindow = max(p.TrendWindow, indicators.MinTrendSamples)
	if id == "" {
		id = "mean_reversion"
	}
	return &MeanReversion{id: id, p: p, est: indicatorEstimator{}}
}

// WithEstimator swaps the statistics source.
func (m *MeanReversion) WithEstimator(e Estimator) *MeanReversion {
	m.est = e
	return m
}

func (m *MeanReversion) ID() string { return m.id }

func (m *MeanReversion) Name() string {
	return fmt.Sprintf("MeanReversion_%d_%.1f", m.p.Lookback, m.p.EntryZ)
}

func (m *MeanReversion) Params() MeanReversionParams { return m.p }

func (m *MeanReversion) Evaluate(symbol string, window []float64) Signal {
	if len(window) < m.p.Lookback {
		return hold(m.id, symbol, window, "not enough data", Metrics{Trend: indicators.NeutralTrend})
	}

	z, zerr := m.est.ZScore(window, m.p.Lookback)
	trend := m.est.Trend(trailing(window, m.p.TrendWindow))
	metrics := Metrics{ZScore: z, Trend: trend}

	if trend > m.p.TrendCeiling {
		return hold(m.id, symbol, window, "trending regime", metrics)
	}
	if zerr != nil {
		reason := "insufficient signal"
		if errors.Is(zerr, indicators.ErrInsufficientData) {
			reason = "not enough data"
		}
		return hold(m.id, symbol, window, reason, Metrics{Trend: trend})
	}

	sig := hold(m.id, symbol, window, "within bounds", metrics)
	switch {
	case z < -m.p.EntryZ:
		sig.Action, sig.Side, sig.Reason = ActionBuy, SideLong, "oversold"
	case z > m.p.EntryZ:
		sig.Action, sig.Side, sig.Reason = ActionSell, SideShort, "overbought"
	}
	return sig
}

func trailing(w []float64, n int) []float64 {
	if len(w) <= n {
		return w
	}
	return w[len(w)-n:]
}
