package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const (
	// NeutralTrend is returned whenever the trend estimate is undefined.
	NeutralTrend = 0.5

	// DefaultTrendWindow is how many trailing samples TrendIndicator uses.
	DefaultTrendWindow = 100
	// MinTrendSamples is the shortest series with a defined trend; the
	// largest lag needs at least two differences.
	MinTrendSamples = trendMaxLag + 1

	trendMinLag = 2
	trendMaxLag = 20 // exclusive
)

// TrendIndicator estimates a Hurst-like exponent over the trailing 100
// samples: for lags 2..19, tau = sqrt(std(x[k:]-x[:-k])), and the result is
// twice the least-squares slope of log(tau) against log(lag). Values above
// 0.5 suggest trending, below 0.5 mean reversion. It returns NeutralTrend
// when there are too few samples or any lag has zero variance.
func TrendIndicator(series []float64) float64 {
	return TrendOver(series, DefaultTrendWindow)
}

// TrendOver is TrendIndicator over the trailing samples values instead of 100.
func TrendOver(series []float64, samples int) float64 {
	x := tail(series, samples)
	if len(x) < MinTrendSamples {
		return NeutralTrend
	}
	scale := meanAbs(x)

	logLag := make([]float64, 0, trendMaxLag-trendMinLag)
	logTau := make([]float64, 0, trendMaxLag-trendMinLag)
	diffs := make([]float64, len(x))
	for lag := trendMinLag; lag < trendMaxLag; lag++ {
		d := diffs[:len(x)-lag]
		for i := range d {
			d[i] = x[i+lag] - x[i]
		}
		sd := stat.PopStdDev(d, nil)
		if math.IsNaN(sd) || negligible(sd, scale) {
			return NeutralTrend
		}
		logLag = append(logLag, math.Log(float64(lag)))
		logTau = append(logTau, math.Log(math.Sqrt(sd)))
	}

	_, slope := stat.LinearRegression(logLag, logTau, nil, false)
	h := 2 * slope
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return NeutralTrend
	}
	return h
}
