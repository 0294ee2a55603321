package indicators

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// relTol treats a dispersion as zero when it is negligible relative to the
// magnitude of the data. Float sums of identical values do not cancel exactly.
const relTol = 1e-12

// SMA calculates the simple moving average for the last period values.
func SMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return 0
	}
	return stat.Mean(values[len(values)-period:], nil)
}

// RSI computes a basic Relative Strength Index without smoothing.
func RSI(values []float64, period int) float64 {
	if period <= 0 || len(values) < period+1 {
		return 0
	}

	gain := 0.0
	loss := 0.0
	for i := len(values) - period; i < len(values); i++ {
		change := values[i] - values[i-1]
		if change > 0 {
			gain += change
		} else {
			loss -= change
		}
	}

	if loss == 0 {
		if gain == 0 {
			return 50
		}
		return 100
	}
	rs := gain / loss
	return 100 - (100 / (1 + rs))
}

// sampleStdDev is NaN below two observations.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

func meanAbs(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += math.Abs(x)
	}
	if len(xs) == 0 {
		return 0
	}
	return s / float64(len(xs))
}

// negligible reports whether sd is zero for practical purposes given the
// scale of the data it was computed from.
func negligible(sd, scale float64) bool {
	return !(sd > relTol*math.Max(scale, 1e-300))
}

// pctReturns computes p[i]/p[i-1]-1.
func pctReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out[i-1] = prices[i]/prices[i-1] - 1
	}
	return out
}

// covariance is the sample covariance of equal-length series.
func covariance(a, b []float64) float64 {
	if len(a) < 2 || len(a) != len(b) {
		return math.NaN()
	}
	return stat.Covariance(a, b, nil)
}

func tail(xs []float64, n int) []float64 {
	if len(xs) <= n {
		return xs
	}
	return xs[len(xs)-n:]
}

// Volatility is the sample standard deviation of the trailing lookback
// percentage returns. ok is false when fewer than lookback+1 prices exist.
func Volatility(window []float64, lookback int) (float64, bool) {
	if lookback < 2 || len(window) < lookback+1 {
		return 0, false
	}
	r := pctReturns(tail(window, lookback+1))
	v := sampleStdDev(r)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
