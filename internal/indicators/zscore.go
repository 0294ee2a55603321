package indicators

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

var (
	// ErrInsufficientData means the window is shorter than the lookback.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerate means the lookback has zero dispersion.
	ErrDegenerate = errors.New("zero variance")
)

// DefaultZLookback is the trailing sample count for ZScore.
const DefaultZLookback = 20

// ZScore measures how far the latest value sits from the mean of the
// trailing lookback values, in sample standard deviations.
func ZScore(window []float64, lookback int) (float64, error) {
	if lookback < 2 || len(window) < lookback {
		return 0, ErrInsufficientData
	}
	recent := tail(window, lookback)
	m, sd := stat.MeanStdDev(recent, nil)
	if negligible(sd, meanAbs(recent)) {
		return 0, ErrDegenerate
	}
	return (recent[len(recent)-1] - m) / sd, nil
}
