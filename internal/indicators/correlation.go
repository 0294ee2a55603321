package indicators

import (
	"math"
	"time"

	json "github.com/goccy/go-json"
	"gonum.org/v1/gonum/stat"
)

const (
	MinCorrelationSamples = 10
	MinBetaSamples        = 20
	// NeutralBeta is returned whenever beta is undefined.
	NeutralBeta = 1.0
)

// CorrelationMatrix holds pairwise Pearson correlations of percentage returns.
// Undefined cells (a series with no variance) are NaN and encode as null.
type CorrelationMatrix struct {
	Symbols     []string    `json:"symbols"`
	Values      [][]float64 `json:"values"`
	Samples     int         `json:"samples"`
	GeneratedAt time.Time   `json:"generated_at"`
}

// Empty reports the "no data" result.
func (m CorrelationMatrix) Empty() bool { return len(m.Symbols) == 0 }

// Get looks up the correlation between a and b.
func (m CorrelationMatrix) Get(a, b string) (float64, bool) {
	ia, ib := -1, -1
	for i, s := range m.Symbols {
		if s == a {
			ia = i
		}
		if s == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	v := m.Values[ia][ib]
	return v, !math.IsNaN(v)
}

func (m CorrelationMatrix) MarshalJSON() ([]byte, error) {
	values := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		values[i] = make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) {
				values[i][j] = &row[j]
			}
		}
	}
	return json.Marshal(struct {
		Symbols     []string     `json:"symbols"`
		Values      [][]*float64 `json:"values"`
		Samples     int          `json:"samples"`
		GeneratedAt time.Time    `json:"generated_at"`
	}{m.Symbols, values, m.Samples, m.GeneratedAt})
}

// Correlations computes the matrix over symbols. Every symbol needs at least
// MinCorrelationSamples prices, otherwise the empty matrix is returned. Series
// are right-aligned and truncated to the shortest length before returns are
// taken.
func Correlations(symbols []string, series map[string][]float64) CorrelationMatrix {
	if len(symbols) == 0 {
		return CorrelationMatrix{}
	}
	n := math.MaxInt
	for _, s := range symbols {
		l := len(series[s])
		if l < MinCorrelationSamples {
			return CorrelationMatrix{}
		}
		n = min(n, l)
	}

	returns := make([][]float64, len(symbols))
	sds := make([]float64, len(symbols))
	for i, s := range symbols {
		returns[i] = pctReturns(tail(series[s], n))
		sds[i] = sampleStdDev(returns[i])
	}

	k := len(symbols)
	values := make([][]float64, k)
	for i := range values {
		values[i] = make([]float64, k)
	}
	for i := range k {
		for j := i; j < k; j++ {
			v := math.NaN()
			if !negligible(sds[i], meanAbs(returns[i])) && !negligible(sds[j], meanAbs(returns[j])) {
				if i == j {
					v = 1.0
				} else {
					v = stat.Correlation(returns[i], returns[j], nil)
					v = math.Max(-1, math.Min(1, v))
				}
			}
			values[i][j] = v
			values[j][i] = v
		}
	}

	return CorrelationMatrix{
		Symbols:     append([]string(nil), symbols...),
		Values:      values,
		Samples:     n - 1,
		GeneratedAt: time.Now().UTC(),
	}
}

// Beta is cov(target, benchmark)/var(benchmark) over percentage returns of
// the common trailing window. It returns NeutralBeta when either series has
// fewer than MinBetaSamples prices or the benchmark has no variance.
func Beta(target, benchmark []float64) float64 {
	if len(target) < MinBetaSamples || len(benchmark) < MinBetaSamples {
		return NeutralBeta
	}
	n := min(len(target), len(benchmark))
	rt := pctReturns(tail(target, n))
	rb := pctReturns(tail(benchmark, n))

	v := stat.Variance(rb, nil)
	if negligible(math.Sqrt(v), meanAbs(rb)) {
		return NeutralBeta
	}
	b := covariance(rt, rb) / v
	if math.IsNaN(b) || math.IsInf(b, 0) {
		return NeutralBeta
	}
	return b
}
