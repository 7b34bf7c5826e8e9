package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/insightloom/internal/table"
)

// numbers returns the numeric cells of column col, skipping everything else.
func numbers(t *table.Table, col int) []float64 {
	if col < 0 || col >= t.Width() {
		return nil
	}
	var out []float64
	for _, v := range t.Columns[col].Values {
		if f, ok := v.Float(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Mean returns the arithmetic mean and false for an empty input.
func Mean(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}

// Quantile interpolates linearly between closest ranks. vals need not be sorted.
func Quantile(vals []float64, q float64) float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return quantile(cp, q)
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// TrendDelta is the damped relative change between two periods in percent.
// The +1 keeps a zero previous value from dividing by zero.
func TrendDelta(prev, cur float64) float64 {
	return (cur - prev) / (prev + 1) * 100
}

// RelativeDiff returns (a-b)/b in percent and false when b is zero.
func RelativeDiff(a, b float64) (float64, bool) {
	if b == 0 {
		return 0, false
	}
	return (a - b) / b * 100, true
}

// CompareLabel buckets a relative difference with a symmetric tolerance.
func CompareLabel(diff, tolerance float64) string {
	switch {
	case diff > tolerance:
		return "higher"
	case diff < -tolerance:
		return "lower"
	default:
		return "similar"
	}
}

// Band names returned by PriceBand.
const (
	BandBudget  = "budget"
	BandMid     = "mid-range"
	BandPremium = "premium"
)

// PriceBand places p in exactly one band: p < low, low <= p <= high, p > high.
func PriceBand(p, low, high float64) string {
	switch {
	case p < low:
		return BandBudget
	case p <= high:
		return BandMid
	default:
		return BandPremium
	}
}
