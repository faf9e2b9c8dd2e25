package analytics

import "sort"

// Trend classifies the direction of a metric over a year window.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// trendBand is the percentage change beyond which a series is no longer
// considered stable.
const trendBand = 5.0

// Point is one year of a time series.
type Point struct {
	Year  int
	Value float64
}

// PercentChange returns the percentage change from first to last. A zero
// baseline has no defined change and reports 0.
func PercentChange(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}

// ClassifyChange maps a percentage change to a trend: above +5% improving,
// below -5% declining, otherwise stable.
func ClassifyChange(change float64) Trend {
	switch {
	case change > trendBand:
		return TrendImproving
	case change < -trendBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// TrendForSeries sorts points by year and classifies the change from the
// first to the last year. Fewer than two points is always stable.
func TrendForSeries(points []Point) (Trend, float64) {
	if len(points) < 2 {
		return TrendStable, 0
	}
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Year < sorted[j].Year })

	change := PercentChange(sorted[0].Value, sorted[len(sorted)-1].Value)
	return ClassifyChange(change), change
}
