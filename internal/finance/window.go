package finance

import (
	"math"
	"time"
)

// ValueRange is a closed interval on a value axis.
type ValueRange struct {
	Min float64
	Max float64
}

// TimeRange is the initial visible span of the date axis.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// visibleRows returns the most recent days rows.
func visibleRows(rows []DailyRow, days int) []DailyRow {
	if days <= 0 || days >= len(rows) {
		return rows
	}
	return rows[len(rows)-days:]
}

// visibleSpan runs from the first visible day to lookahead calendar days
// past the last one.
func visibleSpan(rows []DailyRow, lookahead int) TimeRange {
	return TimeRange{
		Start: rows[0].Date,
		End:   rows[len(rows)-1].Date.AddDate(0, 0, lookahead),
	}
}

// paddedRange is [0.95*min(lo), 1.05*max(hi)] over the given columns.
func paddedRange(lows, highs []float64) ValueRange {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range lows {
		lo = math.Min(lo, v)
	}
	for _, v := range highs {
		hi = math.Max(hi, v)
	}
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return ValueRange{Min: 0, Max: 1}
	}
	r := ValueRange{Min: 0.95 * lo, Max: 1.05 * hi}
	if r.Max <= r.Min {
		// flat zero series
		r.Max = r.Min + 1
	}
	return r
}
