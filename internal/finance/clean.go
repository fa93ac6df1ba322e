package finance

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// The provider's numbered labels appear only in this file.
var dailyLabels = map[string]func(r *DailyRow, v float64){
	"1. open":              func(r *DailyRow, v float64) { r.Open = v },
	"2. high":              func(r *DailyRow, v float64) { r.High = v },
	"3. low":               func(r *DailyRow, v float64) { r.Low = v },
	"4. close":             func(r *DailyRow, v float64) { r.Close = v },
	"5. adjusted close":    func(r *DailyRow, v float64) { r.AdjustedClose = v },
	"6. volume":            func(r *DailyRow, v float64) { r.Volume = v },
	"7. dividend amount":   func(r *DailyRow, v float64) { r.Dividend = v },
	"8. split coefficient": func(r *DailyRow, v float64) { r.SplitCoefficient = v },
	// unadjusted daily series number volume fifth
	"5. volume": func(r *DailyRow, v float64) { r.Volume = v },
}

var requiredDailyLabels = []string{"1. open", "2. high", "3. low", "4. close"}

// normalizeDaily converts the provider's date-keyed table into rows sorted
// oldest first. Rows with a bad date, a missing price or a negative volume are
// dropped and counted.
func normalizeDaily(raw map[string]map[string]string) (rows []DailyRow, skipped int) {
	et := getEasternTime()
	rows = make([]DailyRow, 0, len(raw))
	for day, fields := range raw {
		d, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(day), et)
		if err != nil {
			skipped++
			continue
		}
		row, ok := parseDailyFields(fields)
		if !ok {
			skipped++
			continue
		}
		row.Date = d
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows, skipped
}

func parseDailyFields(fields map[string]string) (DailyRow, bool) {
	for _, k := range requiredDailyLabels {
		if _, ok := fields[k]; !ok {
			return DailyRow{}, false
		}
	}
	row := DailyRow{SplitCoefficient: 1}
	_, hasAdj := fields["5. adjusted close"]
	for label, raw := range fields {
		set, ok := dailyLabels[label]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return DailyRow{}, false
		}
		set(&row, v)
	}
	if !hasAdj {
		row.AdjustedClose = row.Close
	}
	if row.Volume < 0 {
		return DailyRow{}, false
	}
	return row, true
}

// normalizeMatches converts SYMBOL_SEARCH entries, keeping provider order.
func normalizeMatches(raw []map[string]string) []SymbolMatch {
	out := make([]SymbolMatch, 0, len(raw))
	for _, m := range raw {
		score, err := strconv.ParseFloat(strings.TrimSpace(m["9. matchScore"]), 64)
		if err != nil {
			score = 0
		}
		out = append(out, SymbolMatch{
			Symbol:     strings.TrimSpace(m["1. symbol"]),
			Name:       strings.TrimSpace(m["2. name"]),
			Type:       strings.TrimSpace(m["3. type"]),
			Region:     strings.TrimSpace(m["4. region"]),
			Currency:   strings.TrimSpace(m["8. currency"]),
			MatchScore: score,
		})
	}
	return out
}
