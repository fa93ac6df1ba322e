package finance

import (
	"fmt"
	"strings"
	"time"
)

// DailyRow is one trading day of adjusted history.
type DailyRow struct {
	Date             time.Time
	Open             float64
	High             float64
	Low              float64
	Close            float64
	AdjustedClose    float64
	Volume           float64
	Dividend         float64
	SplitCoefficient float64
}

// SymbolSeries is the cached history of one ticker. Rows run oldest to newest
// and are never empty. A SymbolSeries is not modified after it is cached.
type SymbolSeries struct {
	Symbol      string
	DisplayName string
	Region      string
	Currency    string
	Rows        []DailyRow
}

// Last returns the most recent row.
func (s *SymbolSeries) Last() DailyRow {
	return s.Rows[len(s.Rows)-1]
}

// SymbolMatch is one candidate returned by the provider's symbol search.
type SymbolMatch struct {
	Symbol     string
	Name       string
	Type       string
	Region     string
	Currency   string
	MatchScore float64
}

func (m SymbolMatch) String() string {
	return fmt.Sprintf("%s (%s, %s)", m.Symbol, m.Name, m.Region)
}

// Index aliases skip symbol search; the alias is its own display name.
const (
	AliasDJIA  = "DJI"
	AliasSP500 = "SPX"
)

// IsIndexAlias reports whether symbol is one of the composite index aliases.
func IsIndexAlias(symbol string) bool {
	switch strings.ToUpper(symbol) {
	case AliasDJIA, AliasSP500:
		return true
	}
	return false
}

// Field selects which numeric column of a DailyRow is charted.
type Field string

const (
	FieldOpen          Field = "open"
	FieldHigh          Field = "high"
	FieldLow           Field = "low"
	FieldClose         Field = "close"
	FieldAdjustedClose Field = "adjustedClose"
	FieldVolume        Field = "volume"
)

// ParseField maps a form value to a Field. "closeAdj" is the form's name for
// the adjusted close; empty or unknown values fall back to the adjusted close.
func ParseField(v string) Field {
	switch strings.TrimSpace(v) {
	case "open":
		return FieldOpen
	case "high":
		return FieldHigh
	case "low":
		return FieldLow
	case "close":
		return FieldClose
	case "volume":
		return FieldVolume
	default:
		return FieldAdjustedClose
	}
}

// Label is the human readable column name.
func (f Field) Label() string {
	switch f {
	case FieldOpen:
		return "Open"
	case FieldHigh:
		return "High"
	case FieldLow:
		return "Low"
	case FieldClose:
		return "Close"
	case FieldVolume:
		return "Volume"
	default:
		return "Adjusted Close"
	}
}

// Value extracts the field from a row.
func (f Field) Value(r DailyRow) float64 {
	switch f {
	case FieldOpen:
		return r.Open
	case FieldHigh:
		return r.High
	case FieldLow:
		return r.Low
	case FieldClose:
		return r.Close
	case FieldVolume:
		return r.Volume
	default:
		return r.AdjustedClose
	}
}

// Column extracts the field from every row.
func (f Field) Column(rows []DailyRow) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f.Value(r)
	}
	return out
}
