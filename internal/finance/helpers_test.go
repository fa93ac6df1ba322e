package finance

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// fixtureRows returns n weekday rows ending on 2024-06-28 with prices that
// rise by 1 each day starting at base. Every third day closes below its open.
func fixtureRows(n int, base float64) []DailyRow {
	et := getEasternTime()
	rows := make([]DailyRow, 0, n)
	d := time.Date(2024, 6, 28, 0, 0, 0, 0, et)
	for len(rows) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			rows = append(rows, DailyRow{Date: d})
		}
		d = d.AddDate(0, 0, -1)
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	for i := range rows {
		p := base + float64(i)
		open, cl := p, p+0.5
		if i%3 == 2 {
			open, cl = p+0.5, p
		}
		rows[i].Open = open
		rows[i].Close = cl
		rows[i].AdjustedClose = cl
		rows[i].High = p + 1
		rows[i].Low = p - 1
		rows[i].Volume = 1e6 * float64(10+i%5)
		rows[i].SplitCoefficient = 1
	}
	return rows
}

func fixtureSeries(symbol, name string, n int, base float64) *SymbolSeries {
	return &SymbolSeries{Symbol: symbol, DisplayName: name, Rows: fixtureRows(n, base)}
}

// fakeProvider answers from maps and counts calls.
type fakeProvider struct {
	mu       sync.Mutex
	matches  map[string][]SymbolMatch
	history  map[string][]DailyRow
	errs     map[string]error
	searches []string
	fetches  []string
	// gate blocks DailyAdjusted until closed when set.
	gate    chan struct{}
	pending atomic.Int32
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		matches: map[string][]SymbolMatch{},
		history: map[string][]DailyRow{},
		errs:    map[string]error{},
	}
}

func (p *fakeProvider) SearchSymbol(_ context.Context, keywords string) ([]SymbolMatch, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searches = append(p.searches, keywords)
	return p.matches[keywords], nil
}

func (p *fakeProvider) DailyAdjusted(ctx context.Context, symbol string) ([]DailyRow, error) {
	if p.gate != nil {
		p.pending.Add(1)
		select {
		case <-p.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches = append(p.fetches, symbol)
	if err := p.errs[symbol]; err != nil {
		return nil, err
	}
	return p.history[symbol], nil
}

func (p *fakeProvider) calls() (searches, fetches []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.searches...), append([]string(nil), p.fetches...)
}
