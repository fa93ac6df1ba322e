package finance

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jvinniec/di-milestoneproj/internal/common"
)

func newTestFetcher(p Provider) *Fetcher {
	return NewFetcher(p, NewCache(), common.NewSilentLogger())
}

func TestResolveAndFetchExactMatch(t *testing.T) {
	p := newFakeProvider()
	p.matches["AAPL"] = []SymbolMatch{
		{Symbol: "AAPL", Name: "Apple Inc", Region: "United States", MatchScore: 1.0},
		{Symbol: "AAPL34.SAO", Name: "Apple Inc", Region: "Brazil", MatchScore: 0.6},
	}
	p.history["AAPL"] = fixtureRows(10, 100)
	f := newTestFetcher(p)

	s, err := f.ResolveAndFetch(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", s.Symbol)
	assert.Equal(t, "Apple Inc", s.DisplayName)
	assert.Equal(t, "United States", s.Region)
	assert.Len(t, s.Rows, 10)
	assert.True(t, f.Cache().Has("AAPL"))
}

func TestResolveAndFetchAmbiguous(t *testing.T) {
	p := newFakeProvider()
	p.matches["BA"] = []SymbolMatch{
		{Symbol: "BAC", Name: "Bank of America Corp", Region: "United States", MatchScore: 0.8},
		{Symbol: "BA.LON", Name: "BAE Systems", Region: "United Kingdom", MatchScore: 0.5},
		{Symbol: "BABA", Name: "Alibaba Group", Region: "United States", MatchScore: 0.4},
	}
	f := newTestFetcher(p)

	_, err := f.ResolveAndFetch(context.Background(), "BA")
	var amb *AmbiguousSymbolError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, p.matches["BA"], amb.Candidates)

	msg := err.Error()
	iBAC := strings.Index(msg, "BAC (Bank of America Corp, United States)")
	iLON := strings.Index(msg, "BA.LON (BAE Systems, United Kingdom)")
	iBABA := strings.Index(msg, "BABA (Alibaba Group, United States)")
	assert.True(t, iBAC >= 0 && iBAC < iLON && iLON < iBABA, msg)

	_, fetches := p.calls()
	assert.Empty(t, fetches)
	assert.False(t, f.Cache().Has("BA"))
}

func TestResolveAndFetchNotFound(t *testing.T) {
	f := newTestFetcher(newFakeProvider())

	_, err := f.ResolveAndFetch(context.Background(), "ZZZZ")
	var nf *SymbolNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "ZZZZ", nf.Symbol)
}

func TestIndexAliasesSkipSearch(t *testing.T) {
	p := newFakeProvider()
	p.history["DJI"] = fixtureRows(5, 30000)
	p.history["SPX"] = fixtureRows(5, 4000)
	f := newTestFetcher(p)

	for _, sym := range []string{"DJI", "SPX"} {
		s, err := f.ResolveAndFetch(context.Background(), sym)
		require.NoError(t, err)
		assert.Equal(t, sym, s.DisplayName)
	}
	searches, fetches := p.calls()
	assert.Empty(t, searches)
	assert.Equal(t, []string{"DJI", "SPX"}, fetches)
}

func TestProviderErrorPassesThrough(t *testing.T) {
	p := newFakeProvider()
	note := &ProviderError{Endpoint: "TIME_SERIES_DAILY_ADJUSTED", Message: "Our standard API call frequency is 5 calls per minute"}
	p.errs["DJI"] = note
	f := newTestFetcher(p)

	_, err := f.ResolveAndFetch(context.Background(), "DJI")
	assert.Same(t, note, err)
	assert.Equal(t, note.Message, err.Error())
}

func TestQueryManySkipsCached(t *testing.T) {
	p := newFakeProvider()
	f := newTestFetcher(p)
	f.Cache().Put("AAPL", fixtureSeries("AAPL", "Apple Inc", 5, 100))
	f.Cache().Put("DJI", fixtureSeries("DJI", "DJI", 5, 30000))

	require.NoError(t, f.QueryMany(context.Background(), []string{"AAPL", "DJI"}))
	searches, fetches := p.calls()
	assert.Empty(t, searches)
	assert.Empty(t, fetches)
}

func TestQueryManyFailFast(t *testing.T) {
	p := newFakeProvider()
	p.matches["AAPL"] = []SymbolMatch{{Symbol: "AAPL", Name: "Apple Inc", MatchScore: 1}}
	p.history["AAPL"] = fixtureRows(5, 100)
	p.history["SPX"] = fixtureRows(5, 4000)
	f := newTestFetcher(p)

	err := f.QueryMany(context.Background(), []string{"AAPL", "NOPE", "SPX"})
	var nf *SymbolNotFoundError
	require.True(t, errors.As(err, &nf))
	var se *SymbolError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "NOPE", se.Symbol)
	assert.Same(t, nf, se.Err)
	assert.Contains(t, err.Error(), "NOPE")

	// fetched before the failure stays cached; after it is never tried
	assert.True(t, f.Cache().Has("AAPL"))
	assert.False(t, f.Cache().Has("SPX"))
	_, fetches := p.calls()
	assert.Equal(t, []string{"AAPL"}, fetches)
}

func TestConcurrentFetchesShareOneCall(t *testing.T) {
	p := newFakeProvider()
	p.history["SPX"] = fixtureRows(5, 4000)
	p.gate = make(chan struct{})
	f := newTestFetcher(p)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*SymbolSeries, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := f.ResolveAndFetch(context.Background(), "SPX")
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	require.Eventually(t, func() bool { return p.pending.Load() == 1 }, time.Second, time.Millisecond)
	// give the other callers time to join the flight
	time.Sleep(20 * time.Millisecond)
	close(p.gate)
	wg.Wait()

	_, fetches := p.calls()
	assert.Len(t, fetches, 1)
	for _, s := range results {
		assert.Same(t, results[0], s)
	}
}

func TestCancelledCallerLeavesSharedFetchRunning(t *testing.T) {
	p := newFakeProvider()
	p.history["SPX"] = fixtureRows(5, 4000)
	p.gate = make(chan struct{})
	f := newTestFetcher(p)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := f.ResolveAndFetch(ctx, "SPX")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return p.pending.Load() == 1 }, time.Second, time.Millisecond)

	type result struct {
		s   *SymbolSeries
		err error
	}
	joined := make(chan result, 1)
	go func() {
		s, err := f.ResolveAndFetch(context.Background(), "SPX")
		joined <- result{s, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller still waiting on the shared fetch")
	}

	close(p.gate)
	res := <-joined
	require.NoError(t, res.err)
	assert.Len(t, res.s.Rows, 5)
	assert.True(t, f.Cache().Has("SPX"))
	_, fetches := p.calls()
	assert.Equal(t, []string{"SPX"}, fetches)
}

func TestNormalizeSymbols(t *testing.T) {
	assert.Equal(t, []string{"AAPL", "MSFT", "DJI"}, NormalizeSymbols([]string{" aapl", "MSFT", "", "AAPL", "dji"}))
	assert.Empty(t, NormalizeSymbols(nil))
}
