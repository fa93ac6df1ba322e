package finance

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/Jvinniec/di-milestoneproj/internal/common"
)

// Fetcher resolves symbols against the provider and fills the Cache.
// Concurrent fetches of the same uncached symbol share one provider round trip.
type Fetcher struct {
	provider Provider
	cache    *Cache
	logger   *common.Logger
	inflight singleflight.Group
}

func NewFetcher(provider Provider, cache *Cache, logger *common.Logger) *Fetcher {
	return &Fetcher{provider: provider, cache: cache, logger: logger.Component("fetcher")}
}

// Cache exposes the cache the fetcher writes into.
func (f *Fetcher) Cache() *Cache { return f.cache }

// ResolveAndFetch returns the series for symbol, fetching and caching it when
// absent. Index aliases skip symbol search.
func (f *Fetcher) ResolveAndFetch(ctx context.Context, symbol string) (*SymbolSeries, error) {
	symbol = cacheKey(symbol)
	if s, err := f.cache.Get(symbol); err == nil {
		return s, nil
	}
	// the shared fetch is detached from any one caller; each caller stops
	// waiting when its own ctx ends
	fetchCtx := context.WithoutCancel(ctx)
	ch := f.inflight.DoChan(symbol, func() (any, error) {
		// a previous flight may have finished between Get and DoChan
		if s, err := f.cache.Get(symbol); err == nil {
			return s, nil
		}
		return f.fetch(fetchCtx, symbol)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			f.logger.Debug().Str("symbol", symbol).Msg("joined in-flight fetch")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*SymbolSeries), nil
	}
}

func (f *Fetcher) fetch(ctx context.Context, symbol string) (*SymbolSeries, error) {
	series := &SymbolSeries{Symbol: symbol, DisplayName: symbol}

	if !IsIndexAlias(symbol) {
		match, err := f.resolve(ctx, symbol)
		if err != nil {
			return nil, err
		}
		series.DisplayName = match.Name
		series.Region = match.Region
		series.Currency = match.Currency
	}

	rows, err := f.provider.DailyAdjusted(ctx, symbol)
	if err != nil {
		f.logger.Warn().Err(err).Str("symbol", symbol).Msg("daily history failed")
		return nil, err
	}
	series.Rows = rows
	f.cache.Put(symbol, series)
	f.logger.Info().Str("symbol", symbol).Str("name", series.DisplayName).Int("rows", len(rows)).Msg("cached series")
	return series, nil
}

// resolve picks the best search candidate. Anything short of a perfect score
// is reported back to the user as a list of candidates.
func (f *Fetcher) resolve(ctx context.Context, symbol string) (SymbolMatch, error) {
	matches, err := f.provider.SearchSymbol(ctx, symbol)
	if err != nil {
		f.logger.Warn().Err(err).Str("symbol", symbol).Msg("symbol search failed")
		return SymbolMatch{}, err
	}
	if len(matches) == 0 {
		return SymbolMatch{}, &SymbolNotFoundError{Symbol: symbol}
	}
	best := matches[0]
	for _, m := range matches[1:] {
		if m.MatchScore > best.MatchScore {
			best = m
		}
	}
	if best.MatchScore < 1.0 {
		return SymbolMatch{}, &AmbiguousSymbolError{Symbol: symbol, Candidates: matches}
	}
	return best, nil
}

// QueryMany fetches every symbol not yet cached, in order, and stops at the
// first failure. Series fetched before the failure stay cached.
func (f *Fetcher) QueryMany(ctx context.Context, symbols []string) error {
	for _, s := range symbols {
		if f.cache.Has(s) {
			continue
		}
		if _, err := f.ResolveAndFetch(ctx, s); err != nil {
			return &SymbolError{Symbol: cacheKey(s), Err: err}
		}
	}
	return nil
}

// NormalizeSymbols trims and upper-cases symbols, dropping blanks and repeats
// while keeping the first occurrence order.
func NormalizeSymbols(symbols []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = cacheKey(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
