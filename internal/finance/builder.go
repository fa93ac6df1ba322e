package finance

import (
	"fmt"
	"strings"
	"time"

	"github.com/Jvinniec/di-milestoneproj/internal/common"
)

// Layout names, also used in the submission log.
const (
	LayoutCandlestick = "candlestick"
	LayoutOverlay     = "overlay"
)

// LayoutFor picks the layout from the number of symbols.
func LayoutFor(symbols int) string {
	if symbols == 1 {
		return LayoutCandlestick
	}
	return LayoutOverlay
}

// ChartOptions controls the initial view and the rendered size.
type ChartOptions struct {
	DaysToShow    int
	LookaheadDays int
	Width         int
	CacheTTL      time.Duration
}

// DefaultChartOptions shows the last 100 days with a 3 day margin.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{DaysToShow: 100, LookaheadDays: 3, Width: 1000, CacheTTL: time.Minute}
}

// Builder turns cached series into an embeddable chart: a candlestick and
// volume pair for one symbol, an overlay of line series for several.
type Builder struct {
	cache    *Cache
	opts     ChartOptions
	rendered *chartCache
	logger   *common.Logger
}

func NewBuilder(cache *Cache, opts ChartOptions, logger *common.Logger) *Builder {
	def := DefaultChartOptions()
	if opts.DaysToShow <= 0 {
		opts.DaysToShow = def.DaysToShow
	}
	if opts.LookaheadDays < 0 {
		opts.LookaheadDays = def.LookaheadDays
	}
	if opts.Width <= 0 {
		opts.Width = def.Width
	}
	return &Builder{
		cache:    cache,
		opts:     opts,
		rendered: newChartCache(opts.CacheTTL),
		logger:   logger.Component("charts"),
	}
}

// Build charts symbols, which must already be cached. field is only used by
// the overlay.
func (b *Builder) Build(symbols []string, field Field, colorblind bool) (Embed, error) {
	if len(symbols) == 0 {
		return Embed{}, fmt.Errorf("no symbols to plot")
	}
	series := make([]*SymbolSeries, 0, len(symbols))
	for _, sym := range symbols {
		s, err := b.cache.Get(sym)
		if err != nil {
			return Embed{}, err
		}
		series = append(series, s)
	}

	theme := ThemeFor(colorblind)
	key := strings.Join(symbols, ",") + "|" + string(field) + "|" + theme.Name
	if e, ok := b.rendered.get(key); ok {
		return e, nil
	}

	start := time.Now()
	var (
		e   Embed
		err error
	)
	if LayoutFor(len(series)) == LayoutCandlestick {
		e, err = b.candlestick(series[0], theme)
	} else {
		e, err = b.overlay(series, field, theme)
	}
	if err != nil {
		b.logger.Error().Err(err).Strs("symbols", symbols).Msg("chart build failed")
		return Embed{}, err
	}
	b.logger.Debug().Strs("symbols", symbols).Dur("elapsed", time.Since(start)).Msg("chart built")
	b.rendered.set(key, e)
	return e, nil
}

func (b *Builder) candlestick(s *SymbolSeries, theme ColorTheme) (Embed, error) {
	layout := NewCandlestickLayout(s, theme, b.opts.DaysToShow, b.opts.LookaheadDays)
	panels, err := RenderCandlestick(layout, b.opts.Width)
	if err != nil {
		return Embed{}, err
	}
	meta := chartMeta{
		Layout:  LayoutCandlestick,
		Symbols: []string{s.Symbol},
		Names:   []string{s.DisplayName},
		Theme:   theme.Name,
		XStart:  tradingDate(layout.XRange.Start),
		XEnd:    tradingDate(layout.XRange.End),
		YRange:  layout.PriceRange,
	}
	legend := []legendEntry{
		{Name: "Close above open", Color: theme.Increase},
		{Name: "Close below open", Color: theme.Decrease},
		{Name: fmt.Sprintf("%d-day moving average", movingAverageWindow), Color: averageColor},
	}
	return newEmbed(meta, panels, legend)
}

func (b *Builder) overlay(series []*SymbolSeries, field Field, theme ColorTheme) (Embed, error) {
	layout, err := NewOverlayLayout(series, field, b.opts.DaysToShow, b.opts.LookaheadDays)
	if err != nil {
		return Embed{}, err
	}
	panel, err := RenderOverlay(layout, b.opts.Width)
	if err != nil {
		return Embed{}, err
	}
	meta := chartMeta{
		Layout: LayoutOverlay,
		Field:  field,
		Theme:  theme.Name,
		XStart: tradingDate(layout.XRange.Start),
		XEnd:   tradingDate(layout.XRange.End),
		YRange: layout.YRange,
		Colors: layout.Colors,
	}
	legend := make([]legendEntry, len(series))
	for i, s := range series {
		meta.Symbols = append(meta.Symbols, s.Symbol)
		meta.Names = append(meta.Names, s.DisplayName)
		legend[i] = legendEntry{Name: layout.Labels[i], Color: layout.Colors[i]}
	}
	return newEmbed(meta, []renderedPanel{panel}, legend)
}
