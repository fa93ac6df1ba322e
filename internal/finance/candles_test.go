package finance

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestCandlestickClassifiesDays(t *testing.T) {
	s := &SymbolSeries{Symbol: "TEST", DisplayName: "Test Corp", Rows: fixtureRows(3, 10)}
	s.Rows[0].Open, s.Rows[0].Close = 10, 11 // up
	s.Rows[1].Open, s.Rows[1].Close = 12, 11 // down
	s.Rows[2].Open, s.Rows[2].Close = 12, 12 // flat

	for _, colorblind := range []bool{false, true} {
		theme := ThemeFor(colorblind)
		layout := NewCandlestickLayout(s, theme, 100, 3)
		require.Len(t, layout.Candles, 3)

		assert.Equal(t, Increase, layout.Candles[0].Direction)
		assert.Equal(t, theme.Increase, layout.Candles[0].Color)
		assert.True(t, layout.Candles[0].HasBody())

		assert.Equal(t, Decrease, layout.Candles[1].Direction)
		assert.Equal(t, theme.Decrease, layout.Candles[1].Color)
		assert.True(t, layout.Candles[1].HasBody())

		assert.Equal(t, Unchanged, layout.Candles[2].Direction)
		assert.False(t, layout.Candles[2].HasBody())
		assert.Empty(t, layout.Candles[2].Color)
	}
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "#0059FF", ThemeFor(true).Increase)
	assert.Equal(t, "#FFA500", ThemeFor(true).Decrease)
	assert.NotEqual(t, ThemeFor(true), ThemeFor(false))
}

func TestCandlestickRangesUseVisibleWindow(t *testing.T) {
	s := fixtureSeries("AAPL", "Apple Inc", 150, 100)
	layout := NewCandlestickLayout(s, ThemeFor(false), 100, 3)

	require.Len(t, layout.Candles, 100)
	assert.Equal(t, s.Rows[50].Date, layout.Candles[0].Row.Date)
	assert.Equal(t, s.Rows[50].Date, layout.XRange.Start)
	assert.Equal(t, s.Last().Date.AddDate(0, 0, 3), layout.XRange.End)

	// lows rise with the index, so the window minimum is row 50, not row 0
	assert.InDelta(t, 0.95*s.Rows[50].Low, layout.PriceRange.Min, 1e-9)
	assert.InDelta(t, 1.05*s.Last().High, layout.PriceRange.Max, 1e-9)
	assert.Zero(t, layout.VolumeRange.Min)
	assert.InDelta(t, 1.05*14, layout.VolumeRange.Max, 1e-9)
	assert.Equal(t, "Apple Inc (AAPL) Candlestick", layout.Title)
}

func TestCandlestickMovingAverageUsesFullHistory(t *testing.T) {
	s := fixtureSeries("AAPL", "Apple Inc", 150, 100)
	layout := NewCandlestickLayout(s, ThemeFor(false), 100, 3)
	require.Len(t, layout.MovingAverage, 100)

	sum := 0.0
	for _, r := range s.Rows[48:53] {
		sum += r.Close
	}
	assert.InDelta(t, sum/5, layout.MovingAverage[0], 1e-9)
}

func TestShortHistoryShowsEverything(t *testing.T) {
	s := fixtureSeries("NEW", "New Listing", 12, 20)
	layout := NewCandlestickLayout(s, ThemeFor(false), 100, 3)
	assert.Len(t, layout.Candles, 12)
	assert.Equal(t, s.Rows[0].Date, layout.XRange.Start)
}

func TestTooltip(t *testing.T) {
	r := fixtureRows(1, 0)[0]
	r.Open, r.AdjustedClose, r.High, r.Low, r.Volume = 187.15, 184.8912, 188.44, 183.886, 82488674
	assert.Equal(t, "2024-06-28 | Open: 187.15 | Adj Close: 184.89 | High: 188.44 | Low: 183.89 | Volume: 82.49 M", tooltip(r))
}

func TestAbbreviateVolumeRounds(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{82488674, "82.49 M"},
		{82484999, "82.48 M"},
		{1234567890, "1.23 G"},
		{45678, "45.68 k"},
		{999, "999.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, abbreviateVolume(tt.in), "%v", tt.in)
	}
}

func TestRenderCandlestick(t *testing.T) {
	s := fixtureSeries("AAPL", "Apple Inc", 120, 100)
	layout := NewCandlestickLayout(s, ThemeFor(false), 100, 3)

	panels, err := RenderCandlestick(layout, 900)
	require.NoError(t, err)
	require.Len(t, panels, 2)

	for _, p := range panels {
		assert.True(t, bytes.HasPrefix(p.PNG, pngMagic), p.Name)
		require.Len(t, p.Hits, 100, p.Name)
		for i, h := range p.Hits {
			assert.True(t, h.Left < h.Right && h.Top < h.Bottom, "%s hit %d", p.Name, i)
			assert.True(t, h.Left >= 0 && h.Right <= p.Width, "%s hit %d", p.Name, i)
			if i > 0 {
				assert.Greater(t, h.Left, p.Hits[i-1].Left)
			}
		}
	}
	assert.Equal(t, "price", panels[0].Name)
	assert.Equal(t, tooltip(s.Last()), panels[0].Hits[99].Title)
}
