package finance

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Direction classifies a trading day by close against open.
type Direction int

const (
	Unchanged Direction = iota
	Increase
	Decrease
)

func directionOf(r DailyRow) Direction {
	switch {
	case r.Close > r.Open:
		return Increase
	case r.Open > r.Close:
		return Decrease
	default:
		return Unchanged
	}
}

// Candle is one day of the price panel. Unchanged days have a wick but no body.
type Candle struct {
	Row       DailyRow
	Direction Direction
	Color     string
}

// HasBody reports whether an open to close bar is drawn.
func (c Candle) HasBody() bool { return c.Direction != Unchanged }

// CandlestickLayout is everything needed to draw the single-symbol chart.
type CandlestickLayout struct {
	Series        *SymbolSeries
	Theme         ColorTheme
	Candles       []Candle
	MovingAverage []float64
	XRange        TimeRange
	PriceRange    ValueRange
	VolumeRange   ValueRange
	Title         string
}

const (
	movingAverageWindow = 5
	candleBarWidth      = 12 * time.Hour
)

// NewCandlestickLayout classifies the visible days and computes the initial
// axis ranges from the visible window only.
func NewCandlestickLayout(s *SymbolSeries, theme ColorTheme, daysToShow, lookahead int) CandlestickLayout {
	rows := visibleRows(s.Rows, daysToShow)
	offset := len(s.Rows) - len(rows)

	// averaged over full history so the window edges are not clamped
	ma := MovingAverage(FieldClose.Column(s.Rows), movingAverageWindow)[offset:]

	candles := make([]Candle, len(rows))
	lows := make([]float64, len(rows))
	highs := make([]float64, len(rows))
	volumes := make([]float64, len(rows))
	for i, r := range rows {
		c := Candle{Row: r, Direction: directionOf(r)}
		switch c.Direction {
		case Increase:
			c.Color = theme.Increase
		case Decrease:
			c.Color = theme.Decrease
		}
		candles[i] = c
		lows[i], highs[i] = r.Low, r.High
		volumes[i] = r.Volume / 1e6
	}

	return CandlestickLayout{
		Series:        s,
		Theme:         theme,
		Candles:       candles,
		MovingAverage: ma,
		XRange:        visibleSpan(rows, lookahead),
		PriceRange:    paddedRange(lows, highs),
		VolumeRange:   ValueRange{Min: 0, Max: paddedRange(volumes, volumes).Max},
		Title:         seriesLabel(s) + " Candlestick",
	}
}

// tooltip is the hover text of one day.
func tooltip(r DailyRow) string {
	return fmt.Sprintf("%s | Open: %.2f | Adj Close: %.2f | High: %.2f | Low: %.2f | Volume: %s",
		tradingDate(r.Date), r.Open, r.AdjustedClose, r.High, r.Low, abbreviateVolume(r.Volume))
}

// abbreviateVolume rounds to two decimals of the SI unit. humanize's
// SIWithDigits truncates instead.
func abbreviateVolume(v float64) string {
	value, prefix := humanize.ComputeSI(v)
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", value, prefix))
}

// hitBox is a pixel rectangle of a rendered panel with its hover text.
type hitBox struct {
	Left, Top, Right, Bottom int
	Title                    string
}

// candleSeries draws wicks and bodies and records one hit box per day.
type candleSeries struct {
	name    string
	candles []Candle
	hits    []hitBox
}

func (cs *candleSeries) GetName() string           { return cs.name }
func (cs *candleSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (cs *candleSeries) GetStyle() chart.Style     { return chart.Style{} }
func (cs *candleSeries) Validate() error {
	if len(cs.candles) == 0 {
		return errors.New("candle series: no candles")
	}
	return nil
}

func (cs *candleSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	cs.hits = cs.hits[:0]
	half := halfBarPixels(xrange, cs.candles[0].Row.Date)
	column := max(half, columnHalfWidth(xrange, cs.candles))
	y := func(v float64) int { return canvasBox.Bottom - yrange.Translate(v) }

	for _, c := range cs.candles {
		x := canvasBox.Left + xrange.Translate(chart.TimeToFloat64(c.Row.Date))

		r.SetStrokeColor(drawing.ColorBlack)
		r.SetStrokeWidth(1)
		r.MoveTo(x, y(c.Row.High))
		r.LineTo(x, y(c.Row.Low))
		r.Stroke()
		r.ResetStyle()

		if c.HasBody() {
			top, bottom := y(max(c.Row.Open, c.Row.Close)), y(min(c.Row.Open, c.Row.Close))
			if bottom <= top {
				bottom = top + 1
			}
			chart.Draw.Box(r, chart.Box{Left: x - half, Top: top, Right: x + half, Bottom: bottom}, chart.Style{
				FillColor:   hexColor(c.Color),
				StrokeColor: drawing.ColorBlack,
				StrokeWidth: 1,
			})
		}

		cs.hits = append(cs.hits, hitBox{
			Left: x - column, Top: canvasBox.Top, Right: x + column, Bottom: canvasBox.Bottom,
			Title: tooltip(c.Row),
		})
	}
}

// volumeSeries draws one bar per day in millions of shares.
type volumeSeries struct {
	candles []Candle
	hits    []hitBox
}

func (vs *volumeSeries) GetName() string           { return "Volume" }
func (vs *volumeSeries) GetYAxis() chart.YAxisType { return chart.YAxisPrimary }
func (vs *volumeSeries) GetStyle() chart.Style     { return chart.Style{} }
func (vs *volumeSeries) Validate() error {
	if len(vs.candles) == 0 {
		return errors.New("volume series: no candles")
	}
	return nil
}

func (vs *volumeSeries) Render(r chart.Renderer, canvasBox chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	vs.hits = vs.hits[:0]
	half := halfBarPixels(xrange, vs.candles[0].Row.Date)
	column := max(half, columnHalfWidth(xrange, vs.candles))
	base := canvasBox.Bottom - yrange.Translate(0)

	for _, c := range vs.candles {
		x := canvasBox.Left + xrange.Translate(chart.TimeToFloat64(c.Row.Date))
		top := canvasBox.Bottom - yrange.Translate(c.Row.Volume/1e6)
		color := c.Color
		if color == "" {
			color = neutralColor
		}
		if base > top {
			chart.Draw.Box(r, chart.Box{Left: x - half, Top: top, Right: x + half, Bottom: base}, chart.Style{
				FillColor:   hexColor(color),
				StrokeColor: hexColor(color),
				StrokeWidth: 1,
			})
		}
		vs.hits = append(vs.hits, hitBox{
			Left: x - column, Top: canvasBox.Top, Right: x + column, Bottom: canvasBox.Bottom,
			Title: tooltip(c.Row),
		})
	}
}

func halfBarPixels(xrange chart.Range, day time.Time) int {
	x0 := chart.TimeToFloat64(day)
	w := xrange.Translate(x0+float64(candleBarWidth)) - xrange.Translate(x0)
	return max(1, w/2)
}

// columnHalfWidth is half the pixel distance between neighbouring days, so
// hover columns tile the panel without overlapping.
func columnHalfWidth(xrange chart.Range, candles []Candle) int {
	if len(candles) < 2 {
		return 1
	}
	first := xrange.Translate(chart.TimeToFloat64(candles[0].Row.Date))
	last := xrange.Translate(chart.TimeToFloat64(candles[len(candles)-1].Row.Date))
	return max(1, (last-first)/(len(candles)-1)/2)
}

func dateTickFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return time.Unix(0, int64(f)).In(getEasternTime()).Format("Jan 02 '06")
	}
	return ""
}

func millionsFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.1fM", f)
	}
	return ""
}

// renderedPanel is one PNG of the chart plus its hover regions.
type renderedPanel struct {
	Name   string
	Alt    string
	PNG    []byte
	Width  int
	Height int
	Hits   []hitBox
}

const (
	pricePanelHeight  = 420
	volumePanelHeight = 180
)

// RenderCandlestick draws the price and volume panels of layout.
func RenderCandlestick(layout CandlestickLayout, width int) ([]renderedPanel, error) {
	if len(layout.Candles) == 0 {
		return nil, errors.New("no data")
	}
	// half a bar of room so the first body is not cut by the axis
	xMin := chart.TimeToFloat64(layout.XRange.Start.Add(-candleBarWidth))
	xMax := chart.TimeToFloat64(layout.XRange.End)

	dates := make([]time.Time, len(layout.Candles))
	for i, c := range layout.Candles {
		dates[i] = c.Row.Date
	}

	candles := &candleSeries{name: layout.Series.Symbol, candles: layout.Candles}
	price := chart.Chart{
		Title:      layout.Title,
		Width:      width,
		Height:     pricePanelHeight,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 10}},
		XAxis: chart.XAxis{
			ValueFormatter: dateTickFormatter,
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
			GridMajorStyle: chart.Style{StrokeColor: drawing.ColorFromHex("e0e0e0"), StrokeWidth: 1},
		},
		YAxis: chart.YAxis{
			Name:           "Price",
			ValueFormatter: chart.FloatValueFormatter,
			Range:          &chart.ContinuousRange{Min: layout.PriceRange.Min, Max: layout.PriceRange.Max},
		},
		Series: []chart.Series{
			candles,
			chart.TimeSeries{
				Name:    fmt.Sprintf("%d-day moving average", movingAverageWindow),
				XValues: dates,
				YValues: layout.MovingAverage,
				Style: chart.Style{
					StrokeColor:     hexColor(averageColor),
					StrokeWidth:     1.5,
					StrokeDashArray: []float64{5, 3},
				},
			},
		},
	}
	var priceBuf bytes.Buffer
	if err := price.Render(chart.PNG, &priceBuf); err != nil {
		return nil, fmt.Errorf("render price panel: %w", err)
	}

	volumes := &volumeSeries{candles: layout.Candles}
	volume := chart.Chart{
		Width:      width,
		Height:     volumePanelHeight,
		Background: chart.Style{Padding: chart.Box{Top: 10, Left: 20, Right: 20, Bottom: 10}},
		XAxis: chart.XAxis{
			ValueFormatter: dateTickFormatter,
			Range:          &chart.ContinuousRange{Min: xMin, Max: xMax},
		},
		YAxis: chart.YAxis{
			Name:           "Volume (M)",
			ValueFormatter: millionsFormatter,
			Range:          &chart.ContinuousRange{Min: layout.VolumeRange.Min, Max: layout.VolumeRange.Max},
		},
		Series: []chart.Series{volumes},
	}
	var volumeBuf bytes.Buffer
	if err := volume.Render(chart.PNG, &volumeBuf); err != nil {
		return nil, fmt.Errorf("render volume panel: %w", err)
	}

	return []renderedPanel{
		{Name: "price", Alt: layout.Title, PNG: priceBuf.Bytes(), Width: width, Height: pricePanelHeight, Hits: candles.hits},
		{Name: "volume", Alt: layout.Series.Symbol + " volume", PNG: volumeBuf.Bytes(), Width: width, Height: volumePanelHeight, Hits: volumes.hits},
	}, nil
}
