package finance

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vicanso/go-charts/v2"
)

// seriesLabel is "Name (SYM)", or just the symbol for aliases.
func seriesLabel(s *SymbolSeries) string {
	if s.DisplayName == "" || strings.EqualFold(s.DisplayName, s.Symbol) {
		return s.Symbol
	}
	return fmt.Sprintf("%s (%s)", s.DisplayName, s.Symbol)
}

// OverlayLayout is everything needed to draw the multi-symbol line chart.
type OverlayLayout struct {
	Field  Field
	Series []*SymbolSeries
	// Dates are the days visible for every series, oldest first.
	Dates  []time.Time
	Values [][]float64
	Labels []string
	XRange TimeRange
	YRange ValueRange
	Colors []string
	Title  string
}

// NewOverlayLayout aligns the series on the days they share inside their own
// visible windows. The y range is global across every series' window.
func NewOverlayLayout(series []*SymbolSeries, field Field, daysToShow, lookahead int) (OverlayLayout, error) {
	if len(series) == 0 {
		return OverlayLayout{}, errors.New("no series to plot")
	}
	layout := OverlayLayout{Field: field, Series: series}

	windows := make([][]DailyRow, len(series))
	var columns []float64
	count := map[int64]int{}
	for i, s := range series {
		windows[i] = visibleRows(s.Rows, daysToShow)
		for _, r := range windows[i] {
			count[r.Date.Unix()]++
			columns = append(columns, field.Value(r))
		}
	}
	layout.YRange = paddedRange(columns, columns)

	// days present in every window, in the first series' order
	for _, r := range windows[0] {
		if count[r.Date.Unix()] == len(series) {
			layout.Dates = append(layout.Dates, r.Date)
		}
	}
	if len(layout.Dates) == 0 {
		return OverlayLayout{}, errors.New("series share no trading days in the visible window")
	}

	shared := map[int64]struct{}{}
	for _, d := range layout.Dates {
		shared[d.Unix()] = struct{}{}
	}
	names := make([]string, len(series))
	for i, s := range series {
		vals := make([]float64, 0, len(layout.Dates))
		for _, r := range windows[i] {
			if _, ok := shared[r.Date.Unix()]; ok {
				vals = append(vals, field.Value(r))
			}
		}
		layout.Values = append(layout.Values, vals)
		layout.Colors = append(layout.Colors, PaletteColor(i))
		names[i] = seriesLabel(s)
	}
	layout.Labels = names

	last := layout.Dates[len(layout.Dates)-1]
	layout.XRange = TimeRange{Start: layout.Dates[0], End: last.AddDate(0, 0, lookahead)}
	layout.Title = fmt.Sprintf("%s: %s", field.Label(), strings.Join(names, ", "))
	return layout, nil
}

const overlayHeight = 520

// RenderOverlay draws layout as one line per symbol. The x axis carries the
// lookahead days as trailing labels without data.
func RenderOverlay(layout OverlayLayout, width int) (renderedPanel, error) {
	et := getEasternTime()
	xLabels := make([]string, 0, len(layout.Dates)+3)
	for _, d := range layout.Dates {
		xLabels = append(xLabels, d.In(et).Format("Jan 02 '06"))
	}
	for d := layout.Dates[len(layout.Dates)-1].AddDate(0, 0, 1); !d.After(layout.XRange.End); d = d.AddDate(0, 0, 1) {
		xLabels = append(xLabels, d.In(et).Format("Jan 02 '06"))
	}

	yMin, yMax := layout.YRange.Min, layout.YRange.Max
	seriesList := charts.NewSeriesListDataFromValues(layout.Values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = layout.Labels[i]
	}

	painter, err := charts.Render(
		charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(layout.Title),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag(), SplitNumber: 10}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: layout.Labels, Top: charts.PositionTop}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(overlayHeight),
	)
	if err != nil {
		return renderedPanel{}, fmt.Errorf("render overlay: %w", err)
	}
	img, err := painter.Bytes()
	if err != nil {
		return renderedPanel{}, err
	}
	return renderedPanel{Name: "overlay", Alt: layout.Title, PNG: img, Width: width, Height: overlayHeight}, nil
}
