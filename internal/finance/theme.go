package finance

import (
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ColorTheme maps the increase and decrease states to fill colours.
type ColorTheme struct {
	Name     string
	Increase string
	Decrease string
}

var (
	standardTheme = ColorTheme{Name: "standard", Increase: "#26A69A", Decrease: "#EF5350"}
	// blue and orange stay distinct under the common colour vision deficiencies
	colorblindTheme = ColorTheme{Name: "colorblind", Increase: "#0059FF", Decrease: "#FFA500"}
)

// ThemeFor returns the theme for the colourblind-friendly flag.
func ThemeFor(colorblind bool) ColorTheme {
	if colorblind {
		return colorblindTheme
	}
	return standardTheme
}

// overlayPalette is the go-charts light theme series palette; go-charts picks
// series colours from it by index modulo its length, as PaletteColor does.
var overlayPalette = []string{
	"#5470c6", "#91cc75", "#fac858", "#ee6666", "#73c0de",
	"#3ba272", "#fc8452", "#9a60b4", "#ea7ccc",
}

// PaletteColor returns the line colour of the i-th overlay series.
func PaletteColor(i int) string {
	return overlayPalette[i%len(overlayPalette)]
}

const (
	neutralColor = "#9E9E9E"
	averageColor = "#424242"
)

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
