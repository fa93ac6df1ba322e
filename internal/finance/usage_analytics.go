package finance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vicanso/go-charts/v2"

	"github.com/Jvinniec/di-milestoneproj/internal/storage"
)

// UsageAnalytics renders the submission log for the usage page.
type UsageAnalytics struct{}

func NewUsageAnalytics() *UsageAnalytics {
	return &UsageAnalytics{}
}

func sortedLayouts(stats map[string]*storage.UsageStats) ([]string, int) {
	layouts := make([]string, 0, len(stats))
	total := 0
	for layout, st := range stats {
		layouts = append(layouts, layout)
		total += st.Count
	}
	sort.Strings(layouts)
	return layouts, total
}

// MakeUsageChart draws a pie of submissions per chart layout.
func (ua *UsageAnalytics) MakeUsageChart(stats map[string]*storage.UsageStats, days int) ([]byte, error) {
	layouts, total := sortedLayouts(stats)
	if total == 0 {
		return nil, fmt.Errorf("no usage data available")
	}

	values := make([]float64, len(layouts))
	labels := make([]string, len(layouts))
	for i, layout := range layouts {
		values[i] = float64(stats[layout].Count)
		labels[i] = fmt.Sprintf("%s (%.1f%%)", formatLayoutName(layout), values[i]/float64(total)*100)
	}

	p, err := charts.PieRender(
		values,
		charts.TitleTextOptionFunc(fmt.Sprintf("Chart Requests (%d days)", days)),
		charts.LegendOptionFunc(charts.LegendOption{
			Data: labels,
			Top:  charts.PositionTop,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(800),
		charts.HeightOptionFunc(600),
	)
	if err != nil {
		return nil, err
	}
	return p.Bytes()
}

// FormatUsageStatsText summarizes the log with the most requested symbols
// per layout.
func (ua *UsageAnalytics) FormatUsageStatsText(stats map[string]*storage.UsageStats, days int) string {
	layouts, total := sortedLayouts(stats)
	if total == 0 {
		return "No usage data available for the specified period."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Usage over the last %d days\n\n", days)
	fmt.Fprintf(&b, "Total submissions: %d\n\n", total)

	type symCount struct {
		sym   string
		count int
	}
	for _, layout := range layouts {
		st := stats[layout]
		fmt.Fprintf(&b, "%s: %d (%.1f%%)\n", formatLayoutName(layout), st.Count, float64(st.Count)/float64(total)*100)

		syms := make([]symCount, 0, len(st.Symbols))
		for sym, n := range st.Symbols {
			syms = append(syms, symCount{sym, n})
		}
		sort.Slice(syms, func(i, j int) bool {
			if syms[i].count != syms[j].count {
				return syms[i].count > syms[j].count
			}
			return syms[i].sym < syms[j].sym
		})
		for i, s := range syms {
			if i >= 5 {
				break
			}
			fmt.Fprintf(&b, "  %s: %d\n", s.sym, s.count)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatLayoutName(layout string) string {
	switch layout {
	case "candlestick":
		return "Candlestick"
	case "overlay":
		return "Comparison"
	case "error":
		return "Failed"
	default:
		return layout
	}
}
