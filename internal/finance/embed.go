package finance

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/google/uuid"
)

// Embed is the script and markup pair a page includes verbatim.
type Embed struct {
	Script template.HTML
	Markup template.HTML
}

// chartMeta is the JSON payload of the script block.
type chartMeta struct {
	ID      string     `json:"id"`
	Layout  string     `json:"layout"`
	Symbols []string   `json:"symbols"`
	Names   []string   `json:"names"`
	Field   Field      `json:"field,omitempty"`
	Theme   string     `json:"theme"`
	XStart  string     `json:"xStart"`
	XEnd    string     `json:"xEnd"`
	YRange  ValueRange `json:"yRange"`
	Colors  []string   `json:"colors,omitempty"`
}

type legendEntry struct {
	Name  string
	Color string
}

type markupArea struct {
	Coords string
	Title  string
}

type markupPanel struct {
	Src     template.URL
	Alt     string
	Width   int
	Height  int
	MapName string
	Areas   []markupArea
}

var markupTmpl = template.Must(template.New("chart").Funcs(template.FuncMap{
	"swatch": func(color string) template.CSS { return template.CSS("background:" + color) },
}).Parse(`<div class="stockplot" id="{{.ID}}">
{{- range .Panels}}
<img src="{{.Src}}" alt="{{.Alt}}" width="{{.Width}}" height="{{.Height}}"{{if .Areas}} usemap="#{{.MapName}}"{{end}}>
{{- if .Areas}}
<map name="{{.MapName}}">
{{- range .Areas}}
<area shape="rect" coords="{{.Coords}}" title="{{.Title}}" alt="{{.Title}}">
{{- end}}
</map>
{{- end}}
{{- end}}
{{- if .Legend}}
<ul class="stockplot-legend">
{{- range .Legend}}
<li><span class="swatch" style="{{swatch .Color}}"></span>{{.Name}}</li>
{{- end}}
</ul>
{{- end}}
</div>`))

// newEmbed builds the markup for the rendered panels and the metadata script.
func newEmbed(meta chartMeta, panels []renderedPanel, legend []legendEntry) (Embed, error) {
	meta.ID = "stockplot-" + uuid.NewString()

	data := struct {
		ID     string
		Panels []markupPanel
		Legend []legendEntry
	}{ID: meta.ID, Legend: legend}
	for _, p := range panels {
		mp := markupPanel{
			Src:     template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(p.PNG)),
			Alt:     p.Alt,
			Width:   p.Width,
			Height:  p.Height,
			MapName: meta.ID + "-" + p.Name,
		}
		for _, h := range p.Hits {
			mp.Areas = append(mp.Areas, markupArea{
				Coords: fmt.Sprintf("%d,%d,%d,%d", h.Left, h.Top, h.Right, h.Bottom),
				Title:  h.Title,
			})
		}
		data.Panels = append(data.Panels, mp)
	}

	var markup bytes.Buffer
	if err := markupTmpl.Execute(&markup, data); err != nil {
		return Embed{}, fmt.Errorf("render chart markup: %w", err)
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return Embed{}, fmt.Errorf("encode chart metadata: %w", err)
	}
	script := fmt.Sprintf(`<script type="application/json" id="%s-meta">%s</script>`, meta.ID, payload)
	return Embed{Script: template.HTML(script), Markup: template.HTML(markup.String())}, nil
}
