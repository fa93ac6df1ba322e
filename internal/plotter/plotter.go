// Package plotter turns a chart form submission into embeddable chart output.
package plotter

import (
	"context"
	"errors"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/Jvinniec/di-milestoneproj/internal/common"
	"github.com/Jvinniec/di-milestoneproj/internal/finance"
	"github.com/Jvinniec/di-milestoneproj/internal/storage"
)

// Fetcher fills the series cache for a batch of symbols.
type Fetcher interface {
	QueryMany(ctx context.Context, symbols []string) error
}

// ChartBuilder renders cached symbols.
type ChartBuilder interface {
	Build(symbols []string, field finance.Field, colorblind bool) (finance.Embed, error)
}

// Request is a decoded form submission.
type Request struct {
	Symbols    []string
	Field      finance.Field
	Colorblind bool
	// Nasdaq is accepted from the form but has no index alias behind it.
	Nasdaq bool
}

// Result is what the page embeds. On failure Script is empty and Markup is
// the error panel.
type Result struct {
	Script template.HTML
	Markup template.HTML
	Notes  []string
	Err    error
}

var errNoSymbols = errors.New("no stock symbols were supplied")

const nasdaqNote = "The NASDAQ composite is not available yet and was left out of the chart."

// checked mirrors how browsers submit checkboxes: present with any value.
func checked(form url.Values, key string) bool {
	return form.Get(key) != ""
}

// ParseForm decodes sname, plotinfo and the index and colour checkboxes.
func ParseForm(form url.Values) Request {
	var symbols []string
	if raw := form.Get("sname"); raw != "" {
		symbols = strings.Split(raw, ",")
	}
	if checked(form, "djia") {
		symbols = append(symbols, finance.AliasDJIA)
	}
	if checked(form, "sp500") {
		symbols = append(symbols, finance.AliasSP500)
	}
	return Request{
		Symbols:    finance.NormalizeSymbols(symbols),
		Field:      finance.ParseField(form.Get("plotinfo")),
		Colorblind: checked(form, "colorblind"),
		Nasdaq:     checked(form, "nasdaq"),
	}
}

// Orchestrator drives the fetcher and the chart builder for one submission.
type Orchestrator struct {
	fetcher  Fetcher
	builder  ChartBuilder
	recorder storage.Recorder
	logger   *common.Logger
}

func New(fetcher Fetcher, builder ChartBuilder, recorder storage.Recorder, logger *common.Logger) *Orchestrator {
	if recorder == nil {
		recorder = storage.NewNoopRecorder()
	}
	return &Orchestrator{fetcher: fetcher, builder: builder, recorder: recorder, logger: logger.Component("plotter")}
}

// HandleSubmission fetches anything missing and charts the requested symbols.
// The first fetch error replaces the chart with an error panel.
func (o *Orchestrator) HandleSubmission(ctx context.Context, form url.Values) Result {
	req := ParseForm(form)
	res := o.handle(ctx, req)

	sub := storage.Submission{Time: time.Now(), Symbols: req.Symbols, Field: string(req.Field), Layout: finance.LayoutFor(len(req.Symbols))}
	if res.Err != nil {
		sub.Layout = "error"
		sub.Error = res.Err.Error()
	}
	if err := o.recorder.RecordSubmission(sub); err != nil {
		o.logger.Warn().Err(err).Msg("submission not recorded")
	}
	return res
}

func (o *Orchestrator) handle(ctx context.Context, req Request) Result {
	var notes []string
	if req.Nasdaq {
		o.logger.Warn().Strs("symbols", req.Symbols).Msg("nasdaq checkbox set but no NASDAQ alias exists")
		notes = append(notes, nasdaqNote)
	}
	if len(req.Symbols) == 0 {
		return failure(errNoSymbols, notes)
	}

	if err := o.fetcher.QueryMany(ctx, req.Symbols); err != nil {
		o.logger.Info().Err(err).Strs("symbols", req.Symbols).Msg("fetch failed")
		return failure(err, notes)
	}

	embed, err := o.builder.Build(req.Symbols, req.Field, req.Colorblind)
	if err != nil {
		o.logger.Error().Err(err).Strs("symbols", req.Symbols).Msg("chart failed")
		return failure(err, notes)
	}
	o.logger.Info().Strs("symbols", req.Symbols).Str("field", string(req.Field)).Bool("colorblind", req.Colorblind).Msg("chart served")
	return Result{Script: embed.Script, Markup: embed.Markup, Notes: notes}
}

func failure(err error, notes []string) Result {
	return Result{Markup: ErrorMarkup(err), Notes: notes, Err: err}
}

var errorTmpl = template.Must(template.New("error").Parse(`<div class="stockplot-error">
<h3>ERROR</h3>
<p>
OH NO! The following error was received
{{- if .Symbol}} while fetching <code>{{.Symbol}}</code>{{end}}:<br>
<code>{{.Message}}</code><br>
<br>
{{- if .Candidates}}
Did you mean one of these?
<ul>
{{- range .Candidates}}
<li><code>{{.Symbol}}</code> {{.Name}} ({{.Region}})</li>
{{- end}}
</ul>
{{- end}}
If the message specifies that the call limit has been reached, please
wait a few minutes and try again.<br>
Otherwise, you may have supplied an invalid stock symbol.
</p>
</div>`))

// ErrorMarkup renders the user-facing panel for err.
func ErrorMarkup(err error) template.HTML {
	data := struct {
		Symbol     string
		Message    string
		Candidates []finance.SymbolMatch
	}{Message: err.Error()}
	// the provider's message is shown as sent, the symbol beside it
	var se *finance.SymbolError
	if errors.As(err, &se) {
		data.Symbol = se.Symbol
		data.Message = se.Err.Error()
	}
	var amb *finance.AmbiguousSymbolError
	if errors.As(err, &amb) {
		data.Candidates = amb.Candidates
	}
	var b strings.Builder
	if execErr := errorTmpl.Execute(&b, data); execErr != nil {
		return template.HTML("<h3>ERROR</h3><p>" + template.HTMLEscapeString(err.Error()) + "</p>")
	}
	return template.HTML(b.String())
}
