package server

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Jvinniec/di-milestoneproj/internal/common"
	"github.com/Jvinniec/di-milestoneproj/internal/finance"
	"github.com/Jvinniec/di-milestoneproj/internal/plotter"
	"github.com/Jvinniec/di-milestoneproj/internal/storage"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Submitter handles one chart form submission.
type Submitter interface {
	HandleSubmission(ctx context.Context, form url.Values) plotter.Result
}

// Handlers serves the form, the chart result and the usage pages.
type Handlers struct {
	plotter  Submitter
	recorder storage.Recorder
	usage    *finance.UsageAnalytics
	logger   *common.Logger
}

// NewHandlers builds the page handlers. A nil recorder disables /stats.
func NewHandlers(p Submitter, recorder storage.Recorder, logger *common.Logger) *Handlers {
	return &Handlers{
		plotter:  p,
		recorder: recorder,
		usage:    finance.NewUsageAnalytics(),
		logger:   logger.Component("http"),
	}
}

type indexPage struct {
	Form   url.Values
	Result *plotter.Result
	Fields []fieldOption
}

type fieldOption struct {
	Value string
	Label string
}

var fieldOptions = []fieldOption{
	{"closeAdj", finance.FieldAdjustedClose.Label()},
	{"open", finance.FieldOpen.Label()},
	{"high", finance.FieldHigh.Label()},
	{"low", finance.FieldLow.Label()},
	{"close", finance.FieldClose.Label()},
	{"volume", finance.FieldVolume.Label()},
}

func (h *Handlers) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) Index(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "index.html", indexPage{Form: url.Values{}, Fields: fieldOptions})
}

func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	start := time.Now()
	res := h.plotter.HandleSubmission(r.Context(), r.PostForm)
	h.logger.Debug().Str("sname", r.PostForm.Get("sname")).Dur("elapsed", time.Since(start)).Bool("ok", res.Err == nil).Msg("submission")
	h.render(w, "index.html", indexPage{Form: r.PostForm, Result: &res, Fields: fieldOptions})
}

func (h *Handlers) About(w http.ResponseWriter, _ *http.Request) {
	h.render(w, "about.html", nil)
}

func statsDays(r *http.Request) int {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days < 1 || days > 365 {
		return 7
	}
	return days
}

type statsPage struct {
	Days    int
	Summary string
	HasData bool
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		http.NotFound(w, r)
		return
	}
	days := statsDays(r)
	stats, err := h.recorder.UsageStats(time.Now().AddDate(0, 0, -days))
	if err != nil {
		h.logger.Error().Err(err).Msg("usage query failed")
		http.Error(w, "usage unavailable", http.StatusInternalServerError)
		return
	}
	h.render(w, "stats.html", statsPage{
		Days:    days,
		Summary: h.usage.FormatUsageStatsText(stats, days),
		HasData: len(stats) > 0,
	})
}

func (h *Handlers) StatsChart(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		http.NotFound(w, r)
		return
	}
	days := statsDays(r)
	stats, err := h.recorder.UsageStats(time.Now().AddDate(0, 0, -days))
	if err != nil {
		http.Error(w, "usage unavailable", http.StatusInternalServerError)
		return
	}
	img, err := h.usage.MakeUsageChart(stats, days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(img)
}
