package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jvinniec/di-milestoneproj/internal/common"
	"github.com/Jvinniec/di-milestoneproj/internal/plotter"
	"github.com/Jvinniec/di-milestoneproj/internal/storage"
)

type stubSubmitter struct {
	got url.Values
	res plotter.Result
}

func (s *stubSubmitter) HandleSubmission(_ context.Context, form url.Values) plotter.Result {
	s.got = form
	return s.res
}

type stubRecorder struct {
	storage.NoopRecorder
	stats map[string]*storage.UsageStats
	err   error
}

func (r stubRecorder) UsageStats(time.Time) (map[string]*storage.UsageStats, error) {
	return r.stats, r.err
}

func newTestMux(sub Submitter, rec storage.Recorder) *http.ServeMux {
	return NewHTTPMux(NewHandlers(sub, rec, common.NewSilentLogger()))
}

func serve(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestIndexRendersForm(t *testing.T) {
	mux := newTestMux(&stubSubmitter{}, nil)
	for _, path := range []string{"/", "/index"} {
		w := serve(mux, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, w.Code, path)
		body := w.Body.String()
		assert.Contains(t, body, `name="sname"`)
		assert.Contains(t, body, `name="plotinfo"`)
		assert.Contains(t, body, `value="closeAdj"`)
		assert.Contains(t, body, `name="nasdaq"`)
		assert.Contains(t, body, `name="colorblind"`)
		assert.NotContains(t, body, `id="chart"`)
	}
}

func TestSubmitEmbedsResult(t *testing.T) {
	sub := &stubSubmitter{res: plotter.Result{
		Script: `<script type="application/json" id="x-meta">{}</script>`,
		Markup: `<div class="stockplot" id="x"></div>`,
		Notes:  []string{"note <b>"},
	}}
	mux := newTestMux(sub, nil)

	form := url.Values{"sname": {"AAPL"}, "djia": {"1"}, "plotinfo": {"close"}}
	req := httptest.NewRequest(http.MethodPost, "/index", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := serve(mux, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AAPL", sub.got.Get("sname"))
	body := w.Body.String()
	assert.Contains(t, body, `<div class="stockplot" id="x"></div>`)
	assert.Contains(t, body, `<script type="application/json" id="x-meta">{}</script>`)
	assert.Contains(t, body, "note &lt;b&gt;")
	assert.Contains(t, body, `value="AAPL"`)
	assert.Contains(t, body, `<option value="close" selected>`)
	assert.Regexp(t, `name="djia" value="1"\s+checked`, body)
}

func TestAboutAndHealthz(t *testing.T) {
	mux := newTestMux(&stubSubmitter{}, nil)
	assert.Equal(t, http.StatusOK, serve(mux, httptest.NewRequest(http.MethodGet, "/about", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(mux, httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestStatsDisabledWithoutRecorder(t *testing.T) {
	mux := newTestMux(&stubSubmitter{}, nil)
	assert.Equal(t, http.StatusNotFound, serve(mux, httptest.NewRequest(http.MethodGet, "/stats", nil)).Code)
	assert.Equal(t, http.StatusNotFound, serve(mux, httptest.NewRequest(http.MethodGet, "/stats.png", nil)).Code)
}

func TestStats(t *testing.T) {
	rec := stubRecorder{stats: map[string]*storage.UsageStats{
		"candlestick": {Count: 2, Symbols: map[string]int{"AAPL": 2}},
	}}
	mux := newTestMux(&stubSubmitter{}, rec)

	w := serve(mux, httptest.NewRequest(http.MethodGet, "/stats?days=30", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Total submissions: 2")
	assert.Contains(t, w.Body.String(), `/stats.png?days=30`)

	w = serve(mux, httptest.NewRequest(http.MethodGet, "/stats.png", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestStatsQueryError(t *testing.T) {
	mux := newTestMux(&stubSubmitter{}, stubRecorder{err: errors.New("db locked")})
	assert.Equal(t, http.StatusInternalServerError, serve(mux, httptest.NewRequest(http.MethodGet, "/stats", nil)).Code)
}
