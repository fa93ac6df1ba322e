package server

import (
	"net/http"
	"time"
)

func NewHTTPMux(h *Handlers) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /index", h.Index)
	mux.HandleFunc("POST /index", h.Submit)
	mux.HandleFunc("GET /about", h.About)
	mux.HandleFunc("GET /stats", h.Stats)
	mux.HandleFunc("GET /stats.png", h.StatsChart)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
	return mux
}

// NewHTTPServer wraps mux with the configured timeouts.
func NewHTTPServer(addr string, mux http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
	}
}
