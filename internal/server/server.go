// Package server serves the rendered HTML report for browser preview.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Config struct {
	// HTML is the fully rendered report document.
	HTML string
}

// New builds the preview handler: the report at / and a health probe.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(cfg.HTML))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}
