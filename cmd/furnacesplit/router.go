package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"furnacesplit.ai/internal/sim/world"
	"furnacesplit.ai/internal/transport/ws"
)

func newRouter(w *world.World, reg *prometheus.Registry, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	r.Get("/v1/ws", ws.NewServer(w, logger).Handler())

	r.Route("/v1/ovens", func(r chi.Router) {
		r.Get("/", func(rw http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			ovens, err := w.RequestOvens(ctx)
			if err != nil {
				writeError(rw, http.StatusServiceUnavailable, err)
				return
			}
			writeJSON(rw, http.StatusOK, map[string]any{"tick": w.CurrentTick(), "ovens": ovens})
		})
		r.Get("/{id}/estimate", func(rw http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()
			view, err := w.RequestEstimate(ctx, chi.URLParam(req, "id"))
			switch {
			case errors.Is(err, world.ErrOvenNotFound):
				writeError(rw, http.StatusNotFound, err)
			case err != nil:
				writeError(rw, http.StatusServiceUnavailable, err)
			default:
				writeJSON(rw, http.StatusOK, view)
			}
		})
	})
	return r
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func writeError(rw http.ResponseWriter, status int, err error) {
	writeJSON(rw, status, map[string]string{"error": err.Error()})
}
