// Package web exposes the registry and storage operations over HTTP
// for proxy-mode deployments.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/opsml/opsml/adapters/metrics"
	"github.com/opsml/opsml/app"
	"github.com/opsml/opsml/config"
	"github.com/opsml/opsml/ports"
)

// Handler serves the opsml HTTP API.
type Handler struct {
	registry  *app.RegistryService
	artifacts *app.ArtifactService
	storage   config.StorageConfig
	limits    config.LimitsConfig
	auth      config.AuthConfig
	hasher    ports.Hasher
	metrics   *metrics.Collector
	logger    zerolog.Logger
}

// Deps contains dependencies for the API handler.
type Deps struct {
	Registry  *app.RegistryService
	Artifacts *app.ArtifactService
	Storage   config.StorageConfig
	Limits    config.LimitsConfig
	Auth      config.AuthConfig
	Hasher    ports.Hasher
	Metrics   *metrics.Collector
	Logger    zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		registry:  deps.Registry,
		artifacts: deps.Artifacts,
		storage:   deps.Storage,
		limits:    deps.Limits,
		auth:      deps.Auth,
		hasher:    deps.Hasher,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// Router returns the API router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.instrument)

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	r.Get("/settings", h.Settings)
	r.Post("/check_uid", h.CheckUID)
	r.Post("/version", h.Version)
	r.Post("/list", h.List)
	r.Post("/list_files", h.ListFiles)
	r.Post("/download_model", h.DownloadModel)
	r.Post("/download_file", h.DownloadFile)

	// Mutating endpoints sit behind token auth when it is enabled.
	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Post("/create", h.Create)
		r.Post("/update", h.Update)
		r.Post("/upload", h.Upload)
	})

	return r
}

// Healthz reports server liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
