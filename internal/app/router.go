package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/munim-pos/munim/internal/identity"
	"github.com/munim-pos/munim/internal/observability"
	postinghttp "github.com/munim-pos/munim/internal/posting/http"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Identity       *identity.Service
	Metrics        *observability.Metrics
	PostingHandler *postinghttp.Handler
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Metrics.Middleware)

	r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(APIKeyAuth(params.Logger, params.Identity))
		params.PostingHandler.MountRoutes(r)
	})

	return r
}
