package app

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/munim-pos/munim/internal/identity"
	"github.com/munim-pos/munim/internal/platform/httpx"
	"github.com/munim-pos/munim/internal/shared"
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger   *slog.Logger
	Config   *Config
	Identity *identity.Service
}

// MiddlewareStack installs the common middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Config != nil && cfg.Config.IsProduction(),
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
	})

	timeout := 30 * time.Second
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	return []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		middleware.Recoverer,
		middleware.Timeout(timeout),
		func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := secureMiddleware.Process(w, r); err != nil {
					cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
					return
				}
				next.ServeHTTP(w, r)
			})
		},
		middleware.Compress(5),
		httprate.Limit(120, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
	}
}

// APIKeyAuth authenticates bearer API keys and stashes the actor on the
// request context.
func APIKeyAuth(logger *slog.Logger, svc *identity.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if key == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing API key")
				return
			}
			actor, err := svc.Authenticate(r.Context(), key)
			if err != nil {
				logger.Warn("authentication failed", slog.String("path", r.URL.Path))
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid API key")
				return
			}
			ctx := shared.ContextWithActor(r.Context(), shared.Actor{
				ID:       actor.ID,
				TenantID: actor.TenantID,
				Name:     actor.Name,
				Role:     string(actor.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
