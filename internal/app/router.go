package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	dashboardhttp "github.com/cti-console/cti-console/internal/dashboard/http"
	exporthttp "github.com/cti-console/cti-console/internal/export/http"
	lookuphttp "github.com/cti-console/cti-console/internal/lookup/http"
	"github.com/cti-console/cti-console/internal/observability"
	"github.com/cti-console/cti-console/internal/platform/httpx"
	"github.com/cti-console/cti-console/internal/shared"
	"github.com/cti-console/cti-console/web"
)

// HealthFunc reports component status for /healthz.
type HealthFunc func() map[string]string

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	CSRFManager      *shared.CSRFManager
	DashboardHandler *dashboardhttp.Handler
	LookupHandler    *lookuphttp.Handler
	ExportHandler    *exporthttp.Handler
	Metrics          *observability.Metrics
	Health           HealthFunc
}

// NewRouter constructs the chi.Router with console defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		// Static assets skip the session and CSRF stack.
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]string{"status": "ok"}
		if params.Health != nil {
			for k, v := range params.Health() {
				body[k] = v
			}
		}
		httpx.JSON(w, http.StatusOK, body)
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		for _, mw := range MiddlewareStack(MiddlewareConfig{
			Logger:         params.Logger,
			Config:         params.Config,
			SessionManager: params.SessionManager,
			CSRFManager:    params.CSRFManager,
			Metrics:        params.Metrics,
		}) {
			r.Use(mw)
		}
		r.Use(chimw.Logger)

		params.DashboardHandler.MountRoutes(r)
		params.LookupHandler.MountRoutes(r)
		params.ExportHandler.MountRoutes(r)
	})

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
// Static assets are cached for 1 hour in the browser.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
