package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/cti-console/cti-console/internal/observability"
	"github.com/cti-console/cti-console/internal/shared"
)

// requestsPerMinute is the global per-IP budget. Export routes add a tighter limit.
const requestsPerMinute = 120

const defaultRequestTimeout = 30 * time.Second

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
}

// MiddlewareStack installs the console middleware chain.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	timeout := defaultRequestTimeout
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		timeout = cfg.Config.AppRequestTimeout
	}

	stack := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		sessions(cfg),
		middleware.Recoverer,
		middleware.Timeout(timeout),
		secureHeaders(cfg),
		middleware.Compress(5),
		httprate.Limit(requestsPerMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)),
		csrfGuard(cfg),
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware)
	}
	return stack
}

// sessions loads the session into the request context and saves it right
// before the first header write, so redirects carry their flashes.
func sessions(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := cfg.SessionManager.Load(r.Context(), r)
			if err != nil {
				cfg.Logger.Error("failed to load session", slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			r = r.WithContext(shared.ContextWithSession(r.Context(), sess))
			next.ServeHTTP(&committingWriter{ResponseWriter: w, cfg: cfg, req: r, sess: sess}, r)
		})
	}
}

type committingWriter struct {
	http.ResponseWriter
	cfg       MiddlewareConfig
	req       *http.Request
	sess      *shared.Session
	committed bool
}

func (w *committingWriter) WriteHeader(status int) {
	if !w.committed {
		w.committed = true
		if err := w.cfg.SessionManager.Commit(w.req.Context(), w.ResponseWriter, w.req, w.sess); err != nil {
			w.cfg.Logger.Error("failed to save session", slog.Any("error", err))
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *committingWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

func (w *committingWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func secureHeaders(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "camera=(), microphone=(), geolocation=()",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:",
		SSLRedirect:           cfg.Config.IsProduction(),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sec.Process(w, r); err != nil {
				cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// csrfGuard rejects state-changing requests without the session token. The
// token arrives in the form or, for scripted calls, in X-CSRF-Token.
func csrfGuard(cfg MiddlewareConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			token := r.PostFormValue(shared.CSRFFormField)
			if token == "" {
				token = r.Header.Get("X-CSRF-Token")
			}
			if err := cfg.CSRFManager.VerifyToken(r.Context(), shared.SessionFromContext(r.Context()), token); err != nil {
				cfg.Logger.Warn("csrf validation failed", slog.String("path", r.URL.Path), slog.Any("error", err))
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
