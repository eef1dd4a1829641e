package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/comptoir/backoffice/internal/observability"
	"github.com/comptoir/backoffice/internal/shared"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRateLimit      = 120
)

// MiddlewareConfig aggregates dependencies shared by the middleware stack.
type MiddlewareConfig struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Metrics        *observability.Metrics
}

// MiddlewareStack returns the chain applied to every page and API route, outermost
// first.
func MiddlewareStack(cfg MiddlewareConfig) []func(http.Handler) http.Handler {
	stack := []func(http.Handler) http.Handler{
		middleware.RealIP,
		middleware.RequestID,
		cfg.sessions,
		middleware.Recoverer,
		middleware.Timeout(cfg.requestTimeout()),
		cfg.secureHeaders(),
		middleware.Compress(5),
		httprate.Limit(cfg.rateLimit(), time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				cfg.Logger.Warn("rate limited", slog.String("path", r.URL.Path))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			}),
		),
		cfg.csrf,
	}
	if cfg.Metrics != nil {
		stack = append(stack, cfg.Metrics.Middleware)
	}
	return stack
}

// sessions loads the visitor session into the context and saves it just before
// the response header goes out.
func (cfg MiddlewareConfig) sessions(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := cfg.SessionManager.Load(r.Context(), r)
		if err != nil {
			cfg.Logger.Error("load session", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		ctx := shared.ContextWithSession(r.Context(), sess)
		next.ServeHTTP(&sessionWriter{ResponseWriter: w, cfg: cfg, ctx: ctx, sess: sess}, r.WithContext(ctx))
	})
}

type sessionWriter struct {
	http.ResponseWriter
	cfg       MiddlewareConfig
	ctx       context.Context
	sess      *shared.Session
	committed bool
}

func (w *sessionWriter) WriteHeader(status int) {
	if !w.committed {
		w.committed = true
		if err := w.cfg.SessionManager.Commit(w.ctx, w.ResponseWriter, nil, w.sess); err != nil {
			w.cfg.Logger.Warn("commit session", slog.Any("error", err))
		}
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

// csrf rejects state-changing requests without the session's token.
func (cfg MiddlewareConfig) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}
		sess := shared.SessionFromContext(r.Context())
		if err := cfg.CSRFManager.VerifyToken(r.Context(), sess, shared.TokenFromRequest(r)); err != nil {
			cfg.Logger.Warn("csrf validation failed", slog.String("path", r.URL.Path), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (cfg MiddlewareConfig) secureHeaders() func(http.Handler) http.Handler {
	prod := cfg.Config.IsProduction()
	headers := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "same-origin",
		ContentSecurityPolicy: "default-src 'self'; img-src 'self' data:; form-action 'self'",
		SSLRedirect:           prod,
		STSSeconds:            stsSeconds(prod),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := headers.Process(w, r); err != nil {
				cfg.Logger.Warn("secure headers blocked request", slog.Any("error", err))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func stsSeconds(prod bool) int64 {
	if prod {
		return 31536000
	}
	return 0
}

func (cfg MiddlewareConfig) requestTimeout() time.Duration {
	if cfg.Config != nil && cfg.Config.AppRequestTimeout > 0 {
		return cfg.Config.AppRequestTimeout
	}
	return defaultRequestTimeout
}

func (cfg MiddlewareConfig) rateLimit() int {
	if cfg.Config != nil && cfg.Config.RateLimitPerMinute > 0 {
		return cfg.Config.RateLimitPerMinute
	}
	return defaultRateLimit
}
