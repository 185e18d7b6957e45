package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"gitlab.com/ranfdev/blogmod/internal/domain"
	"gitlab.com/ranfdev/blogmod/internal/metrics"
	"gitlab.com/ranfdev/blogmod/internal/models"
	"gitlab.com/ranfdev/blogmod/internal/render"
)

type Routes struct {
	config       *models.EnvConfig
	panels       *domain.Panels
	audit        domain.Auditor
	auditEnabled bool
	log          zerolog.Logger
	tmpls        *render.Templates
	metrics      *metrics.Metrics
	store        Pinger
}

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

// requestIDLogger tags the request logger with chi's request id.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
			return c.Str("request_id", reqID)
		})
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r)
	})
}

// NewRouter wires the dashboard. audit and store are nil when no database
// is configured.
func NewRouter(
	config *models.EnvConfig,
	panels *domain.Panels,
	audit domain.Auditor,
	store Pinger,
	log zerolog.Logger,
	tmpls *render.Templates,
	m *metrics.Metrics,
) chi.Router {
	r := chi.NewRouter()
	routes := &Routes{
		config:       config,
		panels:       panels,
		audit:        audit,
		auditEnabled: audit != nil,
		log:          log,
		tmpls:        tmpls,
		metrics:      m,
		store:        store,
	}
	if routes.audit == nil {
		routes.audit = domain.NopAuditor
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Send()
	}))
	r.Use(requestIDLogger)
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(m.Middleware)
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	r.Get("/health", routes.GetHealth)
	r.Handle("/static/*", http.StripPrefix("/static/", tmpls.Static()))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(2 * (config.APITimeout + time.Second)))
		r.Use(routes.SessionCtx)
		r.Get("/", routes.AppHandler(routes.GetPanel))
		r.Post("/refresh", routes.AppHandler(routes.PostRefresh))
		r.Post("/theme", routes.AppHandler(routes.PostTheme))
		r.Get("/audit", routes.AppHandler(routes.GetAudit))
		r.Route("/posts", routes.PostsRouter)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		tmpls.RenderHTMLStatus(w, http.StatusNotFound, "404", nil)
	})
	return r
}

// GetHealth also checks the audit database when one is configured.
func (routes *Routes) GetHealth(w http.ResponseWriter, r *http.Request) {
	if routes.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := routes.store.Ping(ctx); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("Database unreachable")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Write([]byte("ok"))
}
