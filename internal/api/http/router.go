package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	auth "github.com/mind-engage/worksheets/internal/auth/middleware"
	"github.com/mind-engage/worksheets/internal/metrics"
	"github.com/mind-engage/worksheets/internal/ratelimit"
	"github.com/mind-engage/worksheets/internal/rbac"
	"github.com/mind-engage/worksheets/internal/worksheet"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Deps struct {
	Service *worksheet.Service
	Auth    *auth.AuthService
	PDF     PDFSource
	DB      Pinger
	Log     *zap.Logger

	PublicURL   string
	CORSOrigins []string
	// AllowClaimFallback trusts the token role when the profile row is
	// missing. Offline mode only.
	AllowClaimFallback bool

	ScoreLimiter    *ratelimit.Limiter // POST /score, keyed by IP
	GenerateLimiter *ratelimit.Limiter // POST /worksheets/generate, keyed by subject
}

func NewRouter(d Deps) chi.Router {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, AccessLog(d.Log), middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// ops
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", ReadyHandler(d.DB))
	r.Handle("/metrics", metrics.Handler())

	// SEO
	r.Get("/robots.txt", RobotsHandler(d.PublicURL))
	r.Get("/sitemap.xml", SitemapHandler(d.Service, d.PublicURL))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Post("/auth/register", RegisterHandler(d.Service, d.Auth))
		r.Post("/auth/login", LoginHandler(d.Service, d.Auth))

		score := r.With()
		if d.ScoreLimiter != nil {
			score = r.With(d.ScoreLimiter.Middleware(ratelimit.ByIP))
		}
		score.Post("/score", ScoreMarkupHandler(d.Service))

		r.Get("/library", LibraryHandler(d.Service))
		r.Get("/library/{slug}", LibraryItemHandler(d.Service))
	})

	// Worksheets: public when published, so auth is optional and the
	// service decides visibility.
	r.Route("/worksheets", func(wr chi.Router) {
		wr.Use(auth.OptionalAuth(d.Auth))
		wr.Use(auth.AttachRoleFromStore(d.Service.Store(), d.AllowClaimFallback, d.Log))

		// generation calls an LLM and may run well past the default timeout
		gen := wr.With(rbac.Require(rbac.PermWorksheetGenerate))
		if d.GenerateLimiter != nil {
			gen = gen.With(d.GenerateLimiter.Middleware(ratelimit.BySubject(func(r *http.Request) string {
				return auth.SubjectFromContext(r.Context())
			})))
		}
		gen.With(middleware.Timeout(3*time.Minute)).Post("/generate", GenerateHandler(d.Service))

		wr.Group(func(wr chi.Router) {
			wr.Use(middleware.Timeout(60 * time.Second))
			wr.Get("/{id}", GetWorksheetHandler(d.Service))
			wr.Post("/{id}/score", ScoreWorksheetHandler(d.Service))
			wr.Get("/{id}/pdf", PDFHandler(d.Service, d.PDF))
			wr.With(rbac.Require(rbac.PermWorksheetView)).
				Get("/{id}/attempts", AttemptsHandler(d.Service))
			wr.With(rbac.Require(rbac.PermWorksheetPublish)).
				Post("/{id}/publish", PublishHandler(d.Service, true))
			wr.With(rbac.Require(rbac.PermWorksheetPublish)).
				Delete("/{id}/publish", PublishHandler(d.Service, false))
			wr.With(rbac.Require(rbac.PermWorksheetDeleteOwn)).
				Delete("/{id}", DeleteWorksheetHandler(d.Service))
		})
	})

	r.Route("/me", func(mr chi.Router) {
		mr.Use(auth.JWTMiddleware(d.Auth))
		mr.Use(auth.AttachRoleFromStore(d.Service.Store(), d.AllowClaimFallback, d.Log))
		mr.Use(middleware.Timeout(30 * time.Second))
		mr.Get("/worksheets", MyWorksheetsHandler(d.Service))
		mr.Post("/password", ChangePasswordHandler(d.Service))
		mr.With(rbac.Require(rbac.PermUsageView)).Get("/usage", UsageHandler(d.Service))
	})

	return r
}

// ReadyHandler reports 503 until the database answers a ping.
func ReadyHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				logFrom(r).Warn("readiness ping failed", zap.Error(err))
				writeError(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
