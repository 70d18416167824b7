package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/cottus/pkg/usecase"
	"github.com/secmon-lab/cottus/pkg/utils/logging"
	"github.com/secmon-lab/cottus/pkg/utils/metrics"
)

// maxBodySize bounds JSON request bodies
const maxBodySize = 1 << 20

type Server struct {
	router         *chi.Mux
	uc             *usecase.UseCases
	adminToken     string
	engineerToken  string
	allowedOrigins []string
	secureCookie   bool
}

type Options func(*Server)

// WithAdminToken requires the bearer token on administrator routes
func WithAdminToken(token string) Options {
	return func(s *Server) {
		s.adminToken = token
	}
}

// WithEngineerToken requires the bearer token on engineer routes
func WithEngineerToken(token string) Options {
	return func(s *Server) {
		s.engineerToken = token
	}
}

// WithAllowedOrigins enables CORS with credentials for the given origins
func WithAllowedOrigins(origins []string) Options {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithSecureCookie forces the Secure attribute on auth cookies
func WithSecureCookie(secure bool) Options {
	return func(s *Server) {
		s.secureCookie = secure
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	r.Use(metricsRecorder)
	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Use(bearerTokenMiddleware(s.adminToken))
			r.Post("/companies", createCompanyHandler(s.uc))
			r.Get("/companies", listCompaniesHandler(s.uc))
		})

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", loginHandler(s.uc, s.secureCookie))
			r.Post("/logout", logoutHandler(s.uc, s.secureCookie))
			r.With(tenantAuthMiddleware(s.uc)).Get("/me", meHandler())
		})

		r.Group(func(r chi.Router) {
			r.Use(tenantAuthMiddleware(s.uc))
			r.Get("/conversation", getConversationHandler(s.uc))
			r.Post("/conversation/messages", postMessageHandler(s.uc))
			r.Get("/tickets", listTenantTicketsHandler(s.uc))
			r.Get("/export", exportHandler(s.uc))
		})

		r.Route("/engineer", func(r chi.Router) {
			r.Use(bearerTokenMiddleware(s.engineerToken))
			r.Get("/tickets", listAllTicketsHandler(s.uc))
			r.Post("/tickets/{ticketID}/complete", completeTicketHandler(s.uc))
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.With(r.Context(), logger)

		defer func() {
			logger.Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(ctx))
	})
}

// metricsRecorder counts requests per route pattern
func metricsRecorder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
