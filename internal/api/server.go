// Package api provides the HTTP API server and handlers for the book review service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bookreviewapp/bookreview-server/internal/http/response"
	"github.com/bookreviewapp/bookreview-server/internal/ratelimit"
)

const greeting = "Thanks for book review"

// Options configures the HTTP surface.
type Options struct {
	// AllowedOrigins enables CORS for the listed origins; empty disables it.
	AllowedOrigins []string
	// CookieSecure sets the Secure attribute on the auth cookie.
	CookieSecure bool
	// StrictTokens rejects requests carrying an invalid token instead of
	// treating them as anonymous.
	StrictTokens bool
	// AuthRateLimit is the number of signup/login attempts allowed per
	// minute per client IP, with AuthRateBurst extra. Zero disables limiting.
	AuthRateLimit int
	AuthRateBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	opts        Options
	router      *chi.Mux
	api         huma.API
	authLimiter *ratelimit.KeyedRateLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		services: services,
		opts:     opts,
		router:   chi.NewRouter(),
		logger:   logger,
	}
	if opts.AuthRateLimit > 0 {
		s.authLimiter = ratelimit.New(ratelimit.PerMinute(opts.AuthRateLimit), max(opts.AuthRateBurst, 1))
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Book Review API", "1.0.0")
	humaConfig.Info.Description = "Books, reviews and ratings."
	// No $schema links in response bodies.
	humaConfig.CreateHooks = nil
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookie": {
			Type: "apiKey",
			In:   "cookie",
			Name: tokenCookieName,
		},
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.authLimiter != nil {
		s.authLimiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	if len(s.opts.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           int((5 * time.Minute).Seconds()),
		}))
	}
	s.router.Use(s.authenticate)

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, "Method not allowed", s.logger)
	})
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		response.Text(w, greeting)
	})

	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerBookRoutes()
	s.registerReviewRoutes()
}
