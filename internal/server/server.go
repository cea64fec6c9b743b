package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/blesswinsamuel/auth0-db/internal/authentication"
	"github.com/blesswinsamuel/auth0-db/internal/config"
)

// Authenticator is the set of Auth0 database operations exposed over HTTP
type Authenticator interface {
	Login(ctx context.Context, req authentication.LoginRequest) (interface{}, error)
	Signup(ctx context.Context, req authentication.SignupRequest) (interface{}, error)
	ChangePassword(ctx context.Context, req authentication.ChangePasswordRequest) (interface{}, error)
}

// Server contains router and handler methods
type Server struct {
	router *mux.Router
	logger zerolog.Logger
	config *config.Config
	auth   Authenticator
	srv    *http.Server
}

// NewServer creates a new server object and builds router
func NewServer(cfg *config.Config, logger zerolog.Logger, auth Authenticator) *Server {
	s := &Server{
		router: mux.NewRouter(),
		logger: logger,
		config: cfg,
		auth:   auth,
	}
	s.srv = &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.HttpPort), Handler: s}

	s.buildRoutes()

	err := s.router.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		pathTemplate, _ := route.GetPathTemplate()
		methods, _ := route.GetMethods()
		s.logger.Debug().Fields([]interface{}{
			"pathtemplate", pathTemplate,
			"method", strings.Join(methods, ","),
		}).Msg("route")
		return nil
	})

	if err != nil {
		s.logger.Error().Err(err).Msg("")
	}

	return s
}

// Start listens until Shutdown is called
func (s *Server) Start() {
	s.logger.Info().Msgf("Listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Panic().Err(err).Msg("Failed to start server")
	}
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) buildRoutes() {
	s.router.Use(prometheusMiddleware)
	s.router.Use(s.loggerMiddleware)

	s.router.HandleFunc("/login", s.loginHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/signup", s.signupHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/change-password", s.changePasswordHandler).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.Handler())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) loggerMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Create logger
		logger := s.logger.With().Fields(map[string]interface{}{
			"handler":   r.URL.Path,
			"method":    r.Method,
			"source_ip": r.RemoteAddr,
		}).Logger()

		// Log request
		logger.Debug().Msg("Received request")

		r = r.WithContext(context.WithValue(r.Context(), loggerCtx{}, logger))

		h.ServeHTTP(w, r)
	})
}

type loggerCtx struct{}

func getLogger(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerCtx{}).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}
