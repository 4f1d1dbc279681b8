// Package server provides the HTTP surface of the service: the appearance
// page, the preference API and optional file-based authentication.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/shade/app/enum"
	"github.com/umputun/shade/app/store"
)

//go:generate moq -out mocks/prefstore.go -pkg mocks -skip-ensure -fmt goimports . PrefStore

// Server represents the HTTP server.
type Server struct {
	store   PrefStore
	cfg     Config
	version string
	baseURL string
	auth    *Auth
	tmpl    *template.Template
}

// PrefStore defines the interface for visitor preference storage.
// Defined here (consumer side) to allow different store implementations.
type PrefStore interface {
	Preference(ctx context.Context, visitor string) (enum.Theme, error)
	PreferenceInfo(ctx context.Context, visitor string) (store.PrefInfo, error)
	SetPreference(ctx context.Context, visitor string, theme enum.Theme) error
	DeletePreference(ctx context.Context, visitor string) error
	List(ctx context.Context) ([]store.PrefInfo, error)
	PurgeStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config holds server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Version         string
	AuthFile        string        // path to auth config file (empty = auth disabled)
	AuthHotReload   bool          // watch auth config for changes and reload
	LoginTTL        time.Duration // session duration
	BaseURL         string        // base URL path for reverse proxy (e.g., /shade)

	// limits
	BodySizeLimit    int64 // max request body size in bytes
	RequestsPerSec   int64 // max requests per second
	LoginConcurrency int64 // max concurrent login attempts
}

// New creates a new Server instance.
// ss is the session store for persistent sessions, used only when auth is enabled.
func New(st PrefStore, ss SessionStore, cfg Config) (*Server, error) {
	auth, err := NewAuth(cfg.AuthFile, cfg.LoginTTL, ss)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Server{
		store:   st,
		cfg:     cfg,
		version: cfg.Version,
		baseURL: cfg.BaseURL,
		auth:    auth,
		tmpl:    tmpl,
	}, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.handler(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	// start auth config file watcher if enabled
	if s.auth.Enabled() && s.cfg.AuthHotReload {
		if err := s.auth.StartWatcher(ctx); err != nil {
			return fmt.Errorf("failed to start auth config watcher: %w", err)
		}
		log.Printf("[INFO] auth config hot-reload enabled")
	}

	// start session cleanup goroutine if auth is enabled
	if s.auth.Enabled() {
		s.auth.StartCleanup(ctx)
	}

	// graceful shutdown
	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] shutdown error: %v", err)
		}
	}()

	log.Printf("[DEBUG] started server on %s", s.cfg.Address)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// handler returns the HTTP handler, wrapping routes with base URL support if configured.
func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}
	mux := http.NewServeMux()
	// redirect /base to /base/
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	// strip prefix for all routes under base URL
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes configures and returns the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	// global middleware (applies to all routes)
	router.Use(
		rest.Recoverer(log.Default()),
		rest.RealIP, // must be before Throttle to rate-limit by real client IP
		rest.Throttle(s.requestsPerSec()),
		rest.Trace,
		rest.SizeLimit(s.bodySizeLimit()),
		rest.AppInfo("shade", "umputun", s.version),
		rest.Ping,
	)

	// determine auth middleware for protected routes
	sessionAuth, apiAuth := NoopAuth, NoopAuth
	if s.auth.Enabled() {
		sessionAuth = s.auth.SessionAuth(s.url("/login"))
		apiAuth = s.auth.APIAuth
	}

	// public routes (no auth required)
	router.Handle("GET /static/", s.staticHandler())
	if s.auth.Enabled() {
		router.HandleFunc("GET /login", s.handleLoginForm)
		// stricter throttle on login to prevent brute-force
		router.Group().Route(func(login *routegroup.Bundle) {
			login.Use(rest.Throttle(s.loginConcurrency()))
			login.HandleFunc("POST /login", s.handleLogin)
		})
		router.HandleFunc("POST /logout", s.handleLogout)
	}

	// web UI routes (session auth)
	router.Group().Route(func(web *routegroup.Bundle) {
		web.Use(sessionAuth)
		web.HandleFunc("GET /{$}", s.handleIndex)
		web.HandleFunc("POST /web/theme", s.handleThemeToggle)
	})

	// preference API routes (session auth, 401 instead of redirect)
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(apiAuth)
		api.HandleFunc("GET /preference", s.handleGetPreference)
		api.HandleFunc("PUT /preference", s.handleSetPreference)
		api.HandleFunc("DELETE /preference", s.handleDeletePreference)
		api.HandleFunc("POST /preference/toggle", s.handleTogglePreference)
		api.HandleFunc("GET /preferences", s.handleListPreferences)
	})

	return router
}

// bodySizeLimit returns the configured body size limit, or default 64KB if not set.
func (s *Server) bodySizeLimit() int64 {
	if s.cfg.BodySizeLimit > 0 {
		return s.cfg.BodySizeLimit
	}
	return 64 * 1024 // 64KB default, requests carry at most a short form or tiny JSON
}

// requestsPerSec returns the configured requests per second limit, or default 100 if not set.
func (s *Server) requestsPerSec() int64 {
	if s.cfg.RequestsPerSec > 0 {
		return s.cfg.RequestsPerSec
	}
	return 100 // default
}

// loginConcurrency returns the configured login concurrency limit, or default 5 if not set.
func (s *Server) loginConcurrency() int64 {
	if s.cfg.LoginConcurrency > 0 {
		return s.cfg.LoginConcurrency
	}
	return 5 // default
}

// url returns a URL path with the base URL prefix.
func (s *Server) url(path string) string {
	return s.baseURL + path
}

// cookiePath returns the path attribute for cookies set by the server.
func (s *Server) cookiePath() string {
	if s.baseURL == "" {
		return "/"
	}
	return s.baseURL + "/"
}
