package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/platinummonkey/hrms-lite/pkg/config"
	"github.com/platinummonkey/hrms-lite/pkg/database"
	"github.com/platinummonkey/hrms-lite/pkg/frontend"
	"github.com/platinummonkey/hrms-lite/pkg/httputil"
	"github.com/platinummonkey/hrms-lite/pkg/middleware"
	"github.com/platinummonkey/hrms-lite/pkg/observability"
	"github.com/platinummonkey/hrms-lite/pkg/router"
	"github.com/platinummonkey/hrms-lite/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

// IndexTemplate is rendered at the site root
const IndexTemplate = "index.html"

// StaticRoute labels requests served from STATIC_URL in metrics
const StaticRoute = "static"

// Version is reported by the health endpoints
var Version = "dev"

// Deps are the collaborators the server is wired to. All are optional.
type Deps struct {
	// Admin serves everything under /admin/
	Admin http.Handler
	// API is the employees route table serving everything under /api/
	API http.Handler

	DB     *database.DB
	Redis  *redis.Client
	Logger *observability.Logger
	// Registry receives the HTTP and template metrics; a fresh registry is
	// created when nil.
	Registry *prometheus.Registry
}

// Server is the application HTTP server plus its health/metrics listener
type Server struct {
	cfg      *config.Config
	logger   *observability.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	renderer *frontend.Renderer
	routes   *router.Table
	health   *observability.HealthChecker
	handler  http.Handler
}

// New assembles the route table and the middleware pipeline
func New(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = observability.NewLogger(cfg.Observability.LogLevel, nil)
	}
	registry := deps.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  observability.NewMetrics(registry),
		health:   observability.NewHealthChecker(Version),
	}

	s.renderer = frontend.NewRenderer(frontend.RendererOptions{
		Dirs:      cfg.Templates.Dirs,
		CacheSize: cfg.Templates.CacheSize,
		NoCache:   cfg.Security.Debug,
		StaticURL: cfg.Static.URL,
		Metrics:   s.metrics,
	})

	admin := deps.Admin
	if admin == nil {
		admin = router.Unavailable("admin")
	}
	api := deps.API
	if api == nil {
		api = router.Unavailable("employees")
	}
	index := frontend.Handler(s.renderer, IndexTemplate, frontend.HandlerOptions{
		Debug:     cfg.Security.Debug,
		StaticURL: cfg.Static.URL,
	})

	routes, err := router.New(router.Routes(index, admin, api), router.Options{
		AppendSlash: cfg.Security.AppendSlash,
		Debug:       cfg.Security.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build route table: %w", err)
	}
	s.routes = routes

	if deps.DB != nil {
		s.health.AddCheck("database", true, deps.DB.HealthCheck)
	}
	if deps.Redis != nil {
		s.health.AddCheck("redis", cfg.Session.RedisURL != "", observability.RedisCheck(deps.Redis))
	}

	s.handler = s.pipeline(deps.Redis)(routes)
	if cfg.Observability.OTel.Enabled {
		s.handler = otelhttp.NewHandler(s.handler, cfg.Observability.OTel.ServiceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + s.routeName(r)
			}),
		)
	}

	return s, nil
}

// pipeline returns the request middleware, outermost first
func (s *Server) pipeline(redisClient *redis.Client) func(http.Handler) http.Handler {
	cfg := s.cfg
	debug := cfg.Security.Debug

	staticDirs := []string{cfg.Static.Root}
	if debug {
		staticDirs = append(staticDirs, cfg.Static.Dirs...)
	}

	store := session.NewStore(session.Options{
		CookieName: cfg.Session.CookieName,
		MaxAge:     cfg.Session.CookieAge,
		Secure:     cfg.Session.CookieSecure,
		SecretKey:  cfg.Security.SecretKey,
	}, redisClient)

	return httputil.Chain(
		middleware.RequestID,
		middleware.Logging(s.logger),
		middleware.Recovery(debug),
		observability.HTTPMetricsMiddleware(s.metrics, s.routeName),
		middleware.Security(middleware.SecurityOptions{
			HSTSSeconds:         cfg.Security.HSTSSeconds,
			SSLRedirect:         cfg.Security.SSLRedirect,
			TrustForwardedProto: cfg.Security.TrustForwardedProto,
		}),
		middleware.Static(middleware.StaticOptions{URL: cfg.Static.URL, Dirs: staticDirs}),
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowCredentials: cfg.CORS.AllowCredentials,
		}),
		middleware.Sessions(store, cfg.Session.CookieName),
		middleware.AllowedHosts(cfg.Security.AllowedHosts, debug),
		middleware.CSRF(middleware.CSRFOptions{
			CookieName:          cfg.Security.CSRFCookieName,
			CookieSecure:        cfg.Session.CookieSecure,
			TrustedOrigins:      cfg.Security.CSRFTrustedOrigins,
			ExemptPrefixes:      []string{router.APIPrefix},
			TrustForwardedProto: cfg.Security.TrustForwardedProto,
			Debug:               debug,
		}),
		middleware.Authentication,
		middleware.Messages,
		middleware.XFrameOptions(cfg.Security.XFrameOptions),
	)
}

func (s *Server) routeName(r *http.Request) string {
	if strings.HasPrefix(r.URL.Path, s.cfg.Static.URL) {
		return StaticRoute
	}
	return s.routes.RouteName(r)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Routes returns the route table
func (s *Server) Routes() *router.Table { return s.routes }

// Renderer returns the page template renderer
func (s *Server) Renderer() *frontend.Renderer { return s.renderer }

// Metrics returns the server's metrics
func (s *Server) Metrics() *observability.Metrics { return s.metrics }

// HealthHandler serves /health, /health/live, /health/ready and, when
// enabled, /metrics.
func (s *Server) HealthHandler() http.Handler {
	mux := http.NewServeMux()
	observability.RegisterHealthRoutes(mux, s.health)
	if s.cfg.Observability.MetricsEnabled {
		observability.RegisterMetricsEndpoint(mux, s.registry)
	}
	return mux
}

// Run listens on the configured ports and serves until ctx is cancelled,
// then shuts both listeners down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := s.cfg.Server
	appLn, err := net.Listen("tcp", net.JoinHostPort(srv.Host, srv.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on %s:%s: %w", srv.Host, srv.Port, err)
	}
	healthLn, err := net.Listen("tcp", net.JoinHostPort(srv.Host, srv.HealthPort))
	if err != nil {
		appLn.Close()
		return fmt.Errorf("failed to listen on %s:%s: %w", srv.Host, srv.HealthPort, err)
	}
	return s.Serve(ctx, appLn, healthLn)
}

// Serve is Run on caller-provided listeners
func (s *Server) Serve(ctx context.Context, appLn, healthLn net.Listener) error {
	srv := s.cfg.Server
	app := &http.Server{
		Handler:      s,
		ReadTimeout:  srv.ReadTimeout,
		WriteTimeout: srv.WriteTimeout,
		IdleTimeout:  srv.IdleTimeout,
		ErrorLog:     s.logger.StdLogger("http"),
	}
	health := &http.Server{
		Handler:      s.HealthHandler(),
		ReadTimeout:  srv.ReadTimeout,
		WriteTimeout: srv.WriteTimeout,
		ErrorLog:     s.logger.StdLogger("health"),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.WithField("addr", appLn.Addr().String()).Info("serving application")
		if err := app.Serve(appLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("application server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		s.logger.WithField("addr", healthLn.Addr().String()).Info("serving health and metrics")
		if err := health.Serve(healthLn); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down HTTP servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), srv.ShutdownTimeout)
		defer cancel()
		return errors.Join(app.Shutdown(shutdownCtx), health.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
