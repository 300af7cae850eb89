package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ArtistStudio/config"
	"ArtistStudio/core/auth"
	"ArtistStudio/core/nav"
	"ArtistStudio/logger"
	"ArtistStudio/metrics"
	"ArtistStudio/repository"

	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// Deps collects everything the HTTP layer talks to.
type Deps struct {
	Config    *config.Config
	Users     repository.UserRepository
	Uploads   UploadLister
	Gate      UploadGate
	Nav       *nav.Resolver
	Tokens    *auth.TokenIssuer
	Sessions  SessionStore
	Catalogue Catalogue
	Dashboard DashboardService
	Hub       EventStream
	Metrics   *metrics.Metrics
	// Ready reports whether backing services are reachable; nil means always ready.
	Ready func(ctx context.Context) error
}

// APIHandler 处理所有API请求
type APIHandler struct {
	cfg       *config.Config
	users     repository.UserRepository
	uploads   UploadLister
	gate      UploadGate
	nav       *nav.Resolver
	tokens    *auth.TokenIssuer
	sessions  SessionStore
	catalogue Catalogue
	dashboard DashboardService
	hub       EventStream
	metrics   *metrics.Metrics
	ready     func(ctx context.Context) error
	validate  *validator.Validate
	now       func() time.Time
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(d Deps) *APIHandler {
	return &APIHandler{
		cfg:       d.Config,
		users:     d.Users,
		uploads:   d.Uploads,
		gate:      d.Gate,
		nav:       d.Nav,
		tokens:    d.Tokens,
		sessions:  d.Sessions,
		catalogue: d.Catalogue,
		dashboard: d.Dashboard,
		hub:       d.Hub,
		metrics:   d.Metrics,
		ready:     d.Ready,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		now:       time.Now,
	}
}

// NewRouter builds the full route table.
func NewRouter(h *APIHandler) http.Handler {
	router := mux.NewRouter()
	router.Use(recoverMiddleware, requestLogger, secureHeaders(h.cfg))
	if h.metrics != nil {
		router.Use(h.metrics.Middleware)
		router.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)
	}
	router.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)

	// 用户认证相关的API端点
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/logout", h.AuthMiddleware(h.LogoutHandler)).Methods(http.MethodPost)

	router.HandleFunc("/api/session", h.AuthMiddleware(h.SessionHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/session/artist", h.AuthMiddleware(h.SelectArtistHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/nav", h.AuthMiddleware(h.NavHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/users/me", h.AuthMiddleware(h.ProfileHandler)).Methods(http.MethodGet)

	// 上传
	perMinute := 30
	if h.cfg != nil && h.cfg.UploadRatePerMinute > 0 {
		perMinute = h.cfg.UploadRatePerMinute
	}
	limiter := httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many upload requests")
		}),
	)
	router.Handle("/api/uploads/url",
		h.AuthMiddleware(h.RequireRoute(nav.RouteUpload, limiter(http.HandlerFunc(h.UploadURLHandler)).ServeHTTP))).
		Methods(http.MethodPost)
	router.HandleFunc("/api/uploads", h.AuthMiddleware(h.RequireRoute(nav.RouteUpload, h.ListUploadsHandler))).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/details", h.AuthMiddleware(h.RequireRoute(nav.RouteUpload, h.TrackDetailsHandler))).Methods(http.MethodPost)

	// 艺人资料
	router.HandleFunc("/api/artists", h.AuthMiddleware(h.RequireRoute(nav.RouteArtists, h.ListArtistsHandler))).Methods(http.MethodGet)
	router.HandleFunc("/api/artists", h.AuthMiddleware(h.RequireRoute(nav.RouteNewArtist, h.CreateArtistHandler))).Methods(http.MethodPost)
	router.HandleFunc("/api/artists/{id}", h.AuthMiddleware(h.RequireRoute(nav.RouteArtists, h.GetArtistHandler))).Methods(http.MethodGet)
	router.HandleFunc("/api/artists/{id}", h.AuthMiddleware(h.RequireRoute(nav.RouteArtists, h.UpdateArtistHandler))).Methods(http.MethodPut)

	router.HandleFunc("/api/metrics/dashboard", h.AuthMiddleware(h.RequireRoute(nav.RouteMetrics, h.DashboardHandler))).Methods(http.MethodGet)

	// WebSocket 端点，浏览器无法设置 header，允许 ?token=
	router.HandleFunc("/ws/uploads", h.wsAuthMiddleware(h.UploadEventsHandler)).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	// CORS 在路由匹配之前处理，预检请求没有对应的路由
	return corsMiddleware(h.cfg)(router)
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New creates the HTTP server for cfg.
func New(cfg *config.Config, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("[Server] HTTP 服务启动", logger.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("[Server] 正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("[Server] 服务已停止")
	return nil
}
