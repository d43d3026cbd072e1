package services

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/krshsl/interview-coach/llm"
	"github.com/krshsl/interview-coach/repository"
	ws "github.com/krshsl/interview-coach/websocket"
	"github.com/redis/go-redis/v9"
)

// Server holds all server dependencies
type Server struct {
	config *Config
	repo   repository.Store
	redis  *redis.Client

	authService      *AuthService
	sessionService   *SessionService
	authEndpoints    *AuthEndpoints
	resumeEndpoints  *ResumeEndpoints
	sessionEndpoints *SessionEndpoints
	agentEndpoints   *AgentEndpoints
	chatEndpoints    *ChatEndpoints
	websocketHandler *WebSocketHandler
	wsHub            *ws.Hub
}

// NewServer wires every service on top of the store and generator.
// redisClient may be nil.
func NewServer(config *Config, repo repository.Store, generator llm.Generator, redisClient *redis.Client) *Server {
	s := &Server{
		config: config,
		repo:   repo,
		redis:  redisClient,
		wsHub:  ws.NewHub(),
	}

	s.authService = NewAuthService(repo, config.JWT.Secret, NewTokenStore(redisClient))
	s.authEndpoints = NewAuthEndpoints(s.authService,
		NewRateLimiter(redisClient, config.RateLimit.LoginLimit, config.RateLimit.LoginWindow))

	s.sessionService = NewSessionService(repo, generator)
	s.sessionService.SetNotifier(s.wsHub)

	s.resumeEndpoints = NewResumeEndpoints(NewResumeService(repo))
	s.sessionEndpoints = NewSessionEndpoints(s.sessionService)
	s.agentEndpoints = NewAgentEndpoints()
	s.chatEndpoints = NewChatEndpoints(generator)
	s.websocketHandler = NewWebSocketHandler(s.sessionService, s.wsHub, config.Server.FrontendURL)

	return s
}

// SessionService exposes the conversation engine, used by the seeder.
func (s *Server) SessionService() *SessionService {
	return s.sessionService
}

// SetupRoutes configures all HTTP routes
func (s *Server) SetupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(s.config.Server.FrontendURL),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.healthHandler)

	s.authEndpoints.RegisterPublicRoutes(r)

	r.Group(func(r chi.Router) {
		r.Use(s.authService.Middleware)
		s.authEndpoints.RegisterRoutes(r)
		s.resumeEndpoints.RegisterRoutes(r)
		r.Route("/session", func(r chi.Router) {
			s.sessionEndpoints.RegisterRoutes(r)
			s.websocketHandler.RegisterRoutes(r)
		})
		s.agentEndpoints.RegisterRoutes(r)
		s.chatEndpoints.RegisterRoutes(r)
	})

	return r
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() {
	port := s.config.Server.Port
	if port == "" {
		port = "8080"
	}

	go s.wsHub.Run()
	defer s.wsHub.Stop()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.SetupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		slog.Info("Starting server", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

func splitOrigins(allowedOriginsStr string) []string {
	var origins []string
	for _, o := range strings.Split(allowedOriginsStr, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// CheckOrigin validates the origin of WebSocket connections to prevent CSRF attacks
func CheckOrigin(r *http.Request, allowedOriginsStr string) bool {
	origin := r.Header.Get("Origin")

	// If no allowed origins are configured, deny all requests for security
	if allowedOriginsStr == "" {
		slog.Warn("WebSocket connection rejected: no allowed origins configured", "origin", origin)
		return false
	}

	for _, allowed := range splitOrigins(allowedOriginsStr) {
		if allowed == origin {
			slog.Info("WebSocket connection accepted", "origin", origin)
			return true
		}
	}

	slog.Warn("WebSocket connection rejected: origin not allowed", "origin", origin, "allowed_origins", allowedOriginsStr)
	return false
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Database: "up", Redis: "not configured"}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		resp.Database = "down"
		resp.Status = "degraded"
	}
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			resp.Redis = "down"
			resp.Status = "degraded"
		} else {
			resp.Redis = "up"
		}
	}

	writeJSON(w, http.StatusOK, resp)
	slog.Info("Health check", "status", resp.Status, "database", resp.Database, "redis", resp.Redis)
}
