package services

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interview-coach/models"
)

type AuthEndpoints struct {
	authService  *AuthService
	loginLimiter *RateLimiter
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserOut is the public view of a user.
type UserOut struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserOut(u *models.User) UserOut {
	return UserOut{ID: u.ID, Name: u.Name, Email: u.Email}
}

func NewAuthEndpoints(authService *AuthService, loginLimiter *RateLimiter) *AuthEndpoints {
	return &AuthEndpoints{
		authService:  authService,
		loginLimiter: loginLimiter,
	}
}

// RegisterPublicRoutes mounts the routes that need no token.
func (e *AuthEndpoints) RegisterPublicRoutes(r chi.Router) {
	r.Post("/register", e.RegisterHandler)
	r.Post("/login", e.LoginHandler)
}

// RegisterRoutes mounts the routes behind the auth middleware.
func (e *AuthEndpoints) RegisterRoutes(r chi.Router) {
	r.Post("/logout", e.LogoutHandler)
	r.Get("/me", e.MeHandler)
}

func (e *AuthEndpoints) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := e.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		slog.Warn("Registration failed", "error", err, "email", req.Email)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserOut(user))
}

func (e *AuthEndpoints) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	ip := clientIP(r)
	if !e.loginLimiter.Allow(r.Context(), "login:"+ip+":"+req.Email) {
		slog.Warn("Login rate limited", "client_ip", ip, "email", req.Email)
		writeError(w, ErrRateLimited)
		return
	}

	token, err := e.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("Login failed", "error", err, "email", req.Email)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

func (e *AuthEndpoints) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	if err := e.authService.Logout(r.Context(), tokenFromContext(r.Context())); err != nil {
		slog.Error("Logout failed", "error", err, "user_id", user.ID)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (e *AuthEndpoints) MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	writeJSON(w, http.StatusOK, newUserOut(user))
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
