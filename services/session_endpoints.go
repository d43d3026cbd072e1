package services

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/krshsl/interview-coach/models"
)

type SessionEndpoints struct {
	sessions *SessionService
}

type CreateSessionRequest struct {
	AgentType   models.AgentType `json:"agent_type" validate:"required,oneof=HR TECH_LEAD MENTOR CODE_REVIEW"`
	ResumeID    *string          `json:"resume_id"`
	VacancyText *string          `json:"vacancy_text"`
}

type UserMessageRequest struct {
	Content string `json:"content"`
}

type MessageOut struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type SessionOut struct {
	ID        string               `json:"id"`
	AgentType models.AgentType     `json:"agent_type"`
	Status    models.SessionStatus `json:"status"`
	Messages  []MessageOut         `json:"messages"`
}

func newMessageOut(m *models.Message) MessageOut {
	return MessageOut{ID: m.ID, Role: m.Role, Content: m.Content}
}

func newSessionOut(s *models.Session) SessionOut {
	out := SessionOut{
		ID:        s.ID,
		AgentType: s.AgentType,
		Status:    s.Status,
		Messages:  make([]MessageOut, 0, len(s.Messages)),
	}
	for i := range s.Messages {
		out.Messages = append(out.Messages, newMessageOut(&s.Messages[i]))
	}
	return out
}

func NewSessionEndpoints(sessions *SessionService) *SessionEndpoints {
	return &SessionEndpoints{sessions: sessions}
}

// RegisterRoutes mounts the session routes relative to r, which is
// expected to be the /session subrouter.
func (e *SessionEndpoints) RegisterRoutes(r chi.Router) {
	r.Post("/", e.CreateSessionHandler)
	r.Get("/", e.GetSessionsHandler)
	r.Get("/{id}", e.GetSessionHandler)
	r.Post("/{id}/message", e.SendMessageHandler)
	r.Patch("/{id}/complete", e.CompleteSessionHandler)
}

func (e *SessionEndpoints) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	var req CreateSessionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	session, err := e.sessions.Create(r.Context(), user, req.AgentType, req.ResumeID, req.VacancyText)
	if err != nil {
		slog.Warn("Failed to create session", "error", err, "user_id", user.ID, "agent_type", req.AgentType)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newSessionOut(session))
}

func (e *SessionEndpoints) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	var req UserMessageRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	reply, err := e.sessions.SendMessage(r.Context(), user, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newMessageOut(reply))
}

func (e *SessionEndpoints) GetSessionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	sessions, err := e.sessions.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]SessionOut, 0, len(sessions))
	for i := range sessions {
		out = append(out, newSessionOut(&sessions[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (e *SessionEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	session, err := e.sessions.Get(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSessionOut(session))
}

func (e *SessionEndpoints) CompleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		writeError(w, ErrInvalidToken)
		return
	}

	session, err := e.sessions.Complete(r.Context(), user, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newSessionOut(session))
}
