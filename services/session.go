package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/krshsl/interview-coach/llm"
	"github.com/krshsl/interview-coach/models"
	"github.com/krshsl/interview-coach/repository"
)

// SessionNotifier receives session events after they are committed.
type SessionNotifier interface {
	Publish(sessionID string, event interface{})
}

// SessionEvent is what live subscribers of a session receive.
type SessionEvent struct {
	Type    string         `json:"type"` // "session", "message", "status" or "error"
	Session *SessionOut    `json:"session,omitempty"`
	Message *MessageOut    `json:"message,omitempty"`
	Status  string         `json:"status,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// SessionService runs the interview conversation lifecycle:
// ACTIVE sessions accept messages until they are completed.
type SessionService struct {
	repo      repository.Store
	generator llm.Generator
	notifier  SessionNotifier
	now       func() time.Time
}

func NewSessionService(repo repository.Store, generator llm.Generator) *SessionService {
	return &SessionService{
		repo:      repo,
		generator: generator,
		now:       time.Now,
	}
}

// SetNotifier attaches a subscriber for committed session events.
func (s *SessionService) SetNotifier(n SessionNotifier) {
	s.notifier = n
}

// Create starts a session and stores the agent's opening greeting as its
// first message.
func (s *SessionService) Create(ctx context.Context, user *models.User, agentType models.AgentType, resumeID, vacancyText *string) (*models.Session, error) {
	if !agentType.Valid() {
		return nil, ErrInvalidAgentType
	}
	if resumeID != nil && *resumeID == "" {
		resumeID = nil
	}
	if vacancyText != nil && *vacancyText == "" {
		vacancyText = nil
	}

	session := &models.Session{
		ID:          uuid.New().String(),
		UserID:      user.ID,
		ResumeID:    resumeID,
		AgentType:   agentType,
		Status:      models.SessionActive,
		VacancyText: vacancyText,
	}

	err := s.repo.WithTransaction(ctx, func(tx repository.Store) error {
		if resumeID != nil {
			resume, err := tx.GetResume(ctx, *resumeID, user.ID)
			if err != nil {
				return fmt.Errorf("failed to get resume: %w", err)
			}
			if resume == nil {
				return ErrResumeNotFound
			}
		}

		if err := tx.CreateSession(ctx, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		greeting := &models.Message{
			SessionID: session.ID,
			TurnOrder: 1,
			Role:      models.RoleAssistant,
			Content:   OpeningMessage(agentType),
			CreatedAt: s.now(),
		}
		if err := tx.CreateMessage(ctx, greeting); err != nil {
			return fmt.Errorf("failed to save opening message: %w", err)
		}
		session.Messages = []models.Message{*greeting}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Interview session created", "session_id", session.ID, "user_id", user.ID, "agent_type", agentType)
	return session, nil
}

// SendMessage appends the user's message and the agent's reply in one
// transaction and returns the reply. Nothing is stored if any step fails.
func (s *SessionService) SendMessage(ctx context.Context, user *models.User, sessionID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyMessage
	}

	var userMsg, reply *models.Message
	err := s.repo.WithTransaction(ctx, func(tx repository.Store) error {
		session, err := tx.LockSession(ctx, sessionID, user.ID)
		if err != nil {
			return fmt.Errorf("failed to lock session: %w", err)
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.IsCompleted() {
			return ErrSessionCompleted
		}

		history, err := tx.GetMessages(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		nextTurn := 1
		if len(history) > 0 {
			nextTurn = history[len(history)-1].TurnOrder + 1
		}

		userMsg = &models.Message{
			SessionID: session.ID,
			TurnOrder: nextTurn,
			Role:      models.RoleUser,
			Content:   content,
			CreatedAt: s.now(),
		}
		if err := tx.CreateMessage(ctx, userMsg); err != nil {
			return fmt.Errorf("failed to save user message: %w", err)
		}
		history = append(history, *userMsg)

		req, err := s.assembleRequest(ctx, tx, session, history)
		if err != nil {
			return err
		}

		text, err := s.generator.Generate(ctx, req)
		if err != nil {
			if !errors.Is(err, llm.ErrGenerationFailure) {
				err = fmt.Errorf("%w: %v", llm.ErrGenerationFailure, err)
			}
			slog.Error("Agent reply generation failed", "error", err, "session_id", session.ID, "agent_type", session.AgentType)
			return err
		}

		reply = &models.Message{
			SessionID: session.ID,
			TurnOrder: nextTurn + 1,
			Role:      models.RoleAssistant,
			Content:   text,
			CreatedAt: s.now(),
		}
		if err := tx.CreateMessage(ctx, reply); err != nil {
			return fmt.Errorf("failed to save agent reply: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishMessage(userMsg)
	s.publishMessage(reply)
	slog.Info("Session message exchanged", "session_id", sessionID, "user_id", user.ID, "turn_order", reply.TurnOrder)
	return reply, nil
}

// assembleRequest builds the generator input from the session's current
// state. The resume is looked up again on every call.
func (s *SessionService) assembleRequest(ctx context.Context, tx repository.Store, session *models.Session, history []models.Message) (llm.Request, error) {
	var resumeText, vacancyText string
	if session.ResumeID != nil {
		resume, err := tx.GetResume(ctx, *session.ResumeID, session.UserID)
		if err != nil {
			return llm.Request{}, fmt.Errorf("failed to load resume: %w", err)
		}
		if resume != nil {
			resumeText = resume.RawText
		}
	}
	if session.VacancyText != nil {
		vacancyText = *session.VacancyText
	}

	messages := make([]llm.Message, 0, len(history))
	for _, m := range history {
		messages = append(messages, llm.Message{Role: m.Role, Content: m.Content})
	}

	return llm.Request{
		AgentType:    string(session.AgentType),
		SystemPrompt: buildSystemPrompt(session.AgentType, resumeText, vacancyText),
		History:      messages,
	}, nil
}

func (s *SessionService) Get(ctx context.Context, user *models.User, sessionID string) (*models.Session, error) {
	session, err := s.repo.GetSession(ctx, sessionID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) List(ctx context.Context, user *models.User) ([]models.Session, error) {
	sessions, err := s.repo.GetSessions(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Complete marks the session COMPLETED. Completing an already completed
// session changes nothing.
func (s *SessionService) Complete(ctx context.Context, user *models.User, sessionID string) (*models.Session, error) {
	changed := false
	err := s.repo.WithTransaction(ctx, func(tx repository.Store) error {
		session, err := tx.LockSession(ctx, sessionID, user.ID)
		if err != nil {
			return fmt.Errorf("failed to lock session: %w", err)
		}
		if session == nil {
			return ErrSessionNotFound
		}
		if session.IsCompleted() {
			return nil
		}

		endedAt := s.now()
		session.Status = models.SessionCompleted
		session.EndedAt = &endedAt
		if err := tx.UpdateSession(ctx, session); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		slog.Info("Interview session completed", "session_id", sessionID, "user_id", user.ID)
		if s.notifier != nil {
			s.notifier.Publish(sessionID, SessionEvent{Type: "status", Status: string(models.SessionCompleted)})
		}
	}
	return s.Get(ctx, user, sessionID)
}

func (s *SessionService) publishMessage(m *models.Message) {
	if s.notifier == nil || m == nil {
		return
	}
	out := newMessageOut(m)
	s.notifier.Publish(m.SessionID, SessionEvent{Type: "message", Message: &out})
}
