package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/krshsl/interview-coach/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Session and message operations

func orderedMessages(db *gorm.DB) *gorm.DB {
	return db.Order("turn_order ASC")
}

func (r *GORMRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Omit("Messages").Create(session).Error; err != nil {
		slog.Error("Failed to create session", "error", err, "user_id", session.UserID)
		return fmt.Errorf("failed to create session: %w", err)
	}
	slog.Info("Session created", "session_id", session.ID, "user_id", session.UserID, "agent_type", session.AgentType)
	return nil
}

func (r *GORMRepository) GetSessions(ctx context.Context, userID string) ([]models.Session, error) {
	sessions := []models.Session{}
	if !validID(userID) {
		return sessions, nil
	}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at").
		Preload("Messages", orderedMessages).
		Find(&sessions).Error
	if err != nil {
		slog.Error("Failed to get sessions", "error", err, "user_id", userID)
		return nil, err
	}
	return sessions, nil
}

func (r *GORMRepository) GetSession(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	if !validID(sessionID) || !validID(userID) {
		return nil, nil
	}
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Preload("Messages", orderedMessages).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Failed to get session", "error", err, "session_id", sessionID, "user_id", userID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) LockSession(ctx context.Context, sessionID, userID string) (*models.Session, error) {
	if !validID(sessionID) || !validID(userID) {
		return nil, nil
	}
	var session models.Session
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		slog.Error("Failed to lock session", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) UpdateSession(ctx context.Context, session *models.Session) error {
	err := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"status":   session.Status,
			"ended_at": session.EndedAt,
		}).Error
	if err != nil {
		slog.Error("Failed to update session", "error", err, "session_id", session.ID)
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// CreateMessage saves a message to the database using GORM
func (r *GORMRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	if err := r.db.WithContext(ctx).Omit("Session").Create(message).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		slog.Error("Failed to save message", "error", err, "session_id", message.SessionID)
		return fmt.Errorf("failed to save message: %w", err)
	}
	slog.Info("Message saved", "message_id", message.ID, "session_id", message.SessionID, "role", message.Role)
	return nil
}

// GetMessages retrieves all messages for a session in turn order
func (r *GORMRepository) GetMessages(ctx context.Context, sessionID string) ([]models.Message, error) {
	messages := []models.Message{}
	if !validID(sessionID) {
		return messages, nil
	}
	if err := orderedMessages(r.db.WithContext(ctx).Where("session_id = ?", sessionID)).Find(&messages).Error; err != nil {
		slog.Error("Failed to get messages by session", "error", err, "session_id", sessionID)
		return nil, fmt.Errorf("failed to get messages by session: %w", err)
	}
	return messages, nil
}
