package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single turn in a session. TurnOrder is the 1-based
// insertion sequence within the session.
type Message struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID string    `json:"session_id" gorm:"type:uuid;not null;uniqueIndex:idx_messages_session_turn,priority:1"`
	TurnOrder int       `json:"turn_order" gorm:"not null;uniqueIndex:idx_messages_session_turn,priority:2"`
	Role      string    `json:"role" gorm:"type:varchar(16);not null;check:role IN ('user', 'assistant')"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`

	Session *Session `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for the Message model
func (Message) TableName() string {
	return "messages"
}

// BeforeCreate hook to set the ID if not provided
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
