package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgentType selects the interviewer persona of a session
type AgentType string

const (
	AgentHR         AgentType = "HR"
	AgentTechLead   AgentType = "TECH_LEAD"
	AgentMentor     AgentType = "MENTOR"
	AgentCodeReview AgentType = "CODE_REVIEW"
)

// AgentTypes lists every persona in a stable order.
var AgentTypes = []AgentType{AgentHR, AgentTechLead, AgentMentor, AgentCodeReview}

func (a AgentType) Valid() bool {
	switch a {
	case AgentHR, AgentTechLead, AgentMentor, AgentCodeReview:
		return true
	}
	return false
}

type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
)

// Session is one interview conversation between a user and an agent persona.
// ResumeID is a weak reference: the session does not own the resume.
type Session struct {
	ID          string        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string        `gorm:"type:uuid;not null;index" json:"user_id"`
	ResumeID    *string       `gorm:"type:uuid;index" json:"resume_id,omitempty"`
	AgentType   AgentType     `gorm:"size:32;not null;check:agent_type IN ('HR', 'TECH_LEAD', 'MENTOR', 'CODE_REVIEW')" json:"agent_type"`
	Status      SessionStatus `gorm:"size:32;not null;default:'ACTIVE';check:status IN ('ACTIVE', 'COMPLETED')" json:"status"`
	VacancyText *string       `gorm:"type:text" json:"vacancy_text,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	EndedAt     *time.Time    `json:"ended_at,omitempty"`

	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Messages []Message `gorm:"foreignKey:SessionID" json:"messages"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

func (s *Session) IsCompleted() bool {
	return s.Status == SessionCompleted
}
