package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resume stores an uploaded file's extracted text. Rows are never updated.
type Resume struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Filename    string    `gorm:"size:255;not null" json:"filename"`
	ContentType string    `gorm:"size:255;not null" json:"content_type"`
	RawText     string    `gorm:"type:text;not null" json:"raw_text"`
	CreatedAt   time.Time `json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *Resume) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
