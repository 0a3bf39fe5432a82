package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Portfolio is a user's portfolio document, published at /p/:slug
type Portfolio struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string         `json:"user_id" gorm:"index;not null"`
	Slug      string         `json:"slug" gorm:"uniqueIndex;not null"`
	Template  string         `json:"template"`
	Title     string         `json:"title"`
	Content   datatypes.JSON `json:"content" gorm:"type:jsonb"`
	Published bool           `json:"published" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (p *Portfolio) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
