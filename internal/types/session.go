package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session pairs the opaque refresh token with the access token it issued.
// Deleting the row revokes both.
type Session struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null"`
	SessionToken string    `gorm:"uniqueIndex;not null;column:session_token"`
	AccessToken  string    `gorm:"uniqueIndex;not null;column:access_token"`
	Expires      time.Time `gorm:"column:expires;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
