package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SharingPrivate = "private"
	SharingPublic  = "public"

	MaxAssistantNameLength        = 100
	MaxAssistantDescriptionLength = 500
)

// Assistant is a named chat configuration. System assistants have no owner
// and are read-only to everyone.
type Assistant struct {
	ID                           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                       *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	WorkspaceID                  *uuid.UUID `gorm:"type:uuid;index" json:"workspace_id"`
	FolderID                     *uuid.UUID `gorm:"type:uuid" json:"folder_id"`
	Name                         string     `gorm:"column:name;not null" json:"name"`
	Description                  string     `gorm:"column:description" json:"description"`
	Prompt                       string     `gorm:"column:prompt" json:"prompt"`
	Model                        string     `gorm:"column:model" json:"model"`
	Temperature                  float64    `gorm:"column:temperature" json:"temperature"`
	ContextLength                int        `gorm:"column:context_length" json:"context_length"`
	IncludeProfileContext        bool       `gorm:"column:include_profile_context" json:"include_profile_context"`
	IncludeWorkspaceInstructions bool       `gorm:"column:include_workspace_instructions" json:"include_workspace_instructions"`
	EmbeddingsProvider           string     `gorm:"column:embeddings_provider" json:"embeddings_provider"`
	ImagePath                    string     `gorm:"column:image_path" json:"image_path"`
	Sharing                      string     `gorm:"column:sharing;default:private" json:"sharing"`
	IsSystem                     bool       `gorm:"column:is_system;not null;default:false" json:"is_system"`
	CreatedAt                    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Assistant) TableName() string {
	return "assistants"
}

func (a *Assistant) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

func (a *Assistant) OwnedBy(userID uuid.UUID) bool {
	return a.UserID != nil && *a.UserID == userID
}
