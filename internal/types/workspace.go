package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workspace carries the chat defaults used when no assistant is selected.
// At most one workspace per user has IsHome set (partial unique index).
type Workspace struct {
	ID                           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Name                         string    `gorm:"column:name;not null" json:"name"`
	Description                  string    `gorm:"column:description" json:"description"`
	Instructions                 string    `gorm:"column:instructions" json:"instructions"`
	IsHome                       bool      `gorm:"column:is_home;not null;default:false" json:"is_home"`
	DefaultModel                 string    `gorm:"column:default_model" json:"default_model"`
	DefaultPrompt                string    `gorm:"column:default_prompt" json:"default_prompt"`
	DefaultTemperature           float64   `gorm:"column:default_temperature" json:"default_temperature"`
	DefaultContextLength         int       `gorm:"column:default_context_length" json:"default_context_length"`
	IncludeProfileContext        bool      `gorm:"column:include_profile_context" json:"include_profile_context"`
	IncludeWorkspaceInstructions bool      `gorm:"column:include_workspace_instructions" json:"include_workspace_instructions"`
	EmbeddingsProvider           string    `gorm:"column:embeddings_provider" json:"embeddings_provider"`
	Sharing                      string    `gorm:"column:sharing;default:private" json:"sharing"`
	CreatedAt                    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Workspace) TableName() string {
	return "workspaces"
}

func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	ensureID(&w.ID)
	return nil
}
