package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat stores a snapshot of the settings in effect when it was created.
// Editing the assistant later never rewrites these columns.
type Chat struct {
	ID                           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                       uuid.UUID  `gorm:"type:uuid;index;not null" json:"user_id"`
	WorkspaceID                  uuid.UUID  `gorm:"type:uuid;index;not null" json:"workspace_id"`
	AssistantID                  *uuid.UUID `gorm:"type:uuid;index" json:"assistant_id"`
	CollectionID                 *uuid.UUID `gorm:"type:uuid;index" json:"collection_id"`
	Name                         string     `gorm:"column:name" json:"name"`
	Model                        string     `gorm:"column:model" json:"model"`
	Prompt                       string     `gorm:"column:prompt" json:"prompt"`
	Temperature                  float64    `gorm:"column:temperature" json:"temperature"`
	ContextLength                int        `gorm:"column:context_length" json:"context_length"`
	IncludeProfileContext        bool       `gorm:"column:include_profile_context" json:"include_profile_context"`
	IncludeWorkspaceInstructions bool       `gorm:"column:include_workspace_instructions" json:"include_workspace_instructions"`
	EmbeddingsProvider           string     `gorm:"column:embeddings_provider" json:"embeddings_provider"`
	Sharing                      string     `gorm:"column:sharing;default:private" json:"sharing"`
	CreatedAt                    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Chat) TableName() string {
	return "chats"
}

func (c *Chat) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

func (c *Chat) ApplySettings(s ChatSettings) {
	c.Model = s.Model
	c.Prompt = s.Prompt
	c.Temperature = s.Temperature
	c.ContextLength = s.ContextLength
	c.IncludeProfileContext = s.IncludeProfileContext
	c.IncludeWorkspaceInstructions = s.IncludeWorkspaceInstructions
	c.EmbeddingsProvider = s.EmbeddingsProvider
}
