package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Join rows keep their own created_at so the order they were attached in
// can be read back.

type AssistantFile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	AssistantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assistant_files_pair" json:"assistant_id"`
	FileID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assistant_files_pair;index" json:"file_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AssistantFile) TableName() string { return "assistant_files" }

func (j *AssistantFile) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	return nil
}

type AssistantCollection struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	AssistantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assistant_collections_pair" json:"assistant_id"`
	CollectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assistant_collections_pair;index" json:"collection_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AssistantCollection) TableName() string { return "assistant_collections" }

func (j *AssistantCollection) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	return nil
}

type AssistantTool struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	AssistantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assistant_tools_pair" json:"assistant_id"`
	ToolID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_assistant_tools_pair;index" json:"tool_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (AssistantTool) TableName() string { return "assistant_tools" }

func (j *AssistantTool) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	return nil
}

type CollectionFile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	CollectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_collection_files_pair" json:"collection_id"`
	FileID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_collection_files_pair;index" json:"file_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CollectionFile) TableName() string { return "collection_files" }

func (j *CollectionFile) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	return nil
}

type CollectionWorkspace struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	CollectionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_collection_workspaces_pair" json:"collection_id"`
	WorkspaceID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_collection_workspaces_pair;index" json:"workspace_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (CollectionWorkspace) TableName() string { return "collection_workspaces" }

func (j *CollectionWorkspace) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	return nil
}

// ChatFileLink is a row of chat_files. The name avoids clashing with the
// ChatFile value carried in chat state.
type ChatFileLink struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	ChatID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_files_pair" json:"chat_id"`
	FileID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_chat_files_pair;index" json:"file_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (ChatFileLink) TableName() string { return "chat_files" }

func (j *ChatFileLink) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	return nil
}

type FileWorkspace struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	FileID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_file_workspaces_pair" json:"file_id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_file_workspaces_pair;index" json:"workspace_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (FileWorkspace) TableName() string { return "file_workspaces" }

func (j *FileWorkspace) BeforeCreate(tx *gorm.DB) error {
	ensureID(&j.ID)
	return nil
}
