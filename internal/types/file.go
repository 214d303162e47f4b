package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxFileNameLength        = 100
	MaxFileDescriptionLength = 500
	MaxLoglineLength         = 500
	MaxGenreLength           = 100
)

// File is the metadata row for an uploaded document. FilePath is the object
// key in the bucket.
type File struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Name         string    `gorm:"column:name;not null" json:"name"`
	Description  string    `gorm:"column:description" json:"description"`
	Type         string    `gorm:"column:type" json:"type"`
	Size         int64     `gorm:"column:size" json:"size"`
	Tokens       int       `gorm:"column:tokens" json:"tokens"`
	FilePath     string    `gorm:"column:file_path" json:"file_path"`
	DocumentType string    `gorm:"column:document_type" json:"document_type"`
	Logline      string    `gorm:"column:logline" json:"logline"`
	Genre        string    `gorm:"column:genre" json:"genre"`
	PageCount    int       `gorm:"column:page_count" json:"page_count"`
	Sharing      string    `gorm:"column:sharing;default:private" json:"sharing"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (File) TableName() string {
	return "files"
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// FileItem is a chunk written by the external retrieval pipeline.
type FileItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FileID    uuid.UUID `gorm:"type:uuid;index;not null" json:"file_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Content   string    `gorm:"column:content;type:text" json:"content"`
	Tokens    int       `gorm:"column:tokens" json:"tokens"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (FileItem) TableName() string {
	return "file_items"
}

func (fi *FileItem) BeforeCreate(tx *gorm.DB) error {
	ensureID(&fi.ID)
	return nil
}
