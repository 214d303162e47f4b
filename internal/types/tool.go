package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const MaxToolNameLength = 100

type Tool struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;index;not null" json:"user_id"`
	Name          string         `gorm:"column:name;not null" json:"name"`
	Description   string         `gorm:"column:description" json:"description"`
	URL           string         `gorm:"column:url" json:"url"`
	Schema        datatypes.JSON `gorm:"column:schema" json:"schema"`
	CustomHeaders datatypes.JSON `gorm:"column:custom_headers" json:"custom_headers"`
	Sharing       string         `gorm:"column:sharing;default:private" json:"sharing"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Tool) TableName() string {
	return "tools"
}

func (t *Tool) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	return nil
}
