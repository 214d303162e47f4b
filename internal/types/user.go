package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Image     string    `gorm:"column:image" json:"image"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// Account links a user to an OAuth identity.
type Account struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Type              string    `gorm:"column:type;not null" json:"type"`
	Provider          string    `gorm:"column:provider;not null;uniqueIndex:idx_accounts_provider_account" json:"provider"`
	ProviderAccountID string    `gorm:"column:provider_account_id;not null;uniqueIndex:idx_accounts_provider_account" json:"provider_account_id"`
	RefreshToken      string    `gorm:"column:refresh_token" json:"-"`
	AccessToken       string    `gorm:"column:access_token" json:"-"`
	IDToken           string    `gorm:"column:id_token" json:"-"`
	ExpiresAt         int64     `gorm:"column:expires_at" json:"expires_at"`
	TokenType         string    `gorm:"column:token_type" json:"token_type"`
	Scope             string    `gorm:"column:scope" json:"scope"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
