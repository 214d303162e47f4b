package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MaxDisplayNameLength    = 100
	MinUsernameLength       = 3
	MaxUsernameLength       = 25
	MaxProfileContextLength = 1500
)

type Profile struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	DisplayName    string    `gorm:"column:display_name" json:"display_name"`
	Username       string    `gorm:"column:username;uniqueIndex;not null" json:"username"`
	Bio            string    `gorm:"column:bio" json:"bio"`
	ProfileContext string    `gorm:"column:profile_context" json:"profile_context"`
	ImageURL       string    `gorm:"column:image_url" json:"image_url"`
	ImagePath      string    `gorm:"column:image_path" json:"image_path"`
	HasOnboarded   bool      `gorm:"column:has_onboarded;not null" json:"has_onboarded"`
	UserRole       string    `gorm:"column:user_role" json:"user_role"`
	UseAzureOpenai bool      `gorm:"column:use_azure_openai" json:"use_azure_openai"`

	AnthropicAPIKey      string `gorm:"column:anthropic_api_key" json:"anthropic_api_key"`
	OpenaiAPIKey         string `gorm:"column:openai_api_key" json:"openai_api_key"`
	OpenaiOrganizationID string `gorm:"column:openai_organization_id" json:"openai_organization_id"`
	MistralAPIKey        string `gorm:"column:mistral_api_key" json:"mistral_api_key"`
	GoogleGeminiAPIKey   string `gorm:"column:google_gemini_api_key" json:"google_gemini_api_key"`
	GroqAPIKey           string `gorm:"column:groq_api_key" json:"groq_api_key"`
	PerplexityAPIKey     string `gorm:"column:perplexity_api_key" json:"perplexity_api_key"`
	OpenrouterAPIKey     string `gorm:"column:openrouter_api_key" json:"openrouter_api_key"`

	AzureOpenaiAPIKey       string `gorm:"column:azure_openai_api_key" json:"azure_openai_api_key"`
	AzureOpenaiEndpoint     string `gorm:"column:azure_openai_endpoint" json:"azure_openai_endpoint"`
	AzureOpenai35TurboID    string `gorm:"column:azure_openai_35_turbo_id" json:"azure_openai_35_turbo_id"`
	AzureOpenai45TurboID    string `gorm:"column:azure_openai_45_turbo_id" json:"azure_openai_45_turbo_id"`
	AzureOpenai45VisionID   string `gorm:"column:azure_openai_45_vision_id" json:"azure_openai_45_vision_id"`
	AzureOpenaiEmbeddingsID string `gorm:"column:azure_openai_embeddings_id" json:"azure_openai_embeddings_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// KeyFor returns the stored key for a provider, or "" when none is set.
func (p *Profile) KeyFor(provider string) string {
	if p == nil {
		return ""
	}
	switch provider {
	case "anthropic":
		return p.AnthropicAPIKey
	case "openai":
		return p.OpenaiAPIKey
	case "mistral":
		return p.MistralAPIKey
	case "google":
		return p.GoogleGeminiAPIKey
	case "groq":
		return p.GroqAPIKey
	case "perplexity":
		return p.PerplexityAPIKey
	case "openrouter":
		return p.OpenrouterAPIKey
	case "azure":
		return p.AzureOpenaiAPIKey
	}
	return ""
}

func (p *Profile) IsAdmin() bool {
	return p != nil && p.UserRole == "admin"
}
