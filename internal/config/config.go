package config

import (
	"time"

	"github.com/joho/godotenv"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/utils"
)

type Config struct {
	Port               string
	LogMode            string
	AppOrigin          string
	CORSAllowedOrigins []string

	DBHost           string
	DBPort           int
	DBName           string
	DBUser           string
	DBPassword       string
	DBSSLMode        string
	DBMaxOpenConns   int
	DBConnectTimeout time.Duration
	DBIdleTimeout    time.Duration

	GCPProjectID       string
	GCSBucket          string
	GCPCredentialsPath string

	GoogleClientID     string
	GoogleClientSecret string
	OAuthRedirectURL   string

	JWTSecretKey string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration

	AnthropicAPIKey    string
	OpenAIAPIKey       string
	MistralAPIKey      string
	DefaultClaudeModel string
	RetrievalURL       string

	AdminVerifyToken string
	EnableDebug      bool

	RedisAddress  string
	RedisPassword string

	SeedSystemAssistantsPath string
}

// Load reads an optional .env file and then the process environment.
func Load(log *logger.Logger) *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file loaded, relying on process environment", "error", err)
	}
	return &Config{
		Port:               utils.GetEnv("PORT", "8080", log),
		LogMode:            utils.GetEnv("LOG_MODE", "development", log),
		AppOrigin:          utils.GetEnv("APP_ORIGIN", "http://localhost:3000", log),
		CORSAllowedOrigins: utils.GetEnvAsList("CORS_ALLOWED_ORIGINS", "http://localhost:3000", log),

		DBHost:           utils.GetEnv("DB_HOST", "localhost", log),
		DBPort:           utils.GetEnvAsInt("DB_PORT", 5432, log),
		DBName:           utils.GetEnv("DB_NAME", "postgres", log),
		DBUser:           utils.GetEnv("DB_USER", "postgres", log),
		DBPassword:       utils.GetEnv("DB_PASSWORD", "", log),
		DBSSLMode:        utils.GetEnv("DB_SSLMODE", "disable", log),
		DBMaxOpenConns:   utils.GetEnvAsInt("DB_MAX_OPEN_CONNS", 20, log),
		DBConnectTimeout: time.Duration(utils.GetEnvAsInt("DB_CONNECT_TIMEOUT_SECONDS", 2, log)) * time.Second,
		DBIdleTimeout:    time.Duration(utils.GetEnvAsInt("DB_IDLE_TIMEOUT_SECONDS", 30, log)) * time.Second,

		GCPProjectID:       utils.GetEnv("GOOGLE_CLOUD_PROJECT_ID", "", log),
		GCSBucket:          utils.GetEnv("GOOGLE_CLOUD_STORAGE_BUCKET", "", log),
		GCPCredentialsPath: utils.GetEnv("GOOGLE_APPLICATION_CREDENTIALS", "", log),

		GoogleClientID:     utils.GetEnv("GOOGLE_CLIENT_ID", "", log),
		GoogleClientSecret: utils.GetEnv("GOOGLE_CLIENT_SECRET", "", log),
		OAuthRedirectURL:   utils.GetEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/api/auth/callback", log),

		JWTSecretKey: utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTTL:    time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RefreshTTL:   time.Duration(utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400*30, log)) * time.Second,

		AnthropicAPIKey:    utils.GetEnv("ANTHROPIC_API_KEY", "", log),
		OpenAIAPIKey:       utils.GetEnv("OPENAI_API_KEY", "", log),
		MistralAPIKey:      utils.GetEnv("MISTRAL_API_KEY", "", log),
		DefaultClaudeModel: utils.GetEnv("DEFAULT_CLAUDE_MODEL_ID", "", log),
		RetrievalURL:       utils.GetEnv("RETRIEVAL_URL", "", log),

		AdminVerifyToken: utils.GetEnv("ADMIN_VERIFY_TOKEN", "", log),
		EnableDebug:      utils.GetEnvAsBool("ENABLE_DEBUG", false, log),

		RedisAddress:  utils.GetEnv("REDIS_ADDRESS", "", log),
		RedisPassword: utils.GetEnv("REDIS_PASSWORD", "", log),

		SeedSystemAssistantsPath: utils.GetEnv("SEED_SYSTEM_ASSISTANTS_JSON_PATH", "", log),
	}
}

// EnvKeyMap reports which providers have a server-side key configured.
func (c *Config) EnvKeyMap() map[string]bool {
	return map[string]bool{
		"anthropic": c.AnthropicAPIKey != "",
		"openai":    c.OpenAIAPIKey != "",
		"mistral":   c.MistralAPIKey != "",
	}
}
