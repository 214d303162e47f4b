package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/MForte-AI/character-dev-1225/internal/config"
	"github.com/MForte-AI/character-dev-1225/internal/db"
	"github.com/MForte-AI/character-dev-1225/internal/handlers"
	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/middleware"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/seed"
	"github.com/MForte-AI/character-dev-1225/internal/server"
	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/socket"
)

const sessionSweepInterval = time.Hour

func main() {
	// Logger Setup
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Environment Variables
	log.Info("Attempting to load environment variables for Main now...")
	cfg := config.Load(log)
	log.Debug("Environment variables loaded for Main :)",
		"port", cfg.Port,
		"appOrigin", cfg.AppOrigin,
		"corsAllowedOrigins", cfg.CORSAllowedOrigins,
		"redisAddress", cfg.RedisAddress,
		"bucket", cfg.GCSBucket,
		"enableDebug", cfg.EnableDebug,
	)

	// Postgres Setup
	log.Info("Setting Up Postgres from Main now...")
	postgresService, err := db.NewPostgresService(cfg, log)
	if err != nil {
		log.Error("DB init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()
	log.Info("Postgres Setup From Main Successful :)")

	// Repositories Setup
	log.Info("Setting Up Repositories from Main now...")
	userRepo := repos.NewUserRepo(thePG, log)
	accountRepo := repos.NewAccountRepo(thePG, log)
	sessionRepo := repos.NewSessionRepo(thePG, log)
	profileRepo := repos.NewProfileRepo(thePG, log)
	workspaceRepo := repos.NewWorkspaceRepo(thePG, log)
	assistantRepo := repos.NewAssistantRepo(thePG, log)
	toolRepo := repos.NewToolRepo(thePG, log)
	chatRepo := repos.NewChatRepo(thePG, log)
	fileRepo := repos.NewFileRepo(thePG, log)
	collectionRepo := repos.NewCollectionRepo(thePG, log)
	adminRepo := repos.NewAdminRepo(thePG, log)
	log.Info("Repositories Set Up From Main Successful :)")

	// Seed Setup
	log.Info("Attempting to Seed The Postgres From Main now...")
	if err := seed.SeedAll(ctx, thePG, log, assistantRepo, cfg.SeedSystemAssistantsPath); err != nil {
		log.Warn("Failed to seed data :(", "error", err)
	}
	log.Info("Seeding of Postgres From Main Successful :)")

	// Websocket Setup
	log.Info("Setting Up Websocket Hub From Main Now :)")
	wsHub := socket.NewHub(log)
	log.Info("Websocket Hub Set Up From Main Successful :)")

	// Redis PubSub
	var redisPubSub *socket.RedisPubSub
	if cfg.RedisAddress != "" {
		log.Info("Setting Up Redis PubSub From Main Now :)")
		redisChanName := "script_whisperer_hub_broadcast"
		redisPubSub, err = socket.NewRedisPubSub(log, cfg.RedisAddress, cfg.RedisPassword, redisChanName)
		if err != nil {
			log.Warn("Failed to init redis pubsub", "error", err)
			redisPubSub = nil
		} else if err := redisPubSub.StartSubscriber(wsHub); err != nil {
			log.Warn("Failed to subscribe to Redis pub/sub", "error", err)
			redisPubSub.Stop()
			redisPubSub = nil
		} else {
			wsHub.SetRedisPubSub(redisPubSub)
			log.Info("Redis pubsub is active!")
		}
	}

	// Services Setup
	log.Info("Setting up Services from Main now...")
	registry := llm.NewRegistry(cfg.DefaultClaudeModel)
	bucketService, err := services.NewBucketService(ctx, cfg, log)
	if err != nil {
		log.Warn("Could not init BucketService, uploads are disabled", "error", err)
		bucketService = nil
	}
	googleOAuth := services.NewGoogleOAuth(cfg, log)
	avatarService := services.NewAvatarService(log, bucketService)
	authService := services.NewAuthService(thePG, log, registry, userRepo, accountRepo, sessionRepo, profileRepo, workspaceRepo, cfg.JWTSecretKey, cfg.AccessTTL, cfg.RefreshTTL)
	profileService := services.NewProfileService(thePG, log, profileRepo, avatarService, bucketService)
	workspaceService := services.NewWorkspaceService(thePG, log, registry, workspaceRepo)
	assistantService := services.NewAssistantService(thePG, log, registry, assistantRepo, workspaceRepo, fileRepo, collectionRepo, toolRepo)
	quickSettingsService := services.NewQuickSettingsService(thePG, log, registry, assistantRepo, collectionRepo, workspaceRepo, profileRepo, chatRepo)
	chatService := services.NewChatService(thePG, log, registry, chatRepo, workspaceRepo, collectionRepo, fileRepo)
	fileService := services.NewFileService(thePG, log, fileRepo, workspaceRepo, collectionRepo, bucketService)
	collectionService := services.NewCollectionService(thePG, log, collectionRepo, workspaceRepo, fileRepo)
	toolService := services.NewToolService(thePG, log, toolRepo)
	adminService := services.NewAdminService(thePG, log, adminRepo, assistantRepo, profileRepo, bucketService)

	anthropicProvider := services.NewAnthropicProvider(log, registry, cfg.AnthropicAPIKey, "")
	openAIProvider := services.NewOpenAIProvider(log, registry, cfg.OpenAIAPIKey, services.OpenAIBaseURL)
	retrievalClient := services.NewRetrievalClient(log, cfg.RetrievalURL)
	mistralProvider := services.NewMistralProvider(log, registry, cfg.MistralAPIKey, services.MistralBaseURL, retrievalClient)
	pollinationsProvider := services.NewPollinationsProvider(log, registry, services.PollinationsBaseURL)
	commandService := services.NewCommandService(log, registry, anthropicProvider, profileRepo)
	log.Info("Services Set Up From Main Successful :)")

	// Handler Setup
	log.Info("Setting Up Handlers from Main now...")
	authHandler := handlers.NewAuthHandler(log, authService, googleOAuth, cfg.AppOrigin)
	profileHandler := handlers.NewProfileHandler(profileService, registry, cfg.EnvKeyMap())
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService)
	assistantHandler := handlers.NewAssistantHandler(assistantService)
	quickSettingsHandler := handlers.NewQuickSettingsHandler(quickSettingsService, workspaceService, assistantService, wsHub)
	chatHandler := handlers.NewChatHandler(chatService, wsHub)
	fileHandler := handlers.NewFileHandler(fileService)
	collectionHandler := handlers.NewCollectionHandler(collectionService)
	toolHandler := handlers.NewToolHandler(toolService)
	providerHandler := handlers.NewProviderHandler(log, profileService, anthropicProvider, openAIProvider, mistralProvider, pollinationsProvider)
	commandHandler := handlers.NewCommandHandler(commandService)
	adminHandler := handlers.NewAdminHandler(adminService)
	debugHandler := handlers.NewDebugHandler(cfg.EnableDebug, profileService, workspaceService)
	wsHandler := handlers.WsHandler(wsHub, log, cfg.CORSAllowedOrigins)
	log.Info("Handlers Set Up From Main Successful :)")

	// MiddleWare Setup
	log.Info("Setting Up Middleware from Main now...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService, adminService)
	log.Info("Middleware Set Up From Main Successful :)")

	// Router Setup
	log.Info("Setting Up Router from Main now...")
	router := server.NewRouter(server.RouterConfig{
		Log:                  log,
		AllowedOrigins:       cfg.CORSAllowedOrigins,
		AdminVerifyToken:     cfg.AdminVerifyToken,
		AuthMiddleware:       authMiddleware,
		AuthHandler:          authHandler,
		ProfileHandler:       profileHandler,
		WorkspaceHandler:     workspaceHandler,
		AssistantHandler:     assistantHandler,
		QuickSettingsHandler: quickSettingsHandler,
		ChatHandler:          chatHandler,
		FileHandler:          fileHandler,
		CollectionHandler:    collectionHandler,
		ToolHandler:          toolHandler,
		ProviderHandler:      providerHandler,
		CommandHandler:       commandHandler,
		AdminHandler:         adminHandler,
		DebugHandler:         debugHandler,
		WsHandler:            wsHandler,
	})
	log.Info("Router Set Up From Main Successful :)")

	// Expired sessions are swept hourly.
	sweepCtx, stopSweep := context.WithCancel(ctx)
	go sweepSessions(sweepCtx, log, sessionRepo)

	log.Info("Server listening", "port", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Warn("Server failed", "error", err)
	}

	// On Shutdown
	stopSweep()
	if redisPubSub != nil {
		redisPubSub.Stop()
	}
}

func sweepSessions(ctx context.Context, log *logger.Logger, sessionRepo repos.SessionRepo) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := sessionRepo.FullDeleteExpired(ctx, nil, now)
			if err != nil {
				log.Warn("Session sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Info("Swept expired sessions", "count", n)
			}
		}
	}
}
