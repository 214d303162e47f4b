package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/MForte-AI/character-dev-1225/internal/handlers"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/middleware"
)

type RouterConfig struct {
	Log                  *logger.Logger
	AllowedOrigins       []string
	AdminVerifyToken     string
	AuthMiddleware       *middleware.AuthMiddleware
	AuthHandler          *handlers.AuthHandler
	ProfileHandler       *handlers.ProfileHandler
	WorkspaceHandler     *handlers.WorkspaceHandler
	AssistantHandler     *handlers.AssistantHandler
	QuickSettingsHandler *handlers.QuickSettingsHandler
	ChatHandler          *handlers.ChatHandler
	FileHandler          *handlers.FileHandler
	CollectionHandler    *handlers.CollectionHandler
	ToolHandler          *handlers.ToolHandler
	ProviderHandler      *handlers.ProviderHandler
	CommandHandler       *handlers.CommandHandler
	AdminHandler         *handlers.AdminHandler
	DebugHandler         *handlers.DebugHandler
	WsHandler            gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.AttachRequestContext())
	router.Use(middleware.RequestLogger(cfg.Log))

	//-----------------------------------------
	// Cors Setup
	//-----------------------------------------
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Admin-Token"},
		AllowCredentials: true,
	}))

	//-----------------------------------------
	// Health Routes
	//-----------------------------------------
	router.GET("/healthz", handlers.Healthz)

	//-----------------------------------------
	// Public Routes
	//-----------------------------------------
	api := router.Group("/api")
	{
		api.GET("/auth/google", cfg.AuthHandler.GoogleLogin)
		api.GET("/auth/callback", cfg.AuthHandler.Callback)
		api.POST("/auth/refresh", cfg.AuthHandler.Refresh)
		api.POST("/admin/verify-deletion", middleware.RequireAdminToken(cfg.AdminVerifyToken), cfg.AdminHandler.VerifyDeletion)
	}

	//------------------------------------------
	// Protected Routes
	//------------------------------------------
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	protected.GET("/ws", cfg.WsHandler)
	protected.GET("/debug", cfg.DebugHandler.GetDebug)

	//Profile
	protected.GET("/profile", cfg.ProfileHandler.GetProfile)
	protected.PUT("/profile", cfg.ProfileHandler.UpdateProfile)
	protected.POST("/profile/image", cfg.ProfileHandler.UploadImage)
	protected.GET("/keys", cfg.ProfileHandler.GetKeys)
	protected.GET("/models", cfg.ProfileHandler.GetModels)

	//Workspaces
	protected.GET("/workspaces", cfg.WorkspaceHandler.ListWorkspaces)
	protected.POST("/workspaces", cfg.WorkspaceHandler.CreateWorkspace)
	protected.GET("/workspaces/home", cfg.WorkspaceHandler.GetHome)
	protected.GET("/workspaces/:workspaceId", cfg.WorkspaceHandler.GetWorkspace)
	protected.PUT("/workspaces/:workspaceId", cfg.WorkspaceHandler.UpdateWorkspace)
	protected.DELETE("/workspaces/:workspaceId", cfg.WorkspaceHandler.DeleteWorkspace)

	//Workspace-scoped lists and creates
	protected.GET("/workspaces/:workspaceId/assistants", cfg.AssistantHandler.ListAssistants)
	protected.POST("/workspaces/:workspaceId/assistants", cfg.AssistantHandler.CreateAssistant)
	protected.POST("/workspaces/:workspaceId/assistants/:assistantId/chats", cfg.QuickSettingsHandler.StartChat)
	protected.POST("/workspaces/:workspaceId/quick-settings", cfg.QuickSettingsHandler.Select)
	protected.GET("/workspaces/:workspaceId/chats", cfg.ChatHandler.ListChats)
	protected.POST("/workspaces/:workspaceId/chats", cfg.ChatHandler.CreateChat)
	protected.GET("/workspaces/:workspaceId/files", cfg.FileHandler.ListFiles)
	protected.POST("/workspaces/:workspaceId/files", cfg.FileHandler.UploadFile)
	protected.GET("/workspaces/:workspaceId/collections", cfg.CollectionHandler.ListCollections)
	protected.POST("/workspaces/:workspaceId/collections", cfg.CollectionHandler.CreateCollection)

	//Assistants
	protected.GET("/assistants/:assistantId", cfg.AssistantHandler.GetAssistant)
	protected.PUT("/assistants/:assistantId", cfg.AssistantHandler.UpdateAssistant)
	protected.DELETE("/assistants/:assistantId", cfg.AssistantHandler.DeleteAssistant)
	protected.GET("/assistants/:assistantId/files", cfg.AssistantHandler.GetAssistantFiles)
	protected.GET("/assistants/:assistantId/collections", cfg.AssistantHandler.GetAssistantCollections)
	protected.GET("/assistants/:assistantId/tools", cfg.AssistantHandler.GetAssistantTools)
	protected.POST("/assistants/:assistantId/modified", cfg.QuickSettingsHandler.Modified)

	//Chats
	protected.GET("/chats/:chatId", cfg.ChatHandler.GetChat)
	protected.PATCH("/chats/:chatId", cfg.ChatHandler.RenameChat)
	protected.DELETE("/chats/:chatId", cfg.ChatHandler.DeleteChat)
	protected.GET("/chats/:chatId/files", cfg.ChatHandler.GetChatFiles)
	protected.POST("/chats/:chatId/files", cfg.ChatHandler.AttachChatFiles)

	//Files
	protected.GET("/files/:fileId", cfg.FileHandler.GetFile)
	protected.PUT("/files/:fileId", cfg.FileHandler.UpdateFile)
	protected.DELETE("/files/:fileId", cfg.FileHandler.DeleteFile)
	protected.GET("/files/:fileId/download", cfg.FileHandler.DownloadURL)

	//Collections
	protected.GET("/collections/:collectionId", cfg.CollectionHandler.GetCollection)
	protected.PUT("/collections/:collectionId", cfg.CollectionHandler.UpdateCollection)
	protected.DELETE("/collections/:collectionId", cfg.CollectionHandler.DeleteCollection)
	protected.GET("/collections/:collectionId/files", cfg.CollectionHandler.GetCollectionFiles)
	protected.POST("/collections/:collectionId/files", cfg.CollectionHandler.AddFile)
	protected.DELETE("/collections/:collectionId/files/:fileId", cfg.CollectionHandler.RemoveFile)

	//Tools
	protected.GET("/tools", cfg.ToolHandler.ListTools)
	protected.POST("/tools", cfg.ToolHandler.CreateTool)

	//Providers
	protected.POST("/chat/:provider", cfg.ProviderHandler.StreamChat)
	protected.POST("/command", cfg.CommandHandler.RunCommand)

	//Admin
	admin := protected.Group("/admin")
	admin.Use(cfg.AuthMiddleware.RequireAdmin())
	admin.POST("/assistants/update", cfg.AdminHandler.UpdateAssistant)

	return router
}
