package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/eventdata"
	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/socket"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

const EventChatCreated = "chat.created"

// QuickSettingsService resolves the quick-settings selection of an open
// chat. State is passed in and returned; the service holds none.
type QuickSettingsService interface {
	SelectAssistant(ctx context.Context, state types.ChatState, assistantID uuid.UUID) (types.ChatState, error)
	RemoveAssistant(state types.ChatState) types.ChatState
	IsModified(assistant *types.Assistant, settings types.ChatSettings) bool
	StartChatWithAssistant(ctx context.Context, workspaceID, assistantID uuid.UUID) (*types.Chat, string, error)
}

type quickSettingsService struct {
	db             *gorm.DB
	log            *logger.Logger
	registry       *llm.Registry
	assistantRepo  repos.AssistantRepo
	collectionRepo repos.CollectionRepo
	workspaceRepo  repos.WorkspaceRepo
	profileRepo    repos.ProfileRepo
	chatRepo       repos.ChatRepo
}

func NewQuickSettingsService(
	db *gorm.DB,
	log *logger.Logger,
	registry *llm.Registry,
	assistantRepo repos.AssistantRepo,
	collectionRepo repos.CollectionRepo,
	workspaceRepo repos.WorkspaceRepo,
	profileRepo repos.ProfileRepo,
	chatRepo repos.ChatRepo,
) QuickSettingsService {
	serviceLog := log.With("service", "QuickSettingsService")
	return &quickSettingsService{
		db:             db,
		log:            serviceLog,
		registry:       registry,
		assistantRepo:  assistantRepo,
		collectionRepo: collectionRepo,
		workspaceRepo:  workspaceRepo,
		profileRepo:    profileRepo,
		chatRepo:       chatRepo,
	}
}

// SelectAssistant fetches everything the assistant brings along and only
// then replaces the selection. On any error the returned state is the
// input state, unchanged.
//
// Chat files are the assistant's own files followed by each collection's
// files, in stored order. Files reachable twice appear twice.
func (qs *quickSettingsService) SelectAssistant(ctx context.Context, state types.ChatState, assistantID uuid.UUID) (types.ChatState, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return state, ErrUnauthorized
	}

	//1) Assistant
	assistant, err := visibleAssistant(ctx, nil, qs.assistantRepo, userID, assistantID)
	if err != nil {
		return state, err
	}

	//2) Assistant Files
	assistantFiles, err := qs.assistantRepo.GetFiles(ctx, nil, assistant.ID)
	if err != nil {
		return state, fmt.Errorf("failed to fetch assistant files: %w", err)
	}

	//3) Collections, then each collection's files
	collections, err := qs.assistantRepo.GetCollections(ctx, nil, assistant.ID)
	if err != nil {
		return state, fmt.Errorf("failed to fetch assistant collections: %w", err)
	}
	chatFiles := make([]types.ChatFile, 0, len(assistantFiles))
	for _, f := range assistantFiles {
		chatFiles = append(chatFiles, types.ChatFileFrom(f))
	}
	for _, c := range collections {
		files, cErr := qs.collectionRepo.GetFiles(ctx, nil, c.ID)
		if cErr != nil {
			return state, fmt.Errorf("failed to fetch files of collection %s: %w", c.ID, cErr)
		}
		for _, f := range files {
			chatFiles = append(chatFiles, types.ChatFileFrom(f))
		}
	}

	//4) Tools
	tools, err := qs.assistantRepo.GetTools(ctx, nil, assistant.ID)
	if err != nil {
		return state, fmt.Errorf("failed to fetch assistant tools: %w", err)
	}

	//5) Replace
	settings := settingsFromAssistant(qs.registry, assistant)
	next := state
	next.SelectedAssistant = assistant
	next.SelectedTools = tools
	next.ChatFiles = chatFiles
	if len(chatFiles) > 0 {
		next.ShowFilesDisplay = true
	}
	next.ChatSettings = &settings
	return next, nil
}

func (qs *quickSettingsService) RemoveAssistant(state types.ChatState) types.ChatState {
	next := state
	next.SelectedAssistant = nil
	next.ChatFiles = []types.ChatFile{}
	next.SelectedTools = []*types.Tool{}
	if state.SelectedWorkspace != nil {
		settings := workspaceSettings(qs.registry, state.SelectedWorkspace)
		next.ChatSettings = &settings
	}
	return next
}

// IsModified compares the assistant's stored values with the current
// settings. Embeddings provider is not part of the comparison.
func (qs *quickSettingsService) IsModified(assistant *types.Assistant, settings types.ChatSettings) bool {
	return IsModified(assistant, settings)
}

func IsModified(assistant *types.Assistant, settings types.ChatSettings) bool {
	if assistant == nil {
		return false
	}
	return assistant.IncludeProfileContext != settings.IncludeProfileContext ||
		assistant.IncludeWorkspaceInstructions != settings.IncludeWorkspaceInstructions ||
		assistant.ContextLength != settings.ContextLength ||
		assistant.Model != settings.Model ||
		assistant.Prompt != settings.Prompt ||
		assistant.Temperature != settings.Temperature
}

// StartChatWithAssistant creates a chat that snapshots the assistant's
// settings and returns it with the URL the client should open. It runs to
// completion even if the caller goes away.
func (qs *quickSettingsService) StartChatWithAssistant(ctx context.Context, workspaceID, assistantID uuid.UUID) (*types.Chat, string, error) {
	ctx = context.WithoutCancel(ctx)
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, "", ErrUnauthorized
	}

	var chat *types.Chat
	err := qs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//1) Workspace + Assistant
		workspace, err := ownedWorkspace(ctx, tx, qs.workspaceRepo, userID, workspaceID)
		if err != nil {
			return err
		}
		assistant, err := visibleAssistant(ctx, tx, qs.assistantRepo, userID, assistantID)
		if err != nil {
			return err
		}

		//2) Owner
		ownerID, err := qs.chatOwner(ctx, tx, userID, assistant)
		if err != nil {
			return err
		}

		//3) Snapshot + Insert
		aID := assistant.ID
		chat = &types.Chat{
			UserID:      ownerID,
			WorkspaceID: workspace.ID,
			AssistantID: &aID,
			Name:        "Chat with " + assistant.Name,
			Sharing:     types.SharingPrivate,
		}
		chat.ApplySettings(settingsFromAssistant(qs.registry, assistant))
		if _, err := qs.chatRepo.Create(ctx, tx, []*types.Chat{chat}); err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}
		return nil
	})
	if err != nil {
		qs.log.Warn("Failed to start chat with assistant", "assistantID", assistantID, "error", err)
		return nil, "", err
	}

	//4) Publish only after the insert committed
	if ed := eventdata.GetEventData(ctx); ed != nil {
		ed.Append(eventdata.Event{
			Channel: socket.UserChannel(userID),
			Event:   EventChatCreated,
			Data:    chat,
		})
	}
	return chat, fmt.Sprintf("/%s/chat/%s", workspaceID, chat.ID), nil
}

// chatOwner is the caller's profile user id. Without a profile it falls
// back to the assistant's owner, and to the caller for ownerless system
// assistants.
func (qs *quickSettingsService) chatOwner(ctx context.Context, tx *gorm.DB, userID uuid.UUID, assistant *types.Assistant) (uuid.UUID, error) {
	profiles, err := qs.profileRepo.GetByUserIDs(ctx, tx, []uuid.UUID{userID})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if len(profiles) > 0 {
		return profiles[0].UserID, nil
	}
	if assistant.UserID != nil {
		qs.log.Warn("No profile for caller, using assistant owner as chat owner", "userID", userID, "assistantOwner", *assistant.UserID)
		return *assistant.UserID, nil
	}
	qs.log.Warn("No profile for caller and assistant has no owner, using caller", "userID", userID)
	return userID, nil
}

func settingsFromAssistant(registry *llm.Registry, a *types.Assistant) types.ChatSettings {
	return types.ChatSettings{
		Model:                        registry.ResolveClaudeModelID(a.Model),
		Prompt:                       a.Prompt,
		Temperature:                  a.Temperature,
		ContextLength:                a.ContextLength,
		IncludeProfileContext:        a.IncludeProfileContext,
		IncludeWorkspaceInstructions: a.IncludeWorkspaceInstructions,
		EmbeddingsProvider:           DefaultEmbeddingsProvider,
	}
}
