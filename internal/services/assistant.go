package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/types"
	"github.com/MForte-AI/character-dev-1225/internal/utils"
)

// AssistantInput is the create/update body. Sharing is not settable here;
// only the admin route publishes assistants.
type AssistantInput struct {
	Name                         *string     `json:"name"`
	Description                  *string     `json:"description"`
	Prompt                       *string     `json:"prompt"`
	Model                        *string     `json:"model"`
	Temperature                  *float64    `json:"temperature"`
	ContextLength                *int        `json:"contextLength"`
	IncludeProfileContext        *bool       `json:"includeProfileContext"`
	IncludeWorkspaceInstructions *bool       `json:"includeWorkspaceInstructions"`
	EmbeddingsProvider           *string     `json:"embeddingsProvider"`
	ImagePath                    *string     `json:"imagePath"`
	FileIDs                      []uuid.UUID `json:"fileIds"`
	CollectionIDs                []uuid.UUID `json:"collectionIds"`
	ToolIDs                      []uuid.UUID `json:"toolIds"`
}

type AssistantService interface {
	ListInWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.Assistant, error)
	Get(ctx context.Context, assistantID uuid.UUID) (*types.Assistant, error)
	Create(ctx context.Context, workspaceID uuid.UUID, in AssistantInput) (*types.Assistant, error)
	Update(ctx context.Context, assistantID uuid.UUID, in AssistantInput) (*types.Assistant, error)
	Delete(ctx context.Context, assistantID uuid.UUID) error
	Files(ctx context.Context, assistantID uuid.UUID) ([]*types.File, error)
	Collections(ctx context.Context, assistantID uuid.UUID) ([]*types.Collection, error)
	Tools(ctx context.Context, assistantID uuid.UUID) ([]*types.Tool, error)
}

type assistantService struct {
	db             *gorm.DB
	log            *logger.Logger
	registry       *llm.Registry
	assistantRepo  repos.AssistantRepo
	workspaceRepo  repos.WorkspaceRepo
	fileRepo       repos.FileRepo
	collectionRepo repos.CollectionRepo
	toolRepo       repos.ToolRepo
}

func NewAssistantService(
	db *gorm.DB,
	log *logger.Logger,
	registry *llm.Registry,
	assistantRepo repos.AssistantRepo,
	workspaceRepo repos.WorkspaceRepo,
	fileRepo repos.FileRepo,
	collectionRepo repos.CollectionRepo,
	toolRepo repos.ToolRepo,
) AssistantService {
	serviceLog := log.With("service", "AssistantService")
	return &assistantService{
		db:             db,
		log:            serviceLog,
		registry:       registry,
		assistantRepo:  assistantRepo,
		workspaceRepo:  workspaceRepo,
		fileRepo:       fileRepo,
		collectionRepo: collectionRepo,
		toolRepo:       toolRepo,
	}
}

func (as *assistantService) ListInWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.Assistant, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if _, err := ownedWorkspace(ctx, nil, as.workspaceRepo, userID, workspaceID); err != nil {
		return nil, err
	}
	return as.assistantRepo.GetVisibleInWorkspace(ctx, nil, userID, workspaceID)
}

func (as *assistantService) Get(ctx context.Context, assistantID uuid.UUID) (*types.Assistant, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return visibleAssistant(ctx, nil, as.assistantRepo, userID, assistantID)
}

func (as *assistantService) Create(ctx context.Context, workspaceID uuid.UUID, in AssistantInput) (*types.Assistant, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if in.Name == nil || utils.ParseInputString(*in.Name) == "" {
		return nil, invalid("Assistant name is required")
	}
	in.FileIDs = uniqueIDs(in.FileIDs)
	in.CollectionIDs = uniqueIDs(in.CollectionIDs)
	in.ToolIDs = uniqueIDs(in.ToolIDs)

	var created *types.Assistant
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//1) Workspace
		workspace, err := ownedWorkspace(ctx, tx, as.workspaceRepo, userID, workspaceID)
		if err != nil {
			return err
		}

		//2) Assistant, seeded from the workspace defaults
		wsID := workspace.ID
		owner := userID
		assistant := &types.Assistant{
			UserID:                       &owner,
			WorkspaceID:                  &wsID,
			Model:                        workspace.DefaultModel,
			Prompt:                       workspace.DefaultPrompt,
			Temperature:                  workspace.DefaultTemperature,
			ContextLength:                workspace.DefaultContextLength,
			IncludeProfileContext:        workspace.IncludeProfileContext,
			IncludeWorkspaceInstructions: workspace.IncludeWorkspaceInstructions,
			EmbeddingsProvider:           workspace.EmbeddingsProvider,
			Sharing:                      types.SharingPrivate,
		}
		if err := applyAssistantInput(assistant, in); err != nil {
			return err
		}
		if _, err := as.assistantRepo.Create(ctx, tx, []*types.Assistant{assistant}); err != nil {
			return fmt.Errorf("failed to create assistant: %w", err)
		}

		//3) Links
		if err := as.checkLinks(ctx, tx, userID, in); err != nil {
			return err
		}
		if err := as.assistantRepo.AttachFiles(ctx, tx, userID, assistant.ID, in.FileIDs); err != nil {
			return fmt.Errorf("failed to attach files: %w", err)
		}
		if err := as.assistantRepo.AttachCollections(ctx, tx, userID, assistant.ID, in.CollectionIDs); err != nil {
			return fmt.Errorf("failed to attach collections: %w", err)
		}
		if err := as.assistantRepo.AttachTools(ctx, tx, userID, assistant.ID, in.ToolIDs); err != nil {
			return fmt.Errorf("failed to attach tools: %w", err)
		}
		created = assistant
		return nil
	})
	if err != nil {
		as.log.Warn("Failed to create assistant", "error", err)
		return nil, err
	}
	return created, nil
}

// checkLinks makes sure every id in the body refers to something the
// caller may attach: own files and collections, own or public tools.
func (as *assistantService) checkLinks(ctx context.Context, tx *gorm.DB, userID uuid.UUID, in AssistantInput) error {
	files, err := as.fileRepo.GetByIDs(ctx, tx, in.FileIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch files: %w", err)
	}
	if len(files) != len(in.FileIDs) {
		return invalid("Unknown file id")
	}
	for _, f := range files {
		if f.UserID != userID {
			return invalid("Unknown file id")
		}
	}
	collections, err := as.collectionRepo.GetByIDs(ctx, tx, in.CollectionIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch collections: %w", err)
	}
	if len(collections) != len(in.CollectionIDs) {
		return invalid("Unknown collection id")
	}
	for _, c := range collections {
		if c.UserID != userID {
			return invalid("Unknown collection id")
		}
	}
	tools, err := as.toolRepo.GetByIDs(ctx, tx, in.ToolIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch tools: %w", err)
	}
	if len(tools) != len(in.ToolIDs) {
		return invalid("Unknown tool id")
	}
	for _, t := range tools {
		if t.UserID != userID && t.Sharing != types.SharingPublic {
			return invalid("Unknown tool id")
		}
	}
	return nil
}

func (as *assistantService) Update(ctx context.Context, assistantID uuid.UUID, in AssistantInput) (*types.Assistant, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	var updated *types.Assistant
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assistant, err := ownedAssistant(ctx, tx, as.assistantRepo, userID, assistantID)
		if err != nil {
			return err
		}
		if err := applyAssistantInput(assistant, in); err != nil {
			return err
		}
		saved, err := as.assistantRepo.Update(ctx, tx, []*types.Assistant{assistant})
		if err != nil {
			return fmt.Errorf("failed to update assistant: %w", err)
		}
		updated = saved[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (as *assistantService) Delete(ctx context.Context, assistantID uuid.UUID) error {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		assistant, err := ownedAssistant(ctx, tx, as.assistantRepo, userID, assistantID)
		if err != nil {
			return err
		}
		return as.assistantRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{assistant.ID})
	})
}

func (as *assistantService) Files(ctx context.Context, assistantID uuid.UUID) ([]*types.File, error) {
	if _, err := as.Get(ctx, assistantID); err != nil {
		return nil, err
	}
	return as.assistantRepo.GetFiles(ctx, nil, assistantID)
}

func (as *assistantService) Collections(ctx context.Context, assistantID uuid.UUID) ([]*types.Collection, error) {
	if _, err := as.Get(ctx, assistantID); err != nil {
		return nil, err
	}
	return as.assistantRepo.GetCollections(ctx, nil, assistantID)
}

func (as *assistantService) Tools(ctx context.Context, assistantID uuid.UUID) ([]*types.Tool, error) {
	if _, err := as.Get(ctx, assistantID); err != nil {
		return nil, err
	}
	return as.assistantRepo.GetTools(ctx, nil, assistantID)
}

func applyAssistantInput(a *types.Assistant, in AssistantInput) error {
	if in.Name != nil {
		name := utils.ParseInputString(*in.Name)
		if name == "" {
			return invalid("Assistant name is required")
		}
		if err := utils.CheckMaxLength("Assistant name", name, types.MaxAssistantNameLength); err != nil {
			return invalid("%s", err.Error())
		}
		a.Name = name
	}
	if in.Description != nil {
		desc := utils.ParseInputString(*in.Description)
		if err := utils.CheckMaxLength("Assistant description", desc, types.MaxAssistantDescriptionLength); err != nil {
			return invalid("%s", err.Error())
		}
		a.Description = desc
	}
	if in.Prompt != nil {
		a.Prompt = *in.Prompt
	}
	if in.Model != nil {
		a.Model = utils.ParseInputString(*in.Model)
	}
	if in.Temperature != nil {
		if *in.Temperature < 0 || *in.Temperature > 2 {
			return invalid("Temperature must be between 0 and 2")
		}
		a.Temperature = *in.Temperature
	}
	if in.ContextLength != nil {
		if *in.ContextLength <= 0 {
			return invalid("Context length must be positive")
		}
		a.ContextLength = *in.ContextLength
	}
	if in.IncludeProfileContext != nil {
		a.IncludeProfileContext = *in.IncludeProfileContext
	}
	if in.IncludeWorkspaceInstructions != nil {
		a.IncludeWorkspaceInstructions = *in.IncludeWorkspaceInstructions
	}
	if in.EmbeddingsProvider != nil {
		a.EmbeddingsProvider = utils.ParseInputString(*in.EmbeddingsProvider)
	}
	if in.ImagePath != nil {
		a.ImagePath = utils.ParseInputString(*in.ImagePath)
	}
	return nil
}

// visibleAssistant returns the assistant when the caller owns it or it is
// public or system; ErrNotFound otherwise.
func visibleAssistant(ctx context.Context, tx *gorm.DB, repo repos.AssistantRepo, userID, assistantID uuid.UUID) (*types.Assistant, error) {
	found, err := repo.GetByIDs(ctx, tx, []uuid.UUID{assistantID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assistant: %w", err)
	}
	if len(found) == 0 {
		return nil, ErrNotFound
	}
	a := found[0]
	if a.OwnedBy(userID) || a.IsSystem || a.Sharing == types.SharingPublic {
		return a, nil
	}
	return nil, ErrNotFound
}

func ownedAssistant(ctx context.Context, tx *gorm.DB, repo repos.AssistantRepo, userID, assistantID uuid.UUID) (*types.Assistant, error) {
	a, err := visibleAssistant(ctx, tx, repo, userID, assistantID)
	if err != nil {
		return nil, err
	}
	if a.IsSystem {
		return nil, ErrReadOnly
	}
	if !a.OwnedBy(userID) {
		return nil, ErrForbidden
	}
	return a, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
