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

// WorkspaceInput is the create/update body. Nil pointers leave a field as
// it is on update and take the home defaults on create.
type WorkspaceInput struct {
	Name                         *string  `json:"name"`
	Description                  *string  `json:"description"`
	Instructions                 *string  `json:"instructions"`
	DefaultModel                 *string  `json:"defaultModel"`
	DefaultPrompt                *string  `json:"defaultPrompt"`
	DefaultTemperature           *float64 `json:"defaultTemperature"`
	DefaultContextLength         *int     `json:"defaultContextLength"`
	IncludeProfileContext        *bool    `json:"includeProfileContext"`
	IncludeWorkspaceInstructions *bool    `json:"includeWorkspaceInstructions"`
	EmbeddingsProvider           *string  `json:"embeddingsProvider"`
}

type WorkspaceService interface {
	List(ctx context.Context) ([]*types.Workspace, error)
	Get(ctx context.Context, workspaceID uuid.UUID) (*types.Workspace, error)
	Home(ctx context.Context) (*types.Workspace, error)
	Create(ctx context.Context, in WorkspaceInput) (*types.Workspace, error)
	Update(ctx context.Context, workspaceID uuid.UUID, in WorkspaceInput) (*types.Workspace, error)
	Delete(ctx context.Context, workspaceID uuid.UUID) error
	DefaultSettings(ws *types.Workspace) types.ChatSettings
}

type workspaceService struct {
	db            *gorm.DB
	log           *logger.Logger
	registry      *llm.Registry
	workspaceRepo repos.WorkspaceRepo
}

func NewWorkspaceService(db *gorm.DB, log *logger.Logger, registry *llm.Registry, workspaceRepo repos.WorkspaceRepo) WorkspaceService {
	serviceLog := log.With("service", "WorkspaceService")
	return &workspaceService{db: db, log: serviceLog, registry: registry, workspaceRepo: workspaceRepo}
}

func (ws *workspaceService) List(ctx context.Context) ([]*types.Workspace, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return ws.workspaceRepo.GetByUserID(ctx, nil, userID)
}

func (ws *workspaceService) Get(ctx context.Context, workspaceID uuid.UUID) (*types.Workspace, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return ownedWorkspace(ctx, nil, ws.workspaceRepo, userID, workspaceID)
}

func (ws *workspaceService) Home(ctx context.Context) (*types.Workspace, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	homes, err := ws.workspaceRepo.GetHomeByUserID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch home workspace: %w", err)
	}
	if len(homes) == 0 {
		return nil, ErrNotFound
	}
	return homes[0], nil
}

// Create never produces a home workspace; that one only comes from
// provisioning.
func (ws *workspaceService) Create(ctx context.Context, in WorkspaceInput) (*types.Workspace, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	workspace := &types.Workspace{
		UserID:                       userID,
		IsHome:                       false,
		DefaultModel:                 ws.registry.DefaultClaudeModelID(),
		DefaultPrompt:                HomeWorkspacePrompt,
		DefaultTemperature:           HomeWorkspaceTemperature,
		DefaultContextLength:         HomeWorkspaceContextLen,
		IncludeProfileContext:        true,
		IncludeWorkspaceInstructions: true,
		EmbeddingsProvider:           DefaultEmbeddingsProvider,
	}
	if in.Name == nil || utils.ParseInputString(*in.Name) == "" {
		return nil, invalid("Workspace name is required")
	}
	if err := applyWorkspaceInput(workspace, in); err != nil {
		return nil, err
	}
	created, err := ws.workspaceRepo.Create(ctx, nil, []*types.Workspace{workspace})
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}
	return created[0], nil
}

func (ws *workspaceService) Update(ctx context.Context, workspaceID uuid.UUID, in WorkspaceInput) (*types.Workspace, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	var updated *types.Workspace
	err := ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workspace, err := ownedWorkspace(ctx, tx, ws.workspaceRepo, userID, workspaceID)
		if err != nil {
			return err
		}
		if err := applyWorkspaceInput(workspace, in); err != nil {
			return err
		}
		saved, err := ws.workspaceRepo.Update(ctx, tx, []*types.Workspace{workspace})
		if err != nil {
			return fmt.Errorf("failed to update workspace: %w", err)
		}
		updated = saved[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (ws *workspaceService) Delete(ctx context.Context, workspaceID uuid.UUID) error {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	return ws.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workspace, err := ownedWorkspace(ctx, tx, ws.workspaceRepo, userID, workspaceID)
		if err != nil {
			return err
		}
		if workspace.IsHome {
			return invalid("The home workspace cannot be deleted")
		}
		return ws.workspaceRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{workspace.ID})
	})
}

// DefaultSettings returns the settings a chat in ws starts with when no
// assistant is selected.
func (ws *workspaceService) DefaultSettings(workspace *types.Workspace) types.ChatSettings {
	return workspaceSettings(ws.registry, workspace)
}

func workspaceSettings(registry *llm.Registry, workspace *types.Workspace) types.ChatSettings {
	return types.ChatSettings{
		Model:                        registry.ResolveClaudeModelID(workspace.DefaultModel),
		Prompt:                       workspace.DefaultPrompt,
		Temperature:                  workspace.DefaultTemperature,
		ContextLength:                workspace.DefaultContextLength,
		IncludeProfileContext:        workspace.IncludeProfileContext,
		IncludeWorkspaceInstructions: workspace.IncludeWorkspaceInstructions,
		EmbeddingsProvider:           workspace.EmbeddingsProvider,
	}
}

func applyWorkspaceInput(w *types.Workspace, in WorkspaceInput) error {
	if in.Name != nil {
		name := utils.ParseInputString(*in.Name)
		if name == "" {
			return invalid("Workspace name is required")
		}
		if err := utils.CheckMaxLength("Workspace name", name, 100); err != nil {
			return invalid("%s", err.Error())
		}
		w.Name = name
	}
	if in.Description != nil {
		w.Description = utils.ParseInputString(*in.Description)
	}
	if in.Instructions != nil {
		w.Instructions = *in.Instructions
	}
	if in.DefaultModel != nil {
		w.DefaultModel = utils.ParseInputString(*in.DefaultModel)
	}
	if in.DefaultPrompt != nil {
		w.DefaultPrompt = *in.DefaultPrompt
	}
	if in.DefaultTemperature != nil {
		if *in.DefaultTemperature < 0 || *in.DefaultTemperature > 2 {
			return invalid("Temperature must be between 0 and 2")
		}
		w.DefaultTemperature = *in.DefaultTemperature
	}
	if in.DefaultContextLength != nil {
		if *in.DefaultContextLength <= 0 {
			return invalid("Context length must be positive")
		}
		w.DefaultContextLength = *in.DefaultContextLength
	}
	if in.IncludeProfileContext != nil {
		w.IncludeProfileContext = *in.IncludeProfileContext
	}
	if in.IncludeWorkspaceInstructions != nil {
		w.IncludeWorkspaceInstructions = *in.IncludeWorkspaceInstructions
	}
	if in.EmbeddingsProvider != nil {
		w.EmbeddingsProvider = utils.ParseInputString(*in.EmbeddingsProvider)
	}
	return nil
}

// ownedWorkspace returns ErrNotFound both for a missing row and for a row
// that belongs to someone else.
func ownedWorkspace(ctx context.Context, tx *gorm.DB, repo repos.WorkspaceRepo, userID, workspaceID uuid.UUID) (*types.Workspace, error) {
	found, err := repo.GetByIDs(ctx, tx, []uuid.UUID{workspaceID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch workspace: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, ErrNotFound
	}
	return found[0], nil
}
