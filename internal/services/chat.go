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
	"github.com/MForte-AI/character-dev-1225/internal/utils"
)

const (
	EventChatUpdated = "chat.updated"
	EventChatDeleted = "chat.deleted"

	MaxChatNameLength = 200
)

type ChatInput struct {
	Name         *string             `json:"name"`
	CollectionID *uuid.UUID          `json:"collectionId"`
	ChatSettings *types.ChatSettings `json:"chatSettings"`
}

type ChatService interface {
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.Chat, error)
	Get(ctx context.Context, chatID uuid.UUID) (*types.Chat, error)
	Create(ctx context.Context, workspaceID uuid.UUID, in ChatInput) (*types.Chat, error)
	Rename(ctx context.Context, chatID uuid.UUID, name string) (*types.Chat, error)
	Delete(ctx context.Context, chatID uuid.UUID) error
	Files(ctx context.Context, chatID uuid.UUID) ([]*types.File, error)
	AttachFiles(ctx context.Context, chatID uuid.UUID, fileIDs []uuid.UUID) ([]*types.File, error)
}

type chatService struct {
	db             *gorm.DB
	log            *logger.Logger
	registry       *llm.Registry
	chatRepo       repos.ChatRepo
	workspaceRepo  repos.WorkspaceRepo
	collectionRepo repos.CollectionRepo
	fileRepo       repos.FileRepo
}

func NewChatService(
	db *gorm.DB,
	log *logger.Logger,
	registry *llm.Registry,
	chatRepo repos.ChatRepo,
	workspaceRepo repos.WorkspaceRepo,
	collectionRepo repos.CollectionRepo,
	fileRepo repos.FileRepo,
) ChatService {
	serviceLog := log.With("service", "ChatService")
	return &chatService{
		db:             db,
		log:            serviceLog,
		registry:       registry,
		chatRepo:       chatRepo,
		workspaceRepo:  workspaceRepo,
		collectionRepo: collectionRepo,
		fileRepo:       fileRepo,
	}
}

// ListByWorkspace returns the caller's chats, most recent first.
func (cs *chatService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.Chat, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if _, err := ownedWorkspace(ctx, nil, cs.workspaceRepo, userID, workspaceID); err != nil {
		return nil, err
	}
	return cs.chatRepo.GetByWorkspaceID(ctx, nil, userID, workspaceID)
}

func (cs *chatService) Get(ctx context.Context, chatID uuid.UUID) (*types.Chat, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return cs.ownedChat(ctx, nil, userID, chatID)
}

// Create snapshots either the supplied settings or the workspace defaults.
func (cs *chatService) Create(ctx context.Context, workspaceID uuid.UUID, in ChatInput) (*types.Chat, error) {
	ctx = context.WithoutCancel(ctx)
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	var chat *types.Chat
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workspace, err := ownedWorkspace(ctx, tx, cs.workspaceRepo, userID, workspaceID)
		if err != nil {
			return err
		}
		settings := workspaceSettings(cs.registry, workspace)
		if in.ChatSettings != nil {
			settings = *in.ChatSettings
			settings.Model = cs.registry.ResolveClaudeModelID(settings.Model)
		}
		name := "New Chat"
		if trimmed := utils.ParseInputStringPtr(in.Name); trimmed != nil {
			name = *trimmed
		}
		if err := utils.CheckMaxLength("Chat name", name, MaxChatNameLength); err != nil {
			return invalid("%s", err.Error())
		}
		if in.CollectionID != nil {
			collections, cErr := cs.collectionRepo.GetByIDs(ctx, tx, []uuid.UUID{*in.CollectionID})
			if cErr != nil {
				return fmt.Errorf("failed to fetch collection: %w", cErr)
			}
			if len(collections) == 0 || collections[0].UserID != userID {
				return invalid("Unknown collection id")
			}
		}
		chat = &types.Chat{
			UserID:       userID,
			WorkspaceID:  workspace.ID,
			CollectionID: in.CollectionID,
			Name:         name,
			Sharing:      types.SharingPrivate,
		}
		chat.ApplySettings(settings)
		if _, err := cs.chatRepo.Create(ctx, tx, []*types.Chat{chat}); err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.publish(ctx, userID, EventChatCreated, chat)
	return chat, nil
}

func (cs *chatService) Rename(ctx context.Context, chatID uuid.UUID, name string) (*types.Chat, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	name = utils.ParseInputString(name)
	if name == "" {
		return nil, invalid("Chat name is required")
	}
	if err := utils.CheckMaxLength("Chat name", name, MaxChatNameLength); err != nil {
		return nil, invalid("%s", err.Error())
	}
	var updated *types.Chat
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chat, err := cs.ownedChat(ctx, tx, userID, chatID)
		if err != nil {
			return err
		}
		chat.Name = name
		saved, err := cs.chatRepo.Update(ctx, tx, []*types.Chat{chat})
		if err != nil {
			return fmt.Errorf("failed to rename chat: %w", err)
		}
		updated = saved[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	cs.publish(ctx, userID, EventChatUpdated, updated)
	return updated, nil
}

func (cs *chatService) Delete(ctx context.Context, chatID uuid.UUID) error {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cs.ownedChat(ctx, tx, userID, chatID); err != nil {
			return err
		}
		return cs.chatRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{chatID})
	})
	if err != nil {
		return err
	}
	cs.publish(ctx, userID, EventChatDeleted, map[string]uuid.UUID{"id": chatID})
	return nil
}

func (cs *chatService) Files(ctx context.Context, chatID uuid.UUID) ([]*types.File, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if _, err := cs.ownedChat(ctx, nil, userID, chatID); err != nil {
		return nil, err
	}
	return cs.chatRepo.GetFiles(ctx, nil, chatID)
}

// AttachFiles links files to the chat, skipping ones already linked, and
// returns the chat's full file list.
func (cs *chatService) AttachFiles(ctx context.Context, chatID uuid.UUID, fileIDs []uuid.UUID) ([]*types.File, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	var result []*types.File
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := cs.ownedChat(ctx, tx, userID, chatID); err != nil {
			return err
		}
		ids := uniqueIDs(fileIDs)
		files, err := cs.fileRepo.GetByIDs(ctx, tx, ids)
		if err != nil {
			return fmt.Errorf("failed to fetch files: %w", err)
		}
		if len(files) != len(ids) {
			return invalid("Unknown file id")
		}
		for _, f := range files {
			if f.UserID != userID {
				return invalid("Unknown file id")
			}
		}
		existing, err := cs.chatRepo.GetFiles(ctx, tx, chatID)
		if err != nil {
			return fmt.Errorf("failed to fetch chat files: %w", err)
		}
		linked := make(map[uuid.UUID]struct{}, len(existing))
		for _, f := range existing {
			linked[f.ID] = struct{}{}
		}
		toAttach := make([]uuid.UUID, 0, len(ids))
		for _, id := range ids {
			if _, ok := linked[id]; !ok {
				toAttach = append(toAttach, id)
			}
		}
		if err := cs.chatRepo.AttachFiles(ctx, tx, userID, chatID, toAttach); err != nil {
			return fmt.Errorf("failed to attach files: %w", err)
		}
		result, err = cs.chatRepo.GetFiles(ctx, tx, chatID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (cs *chatService) ownedChat(ctx context.Context, tx *gorm.DB, userID, chatID uuid.UUID) (*types.Chat, error) {
	found, err := cs.chatRepo.GetByIDs(ctx, tx, []uuid.UUID{chatID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chat: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func (cs *chatService) publish(ctx context.Context, userID uuid.UUID, event string, data interface{}) {
	if ed := eventdata.GetEventData(ctx); ed != nil {
		ed.Append(eventdata.Event{Channel: socket.UserChannel(userID), Event: event, Data: data})
	}
}
