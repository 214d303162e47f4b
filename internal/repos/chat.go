package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type ChatRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, chats []*types.Chat) ([]*types.Chat, error)
	AttachFiles(ctx context.Context, tx *gorm.DB, userID, chatID uuid.UUID, fileIDs []uuid.UUID) error

	// READ
	GetByIDs(ctx context.Context, tx *gorm.DB, chatIDs []uuid.UUID) ([]*types.Chat, error)
	GetByWorkspaceID(ctx context.Context, tx *gorm.DB, userID, workspaceID uuid.UUID) ([]*types.Chat, error)
	GetFiles(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*types.File, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, chats []*types.Chat) ([]*types.Chat, error)

	// FULL (HARD) DELETE
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, chatIDs []uuid.UUID) error
}

type chatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatRepo(db *gorm.DB, baseLog *logger.Logger) ChatRepo {
	repoLog := baseLog.With("repo", "ChatRepo")
	return &chatRepo{db: db, log: repoLog}
}

func (cr *chatRepo) Create(ctx context.Context, tx *gorm.DB, chats []*types.Chat) ([]*types.Chat, error) {
	cr.log.Info("Starting Create Chats now...")
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(chats) == 0 {
		return []*types.Chat{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&chats).Error; err != nil {
		cr.log.Error("Failed to create chats", "error", err)
		return nil, err
	}
	cr.log.Info("Successfully created chats", "count", len(chats))
	return chats, nil
}

func (cr *chatRepo) AttachFiles(ctx context.Context, tx *gorm.DB, userID, chatID uuid.UUID, fileIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(fileIDs) == 0 {
		return nil
	}
	stamps := batchTimes(len(fileIDs))
	links := make([]*types.ChatFileLink, 0, len(fileIDs))
	for i, id := range fileIDs {
		links = append(links, &types.ChatFileLink{UserID: userID, ChatID: chatID, FileID: id, CreatedAt: stamps[i]})
	}
	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		cr.log.Error("Failed to attach files to chat", "chatID", chatID, "error", err)
		return err
	}
	return nil
}

func (cr *chatRepo) GetByIDs(ctx context.Context, tx *gorm.DB, chatIDs []uuid.UUID) ([]*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Chat
	if len(chatIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", chatIDs).
		Find(&results).Error; err != nil {
		cr.log.Error("Failed to fetch chats by IDs", "error", err)
		return nil, err
	}
	return results, nil
}

// GetByWorkspaceID lists the user's chats in a workspace, most recent first.
func (cr *chatRepo) GetByWorkspaceID(ctx context.Context, tx *gorm.DB, userID, workspaceID uuid.UUID) ([]*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Chat
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND workspace_id = ?", userID, workspaceID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		cr.log.Error("Failed to fetch chats by workspace", "workspaceID", workspaceID, "error", err)
		return nil, err
	}
	return results, nil
}

func (cr *chatRepo) GetFiles(ctx context.Context, tx *gorm.DB, chatID uuid.UUID) ([]*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.File
	if err := transaction.WithContext(ctx).
		Model(&types.File{}).
		Select("files.*").
		Joins("JOIN chat_files ON chat_files.file_id = files.id").
		Where("chat_files.chat_id = ?", chatID).
		Order("chat_files.created_at ASC, chat_files.id ASC").
		Find(&results).Error; err != nil {
		cr.log.Error("Failed to fetch chat files", "chatID", chatID, "error", err)
		return nil, err
	}
	return results, nil
}

func (cr *chatRepo) Update(ctx context.Context, tx *gorm.DB, chats []*types.Chat) ([]*types.Chat, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	for _, c := range chats {
		if err := transaction.WithContext(ctx).Save(c).Error; err != nil {
			cr.log.Error("Failed to update chat", "chatID", c.ID, "error", err)
			return nil, err
		}
	}
	return chats, nil
}

func (cr *chatRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, chatIDs []uuid.UUID) error {
	cr.log.Info("Starting FullDeleteByIDs for Chats now...")
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(chatIDs) == 0 {
		return nil
	}
	if err := transaction.WithContext(ctx).Where("chat_id IN ?", chatIDs).Delete(&types.ChatFileLink{}).Error; err != nil {
		cr.log.Error("Failed to delete chat file links", "error", err)
		return err
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", chatIDs).Delete(&types.Chat{}).Error; err != nil {
		cr.log.Error("Failed to delete chats", "error", err)
		return err
	}
	return nil
}
