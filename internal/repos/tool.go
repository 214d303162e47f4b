package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type ToolRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tools []*types.Tool) ([]*types.Tool, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, toolIDs []uuid.UUID) ([]*types.Tool, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Tool, error)
}

type toolRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewToolRepo(db *gorm.DB, baseLog *logger.Logger) ToolRepo {
	repoLog := baseLog.With("repo", "ToolRepo")
	return &toolRepo{db: db, log: repoLog}
}

func (tr *toolRepo) Create(ctx context.Context, tx *gorm.DB, tools []*types.Tool) ([]*types.Tool, error) {
	tr.log.Info("Starting Create Tools now...")
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	if len(tools) == 0 {
		return []*types.Tool{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&tools).Error; err != nil {
		tr.log.Error("Failed to create tools", "error", err)
		return nil, err
	}
	return tools, nil
}

func (tr *toolRepo) GetByIDs(ctx context.Context, tx *gorm.DB, toolIDs []uuid.UUID) ([]*types.Tool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Tool
	if len(toolIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", toolIDs).
		Find(&results).Error; err != nil {
		tr.log.Error("Failed to fetch tools by IDs", "error", err)
		return nil, err
	}
	return results, nil
}

func (tr *toolRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Tool, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db
	}
	var results []*types.Tool
	if err := transaction.WithContext(ctx).
		Where("user_id = ? OR sharing = ?", userID, types.SharingPublic).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		tr.log.Error("Failed to fetch tools by user id", "error", err)
		return nil, err
	}
	return results, nil
}
