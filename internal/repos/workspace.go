package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type WorkspaceRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, workspaces []*types.Workspace) ([]*types.Workspace, error)

	// READ
	GetByIDs(ctx context.Context, tx *gorm.DB, workspaceIDs []uuid.UUID) ([]*types.Workspace, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Workspace, error)
	GetHomeByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Workspace, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, workspaces []*types.Workspace) ([]*types.Workspace, error)

	// FULL (HARD) DELETE
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, workspaceIDs []uuid.UUID) error
}

type workspaceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWorkspaceRepo(db *gorm.DB, baseLog *logger.Logger) WorkspaceRepo {
	repoLog := baseLog.With("repo", "WorkspaceRepo")
	return &workspaceRepo{db: db, log: repoLog}
}

func (wr *workspaceRepo) Create(ctx context.Context, tx *gorm.DB, workspaces []*types.Workspace) ([]*types.Workspace, error) {
	wr.log.Info("Starting Create Workspaces now...")
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	if len(workspaces) == 0 {
		return []*types.Workspace{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&workspaces).Error; err != nil {
		wr.log.Error("Failed to create workspaces", "error", err)
		return nil, err
	}
	wr.log.Info("Successfully created workspaces", "count", len(workspaces))
	return workspaces, nil
}

func (wr *workspaceRepo) GetByIDs(ctx context.Context, tx *gorm.DB, workspaceIDs []uuid.UUID) ([]*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	var results []*types.Workspace
	if len(workspaceIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", workspaceIDs).
		Find(&results).Error; err != nil {
		wr.log.Error("Failed to fetch workspaces by IDs", "error", err)
		return nil, err
	}
	return results, nil
}

func (wr *workspaceRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	var results []*types.Workspace
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		wr.log.Error("Failed to fetch workspaces by user id", "userID", userID, "error", err)
		return nil, err
	}
	return results, nil
}

func (wr *workspaceRepo) GetHomeByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Workspace, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	var results []*types.Workspace
	if err := transaction.WithContext(ctx).
		Where("user_id = ? AND is_home = ?", userID, true).
		Find(&results).Error; err != nil {
		wr.log.Error("Failed to fetch home workspace", "userID", userID, "error", err)
		return nil, err
	}
	return results, nil
}

func (wr *workspaceRepo) Update(ctx context.Context, tx *gorm.DB, workspaces []*types.Workspace) ([]*types.Workspace, error) {
	wr.log.Info("Starting Update Workspaces now...")
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	for _, w := range workspaces {
		if err := transaction.WithContext(ctx).Save(w).Error; err != nil {
			wr.log.Error("Failed to update workspace", "workspaceID", w.ID, "error", err)
			return nil, err
		}
	}
	return workspaces, nil
}

func (wr *workspaceRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, workspaceIDs []uuid.UUID) error {
	wr.log.Info("Starting FullDeleteByIDs for Workspaces now...")
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}
	if len(workspaceIDs) == 0 {
		return nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", workspaceIDs).
		Delete(&types.Workspace{}).Error; err != nil {
		wr.log.Error("Failed to delete workspaces", "error", err)
		return err
	}
	return nil
}
