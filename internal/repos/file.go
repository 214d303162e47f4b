package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type FileRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, files []*types.File) ([]*types.File, error)
	AttachWorkspaces(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID, workspaceIDs []uuid.UUID) error

	// READ
	GetByIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) ([]*types.File, error)
	GetByWorkspaceID(ctx context.Context, tx *gorm.DB, userID, workspaceID uuid.UUID) ([]*types.File, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, files []*types.File) ([]*types.File, error)

	// FULL (HARD) DELETE
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error
}

type fileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFileRepo(db *gorm.DB, baseLog *logger.Logger) FileRepo {
	repoLog := baseLog.With("repo", "FileRepo")
	return &fileRepo{db: db, log: repoLog}
}

func (fr *fileRepo) Create(ctx context.Context, tx *gorm.DB, files []*types.File) ([]*types.File, error) {
	fr.log.Info("Starting Create Files now...")
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	if len(files) == 0 {
		return []*types.File{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&files).Error; err != nil {
		fr.log.Error("Failed to create files", "error", err)
		return nil, err
	}
	fr.log.Info("Successfully created files", "count", len(files))
	return files, nil
}

func (fr *fileRepo) AttachWorkspaces(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID, workspaceIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	if len(workspaceIDs) == 0 {
		return nil
	}
	stamps := batchTimes(len(workspaceIDs))
	links := make([]*types.FileWorkspace, 0, len(workspaceIDs))
	for i, id := range workspaceIDs {
		links = append(links, &types.FileWorkspace{UserID: userID, FileID: fileID, WorkspaceID: id, CreatedAt: stamps[i]})
	}
	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		fr.log.Error("Failed to attach file to workspaces", "fileID", fileID, "error", err)
		return err
	}
	return nil
}

func (fr *fileRepo) GetByIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) ([]*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	var results []*types.File
	if len(fileIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", fileIDs).
		Find(&results).Error; err != nil {
		fr.log.Error("Failed to fetch files by IDs", "error", err)
		return nil, err
	}
	return results, nil
}

func (fr *fileRepo) GetByWorkspaceID(ctx context.Context, tx *gorm.DB, userID, workspaceID uuid.UUID) ([]*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	var results []*types.File
	if err := transaction.WithContext(ctx).
		Model(&types.File{}).
		Select("files.*").
		Joins("JOIN file_workspaces ON file_workspaces.file_id = files.id").
		Where("file_workspaces.workspace_id = ? AND files.user_id = ?", workspaceID, userID).
		Order("files.created_at DESC").
		Find(&results).Error; err != nil {
		fr.log.Error("Failed to fetch files by workspace", "workspaceID", workspaceID, "error", err)
		return nil, err
	}
	return results, nil
}

func (fr *fileRepo) Update(ctx context.Context, tx *gorm.DB, files []*types.File) ([]*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	for _, f := range files {
		if err := transaction.WithContext(ctx).Save(f).Error; err != nil {
			fr.log.Error("Failed to update file", "fileID", f.ID, "error", err)
			return nil, err
		}
	}
	return files, nil
}

// FullDeleteByIDs removes the rows and every link and chunk that points at
// them, so a later deletion check finds nothing.
func (fr *fileRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, fileIDs []uuid.UUID) error {
	fr.log.Info("Starting FullDeleteByIDs for Files now...")
	transaction := tx
	if transaction == nil {
		transaction = fr.db
	}
	if len(fileIDs) == 0 {
		return nil
	}
	dependents := []interface{}{
		&types.FileItem{},
		&types.ChatFileLink{},
		&types.CollectionFile{},
		&types.AssistantFile{},
		&types.FileWorkspace{},
	}
	for _, d := range dependents {
		if err := transaction.WithContext(ctx).Where("file_id IN ?", fileIDs).Delete(d).Error; err != nil {
			fr.log.Error("Failed to delete file dependents", "error", err)
			return err
		}
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", fileIDs).Delete(&types.File{}).Error; err != nil {
		fr.log.Error("Failed to delete files", "error", err)
		return err
	}
	return nil
}
