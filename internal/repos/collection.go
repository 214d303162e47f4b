package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type CollectionRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error)
	AddFiles(ctx context.Context, tx *gorm.DB, userID, collectionID uuid.UUID, fileIDs []uuid.UUID) error
	AttachWorkspaces(ctx context.Context, tx *gorm.DB, userID, collectionID uuid.UUID, workspaceIDs []uuid.UUID) error

	// READ
	GetByIDs(ctx context.Context, tx *gorm.DB, collectionIDs []uuid.UUID) ([]*types.Collection, error)
	GetByWorkspaceID(ctx context.Context, tx *gorm.DB, userID, workspaceID uuid.UUID) ([]*types.Collection, error)
	GetFiles(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) ([]*types.File, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error)

	// DELETE
	RemoveFile(ctx context.Context, tx *gorm.DB, collectionID, fileID uuid.UUID) error
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, collectionIDs []uuid.UUID) error
}

type collectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRepo {
	repoLog := baseLog.With("repo", "CollectionRepo")
	return &collectionRepo{db: db, log: repoLog}
}

func (cr *collectionRepo) Create(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error) {
	cr.log.Info("Starting Create Collections now...")
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(collections) == 0 {
		return []*types.Collection{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&collections).Error; err != nil {
		cr.log.Error("Failed to create collections", "error", err)
		return nil, err
	}
	return collections, nil
}

func (cr *collectionRepo) AddFiles(ctx context.Context, tx *gorm.DB, userID, collectionID uuid.UUID, fileIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(fileIDs) == 0 {
		return nil
	}
	stamps := batchTimes(len(fileIDs))
	links := make([]*types.CollectionFile, 0, len(fileIDs))
	for i, id := range fileIDs {
		links = append(links, &types.CollectionFile{UserID: userID, CollectionID: collectionID, FileID: id, CreatedAt: stamps[i]})
	}
	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		cr.log.Error("Failed to add files to collection", "collectionID", collectionID, "error", err)
		return err
	}
	return nil
}

func (cr *collectionRepo) AttachWorkspaces(ctx context.Context, tx *gorm.DB, userID, collectionID uuid.UUID, workspaceIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(workspaceIDs) == 0 {
		return nil
	}
	stamps := batchTimes(len(workspaceIDs))
	links := make([]*types.CollectionWorkspace, 0, len(workspaceIDs))
	for i, id := range workspaceIDs {
		links = append(links, &types.CollectionWorkspace{UserID: userID, CollectionID: collectionID, WorkspaceID: id, CreatedAt: stamps[i]})
	}
	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		cr.log.Error("Failed to attach collection to workspaces", "collectionID", collectionID, "error", err)
		return err
	}
	return nil
}

func (cr *collectionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, collectionIDs []uuid.UUID) ([]*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Collection
	if len(collectionIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", collectionIDs).
		Find(&results).Error; err != nil {
		cr.log.Error("Failed to fetch collections by IDs", "error", err)
		return nil, err
	}
	return results, nil
}

func (cr *collectionRepo) GetByWorkspaceID(ctx context.Context, tx *gorm.DB, userID, workspaceID uuid.UUID) ([]*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.Collection
	if err := transaction.WithContext(ctx).
		Model(&types.Collection{}).
		Select("collections.*").
		Joins("JOIN collection_workspaces ON collection_workspaces.collection_id = collections.id").
		Where("collection_workspaces.workspace_id = ? AND collections.user_id = ?", workspaceID, userID).
		Order("collections.created_at DESC").
		Find(&results).Error; err != nil {
		cr.log.Error("Failed to fetch collections by workspace", "workspaceID", workspaceID, "error", err)
		return nil, err
	}
	return results, nil
}

// GetFiles returns the collection's files in the order they were added.
func (cr *collectionRepo) GetFiles(ctx context.Context, tx *gorm.DB, collectionID uuid.UUID) ([]*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.File
	if err := transaction.WithContext(ctx).
		Model(&types.File{}).
		Select("files.*").
		Joins("JOIN collection_files ON collection_files.file_id = files.id").
		Where("collection_files.collection_id = ?", collectionID).
		Order("collection_files.created_at ASC, collection_files.id ASC").
		Find(&results).Error; err != nil {
		cr.log.Error("Failed to fetch collection files", "collectionID", collectionID, "error", err)
		return nil, err
	}
	return results, nil
}

func (cr *collectionRepo) Update(ctx context.Context, tx *gorm.DB, collections []*types.Collection) ([]*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	for _, c := range collections {
		if err := transaction.WithContext(ctx).Save(c).Error; err != nil {
			cr.log.Error("Failed to update collection", "collectionID", c.ID, "error", err)
			return nil, err
		}
	}
	return collections, nil
}

func (cr *collectionRepo) RemoveFile(ctx context.Context, tx *gorm.DB, collectionID, fileID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if err := transaction.WithContext(ctx).
		Where("collection_id = ? AND file_id = ?", collectionID, fileID).
		Delete(&types.CollectionFile{}).Error; err != nil {
		cr.log.Error("Failed to remove file from collection", "collectionID", collectionID, "error", err)
		return err
	}
	return nil
}

// FullDeleteByIDs removes the collections and their links. Chats scoped to a
// deleted collection go with it.
func (cr *collectionRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, collectionIDs []uuid.UUID) error {
	cr.log.Info("Starting FullDeleteByIDs for Collections now...")
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(collectionIDs) == 0 {
		return nil
	}
	dependents := []interface{}{
		&types.CollectionFile{},
		&types.CollectionWorkspace{},
		&types.AssistantCollection{},
	}
	for _, d := range dependents {
		if err := transaction.WithContext(ctx).Where("collection_id IN ?", collectionIDs).Delete(d).Error; err != nil {
			cr.log.Error("Failed to delete collection dependents", "error", err)
			return err
		}
	}
	var chatIDs []uuid.UUID
	if err := transaction.WithContext(ctx).Model(&types.Chat{}).Where("collection_id IN ?", collectionIDs).Pluck("id", &chatIDs).Error; err != nil {
		return err
	}
	if len(chatIDs) > 0 {
		if err := transaction.WithContext(ctx).Where("chat_id IN ?", chatIDs).Delete(&types.ChatFileLink{}).Error; err != nil {
			return err
		}
		if err := transaction.WithContext(ctx).Where("id IN ?", chatIDs).Delete(&types.Chat{}).Error; err != nil {
			return err
		}
	}
	if err := transaction.WithContext(ctx).Where("id IN ?", collectionIDs).Delete(&types.Collection{}).Error; err != nil {
		cr.log.Error("Failed to delete collections", "error", err)
		return err
	}
	return nil
}
