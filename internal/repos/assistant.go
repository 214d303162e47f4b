package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type AssistantRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, assistants []*types.Assistant) ([]*types.Assistant, error)
	AttachFiles(ctx context.Context, tx *gorm.DB, userID, assistantID uuid.UUID, fileIDs []uuid.UUID) error
	AttachCollections(ctx context.Context, tx *gorm.DB, userID, assistantID uuid.UUID, collectionIDs []uuid.UUID) error
	AttachTools(ctx context.Context, tx *gorm.DB, userID, assistantID uuid.UUID, toolIDs []uuid.UUID) error

	// READ
	GetByIDs(ctx context.Context, tx *gorm.DB, assistantIDs []uuid.UUID) ([]*types.Assistant, error)
	GetVisibleInWorkspace(ctx context.Context, tx *gorm.DB, userID, workspaceID uuid.UUID) ([]*types.Assistant, error)
	GetSystemByNames(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Assistant, error)
	GetFiles(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID) ([]*types.File, error)
	GetCollections(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID) ([]*types.Collection, error)
	GetTools(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID) ([]*types.Tool, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, assistants []*types.Assistant) ([]*types.Assistant, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID, fields map[string]interface{}) (*types.Assistant, error)

	// FULL (HARD) DELETE
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, assistantIDs []uuid.UUID) error
}

type assistantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssistantRepo(db *gorm.DB, baseLog *logger.Logger) AssistantRepo {
	repoLog := baseLog.With("repo", "AssistantRepo")
	return &assistantRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (ar *assistantRepo) Create(ctx context.Context, tx *gorm.DB, assistants []*types.Assistant) ([]*types.Assistant, error) {
	ar.log.Info("Starting Create Assistants now...")
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(assistants) == 0 {
		return []*types.Assistant{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&assistants).Error; err != nil {
		ar.log.Error("Failed to create assistants", "error", err)
		return nil, err
	}
	ar.log.Info("Successfully created assistants", "count", len(assistants))
	return assistants, nil
}

func (ar *assistantRepo) AttachFiles(ctx context.Context, tx *gorm.DB, userID, assistantID uuid.UUID, fileIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(fileIDs) == 0 {
		return nil
	}
	stamps := batchTimes(len(fileIDs))
	links := make([]*types.AssistantFile, 0, len(fileIDs))
	for i, id := range fileIDs {
		links = append(links, &types.AssistantFile{UserID: userID, AssistantID: assistantID, FileID: id, CreatedAt: stamps[i]})
	}
	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		ar.log.Error("Failed to attach files to assistant", "assistantID", assistantID, "error", err)
		return err
	}
	return nil
}

func (ar *assistantRepo) AttachCollections(ctx context.Context, tx *gorm.DB, userID, assistantID uuid.UUID, collectionIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(collectionIDs) == 0 {
		return nil
	}
	stamps := batchTimes(len(collectionIDs))
	links := make([]*types.AssistantCollection, 0, len(collectionIDs))
	for i, id := range collectionIDs {
		links = append(links, &types.AssistantCollection{UserID: userID, AssistantID: assistantID, CollectionID: id, CreatedAt: stamps[i]})
	}
	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		ar.log.Error("Failed to attach collections to assistant", "assistantID", assistantID, "error", err)
		return err
	}
	return nil
}

func (ar *assistantRepo) AttachTools(ctx context.Context, tx *gorm.DB, userID, assistantID uuid.UUID, toolIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(toolIDs) == 0 {
		return nil
	}
	stamps := batchTimes(len(toolIDs))
	links := make([]*types.AssistantTool, 0, len(toolIDs))
	for i, id := range toolIDs {
		links = append(links, &types.AssistantTool{UserID: userID, AssistantID: assistantID, ToolID: id, CreatedAt: stamps[i]})
	}
	if err := transaction.WithContext(ctx).Create(&links).Error; err != nil {
		ar.log.Error("Failed to attach tools to assistant", "assistantID", assistantID, "error", err)
		return err
	}
	return nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

func (ar *assistantRepo) GetByIDs(ctx context.Context, tx *gorm.DB, assistantIDs []uuid.UUID) ([]*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Assistant
	if len(assistantIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", assistantIDs).
		Find(&results).Error; err != nil {
		ar.log.Error("Failed to fetch assistants by IDs", "error", err)
		return nil, err
	}
	return results, nil
}

// GetVisibleInWorkspace returns the caller's assistants in the workspace plus
// every public and system assistant, newest first.
func (ar *assistantRepo) GetVisibleInWorkspace(ctx context.Context, tx *gorm.DB, userID, workspaceID uuid.UUID) ([]*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Assistant
	if err := transaction.WithContext(ctx).
		Where("(user_id = ? AND workspace_id = ?) OR sharing = ? OR is_system = ?", userID, workspaceID, types.SharingPublic, true).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		ar.log.Error("Failed to fetch visible assistants", "workspaceID", workspaceID, "error", err)
		return nil, err
	}
	return results, nil
}

func (ar *assistantRepo) GetSystemByNames(ctx context.Context, tx *gorm.DB, names []string) ([]*types.Assistant, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Assistant
	if len(names) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("is_system = ? AND name IN ?", true, names).
		Find(&results).Error; err != nil {
		ar.log.Error("Failed to fetch system assistants", "error", err)
		return nil, err
	}
	return results, nil
}

func (ar *assistantRepo) GetFiles(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID) ([]*types.File, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.File
	if err := transaction.WithContext(ctx).
		Model(&types.File{}).
		Select("files.*").
		Joins("JOIN assistant_files ON assistant_files.file_id = files.id").
		Where("assistant_files.assistant_id = ?", assistantID).
		Order("assistant_files.created_at ASC, assistant_files.id ASC").
		Find(&results).Error; err != nil {
		ar.log.Error("Failed to fetch assistant files", "assistantID", assistantID, "error", err)
		return nil, err
	}
	return results, nil
}

func (ar *assistantRepo) GetCollections(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID) ([]*types.Collection, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Collection
	if err := transaction.WithContext(ctx).
		Model(&types.Collection{}).
		Select("collections.*").
		Joins("JOIN assistant_collections ON assistant_collections.collection_id = collections.id").
		Where("assistant_collections.assistant_id = ?", assistantID).
		Order("assistant_collections.created_at ASC, assistant_collections.id ASC").
		Find(&results).Error; err != nil {
		ar.log.Error("Failed to fetch assistant collections", "assistantID", assistantID, "error", err)
		return nil, err
	}
	return results, nil
}

func (ar *assistantRepo) GetTools(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID) ([]*types.Tool, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Tool
	if err := transaction.WithContext(ctx).
		Model(&types.Tool{}).
		Select("tools.*").
		Joins("JOIN assistant_tools ON assistant_tools.tool_id = tools.id").
		Where("assistant_tools.assistant_id = ?", assistantID).
		Order("assistant_tools.created_at ASC, assistant_tools.id ASC").
		Find(&results).Error; err != nil {
		ar.log.Error("Failed to fetch assistant tools", "assistantID", assistantID, "error", err)
		return nil, err
	}
	return results, nil
}

// ----------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------

func (ar *assistantRepo) Update(ctx context.Context, tx *gorm.DB, assistants []*types.Assistant) ([]*types.Assistant, error) {
	ar.log.Info("Starting Update Assistants now...")
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	for _, a := range assistants {
		if err := transaction.WithContext(ctx).Save(a).Error; err != nil {
			ar.log.Error("Failed to update assistant", "assistantID", a.ID, "error", err)
			return nil, err
		}
	}
	return assistants, nil
}

// UpdateFields writes the given column/value pairs and returns the fresh row,
// or nil when no assistant has that id.
func (ar *assistantRepo) UpdateFields(ctx context.Context, tx *gorm.DB, assistantID uuid.UUID, fields map[string]interface{}) (*types.Assistant, error) {
	ar.log.Info("Starting UpdateFields for Assistant now...", "assistantID", assistantID)
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Assistant{}).
		Where("id = ?", assistantID).
		Updates(fields)
	if res.Error != nil {
		ar.log.Error("Failed to update assistant fields", "assistantID", assistantID, "error", res.Error)
		return nil, res.Error
	}
	var results []*types.Assistant
	if err := transaction.WithContext(ctx).Where("id = ?", assistantID).Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// ----------------------------------------------------------------
// FULL (HARD) DELETE
// ----------------------------------------------------------------

func (ar *assistantRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, assistantIDs []uuid.UUID) error {
	ar.log.Info("Starting FullDeleteByIDs for Assistants now...")
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(assistantIDs) == 0 {
		return nil
	}
	for _, join := range []interface{}{&types.AssistantFile{}, &types.AssistantCollection{}, &types.AssistantTool{}} {
		if err := transaction.WithContext(ctx).Where("assistant_id IN ?", assistantIDs).Delete(join).Error; err != nil {
			ar.log.Error("Failed to delete assistant links", "error", err)
			return err
		}
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", assistantIDs).
		Delete(&types.Assistant{}).Error; err != nil {
		ar.log.Error("Failed to delete assistants", "error", err)
		return err
	}
	return nil
}
