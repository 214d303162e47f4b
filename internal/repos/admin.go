package repos

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
)

// countable lists the table/column pairs a deletion check may count. Table
// and column names are interpolated, so nothing outside this set is accepted.
var countable = map[string]map[string]bool{
	"files":                 {"id": true},
	"file_items":            {"file_id": true},
	"chat_files":            {"file_id": true},
	"collection_files":      {"file_id": true, "collection_id": true},
	"assistant_files":       {"file_id": true},
	"file_workspaces":       {"file_id": true},
	"collections":           {"id": true},
	"collection_workspaces": {"collection_id": true},
	"assistant_collections": {"collection_id": true},
	"chats":                 {"collection_id": true},
}

type AdminRepo interface {
	CountWhere(ctx context.Context, tx *gorm.DB, table, column string, value interface{}) (int64, error)
}

type adminRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAdminRepo(db *gorm.DB, baseLog *logger.Logger) AdminRepo {
	repoLog := baseLog.With("repo", "AdminRepo")
	return &adminRepo{db: db, log: repoLog}
}

func (ar *adminRepo) CountWhere(ctx context.Context, tx *gorm.DB, table, column string, value interface{}) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if cols, ok := countable[table]; !ok || !cols[column] {
		return 0, fmt.Errorf("count not allowed on %s.%s", table, column)
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Table(table).
		Where(fmt.Sprintf("%s = ?", column), value).
		Count(&count).Error; err != nil {
		ar.log.Error("Failed to count rows", "table", table, "column", column, "error", err)
		return 0, err
	}
	return count, nil
}
