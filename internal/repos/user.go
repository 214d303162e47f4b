package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type UserRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)

	// READ
	GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

// ----------------------------------------------------------------
// CREATE
// ----------------------------------------------------------------

func (ur *userRepo) Create(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	ur.log.Info("Starting Create Users now...")

	// 1) Check transaction
	transaction := tx
	if transaction == nil {
		transaction = ur.db
		ur.log.Debug("Transaction is nil, using ur.db instead")
	}

	// 2) Check if empty
	if len(users) == 0 {
		ur.log.Debug("Users array is empty, returning empty slice", "count", 0)
		return []*types.User{}, nil
	}

	// 3) Create
	if err := transaction.WithContext(ctx).Create(&users).Error; err != nil {
		ur.log.Error("Failed to create users", "error", err)
		return nil, err
	}
	ur.log.Info("Successfully created users", "count", len(users))
	return users, nil
}

// ----------------------------------------------------------------
// READ
// ----------------------------------------------------------------

func (ur *userRepo) GetByEmails(ctx context.Context, tx *gorm.DB, userEmails []string) ([]*types.User, error) {
	ur.log.Info("Starting GetByEmails for Users now...")
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}

	var results []*types.User
	if len(userEmails) == 0 {
		ur.log.Debug("No userEmails provided, returning empty slice")
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("email IN ?", userEmails).
		Find(&results).Error; err != nil {
		ur.log.Error("Failed to fetch users by emails", "error", err)
		return nil, err
	}
	ur.log.Debug("Successfully fetched users by emails", "count", len(results))
	return results, nil
}

// ----------------------------------------------------------------
// UPDATE
// ----------------------------------------------------------------

func (ur *userRepo) Update(ctx context.Context, tx *gorm.DB, users []*types.User) ([]*types.User, error) {
	ur.log.Info("Starting Update Users now...")
	transaction := tx
	if transaction == nil {
		transaction = ur.db
	}
	for _, u := range users {
		if err := transaction.WithContext(ctx).Save(u).Error; err != nil {
			ur.log.Error("Failed to update user", "userID", u.ID, "error", err)
			return nil, err
		}
	}
	return users, nil
}
