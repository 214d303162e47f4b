package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type ProfileRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, profiles []*types.Profile) ([]*types.Profile, error)

	// READ
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Profile, error)
	UsernameTaken(ctx context.Context, tx *gorm.DB, username string, exceptUserID uuid.UUID) (bool, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, profiles []*types.Profile) ([]*types.Profile, error)
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	repoLog := baseLog.With("repo", "ProfileRepo")
	return &profileRepo{db: db, log: repoLog}
}

func (pr *profileRepo) Create(ctx context.Context, tx *gorm.DB, profiles []*types.Profile) ([]*types.Profile, error) {
	pr.log.Info("Starting Create Profiles now...")
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	if len(profiles) == 0 {
		return []*types.Profile{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&profiles).Error; err != nil {
		pr.log.Error("Failed to create profiles", "error", err)
		return nil, err
	}
	pr.log.Info("Successfully created profiles", "count", len(profiles))
	return profiles, nil
}

func (pr *profileRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Profile, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var results []*types.Profile
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		pr.log.Error("Failed to fetch profiles by user ids", "error", err)
		return nil, err
	}
	return results, nil
}

func (pr *profileRepo) UsernameTaken(ctx context.Context, tx *gorm.DB, username string, exceptUserID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Profile{}).
		Where("username = ? AND user_id <> ?", username, exceptUserID).
		Count(&count).Error; err != nil {
		pr.log.Error("Failed to count profiles by username", "error", err)
		return false, err
	}
	return count > 0, nil
}

func (pr *profileRepo) Update(ctx context.Context, tx *gorm.DB, profiles []*types.Profile) ([]*types.Profile, error) {
	pr.log.Info("Starting Update Profiles now...")
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}
	for _, p := range profiles {
		if err := transaction.WithContext(ctx).Save(p).Error; err != nil {
			pr.log.Error("Failed to update profile", "profileID", p.ID, "error", err)
			return nil, err
		}
	}
	return profiles, nil
}
