package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type AccountRepo interface {
	Create(ctx context.Context, tx *gorm.DB, accounts []*types.Account) ([]*types.Account, error)
	GetByProviderAccount(ctx context.Context, tx *gorm.DB, provider, providerAccountID string) ([]*types.Account, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Account, error)
	Update(ctx context.Context, tx *gorm.DB, accounts []*types.Account) ([]*types.Account, error)
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	repoLog := baseLog.With("repo", "AccountRepo")
	return &accountRepo{db: db, log: repoLog}
}

func (ar *accountRepo) Create(ctx context.Context, tx *gorm.DB, accounts []*types.Account) ([]*types.Account, error) {
	ar.log.Info("Starting Create Accounts now...")
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	if len(accounts) == 0 {
		return []*types.Account{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&accounts).Error; err != nil {
		ar.log.Error("Failed to create accounts", "error", err)
		return nil, err
	}
	return accounts, nil
}

func (ar *accountRepo) GetByProviderAccount(ctx context.Context, tx *gorm.DB, provider, providerAccountID string) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Account
	if err := transaction.WithContext(ctx).
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		Find(&results).Error; err != nil {
		ar.log.Error("Failed to fetch account by provider", "provider", provider, "error", err)
		return nil, err
	}
	return results, nil
}

func (ar *accountRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	var results []*types.Account
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		ar.log.Error("Failed to fetch accounts by user ids", "error", err)
		return nil, err
	}
	return results, nil
}

func (ar *accountRepo) Update(ctx context.Context, tx *gorm.DB, accounts []*types.Account) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = ar.db
	}
	for _, a := range accounts {
		if err := transaction.WithContext(ctx).Save(a).Error; err != nil {
			ar.log.Error("Failed to update account", "accountID", a.ID, "error", err)
			return nil, err
		}
	}
	return accounts, nil
}
