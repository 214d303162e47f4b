package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type SessionRepo interface {
	// CREATE
	Create(ctx context.Context, tx *gorm.DB, sessions []*types.Session) ([]*types.Session, error)

	// READ
	GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.Session, error)
	GetBySessionTokens(ctx context.Context, tx *gorm.DB, sessionTokens []string) ([]*types.Session, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Session, error)

	// UPDATE
	Update(ctx context.Context, tx *gorm.DB, sessions []*types.Session) ([]*types.Session, error)

	// FULL (HARD) DELETE
	FullDeleteByIDs(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) error
	FullDeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

//------------------------------------------------------------------------------
// CREATE
//------------------------------------------------------------------------------

func (sr *sessionRepo) Create(ctx context.Context, tx *gorm.DB, sessions []*types.Session) ([]*types.Session, error) {
	sr.log.Info("Starting Create Sessions now...")

	// 1) Transaction check
	transaction := tx
	if transaction == nil {
		transaction = sr.db
		sr.log.Debug("Transaction is nil, using sr.db")
	}

	// 2) If no sessions, skip
	if len(sessions) == 0 {
		return []*types.Session{}, nil
	}

	// 3) Create
	if err := transaction.WithContext(ctx).Create(&sessions).Error; err != nil {
		sr.log.Error("Failed to create sessions", "error", err)
		return nil, err
	}
	sr.log.Info("Successfully created sessions", "count", len(sessions))
	return sessions, nil
}

//------------------------------------------------------------------------------
// READ
//------------------------------------------------------------------------------

func (sr *sessionRepo) GetByAccessTokens(ctx context.Context, tx *gorm.DB, accessTokens []string) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Session
	if len(accessTokens) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("access_token IN ?", accessTokens).
		Find(&results).Error; err != nil {
		sr.log.Error("Failed to fetch sessions by access tokens", "error", err)
		return nil, err
	}
	return results, nil
}

func (sr *sessionRepo) GetBySessionTokens(ctx context.Context, tx *gorm.DB, sessionTokens []string) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Session
	if len(sessionTokens) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("session_token IN ?", sessionTokens).
		Find(&results).Error; err != nil {
		sr.log.Error("Failed to fetch sessions by session tokens", "error", err)
		return nil, err
	}
	return results, nil
}

func (sr *sessionRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	var results []*types.Session
	if len(userIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		sr.log.Error("Failed to fetch sessions by user ids", "error", err)
		return nil, err
	}
	return results, nil
}

//------------------------------------------------------------------------------
// UPDATE
//------------------------------------------------------------------------------

func (sr *sessionRepo) Update(ctx context.Context, tx *gorm.DB, sessions []*types.Session) ([]*types.Session, error) {
	sr.log.Info("Starting Update Sessions now...")
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	for _, s := range sessions {
		if err := transaction.WithContext(ctx).Save(s).Error; err != nil {
			sr.log.Error("Failed to update session", "sessionID", s.ID, "error", err)
			return nil, err
		}
	}
	return sessions, nil
}

//------------------------------------------------------------------------------
// FULL (HARD) DELETE
//------------------------------------------------------------------------------

func (sr *sessionRepo) FullDeleteByIDs(ctx context.Context, tx *gorm.DB, sessionIDs []uuid.UUID) error {
	sr.log.Info("Starting FullDeleteByIDs for Sessions now...")
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	if len(sessionIDs) == 0 {
		return nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", sessionIDs).
		Delete(&types.Session{}).Error; err != nil {
		sr.log.Error("Failed to delete sessions", "error", err)
		return err
	}
	return nil
}

func (sr *sessionRepo) FullDeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db
	}
	res := transaction.WithContext(ctx).
		Where("expires < ?", now).
		Delete(&types.Session{})
	if res.Error != nil {
		sr.log.Error("Failed to delete expired sessions", "error", res.Error)
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
