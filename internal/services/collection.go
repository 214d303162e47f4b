package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/types"
	"github.com/MForte-AI/character-dev-1225/internal/utils"
)

type CollectionInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CollectionService interface {
	Create(ctx context.Context, workspaceID uuid.UUID, in CollectionInput) (*types.Collection, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.Collection, error)
	Get(ctx context.Context, collectionID uuid.UUID) (*types.Collection, error)
	Update(ctx context.Context, collectionID uuid.UUID, in CollectionInput) (*types.Collection, error)
	Delete(ctx context.Context, collectionID uuid.UUID) error
	Files(ctx context.Context, collectionID uuid.UUID) ([]*types.File, error)
	AddFile(ctx context.Context, collectionID, fileID uuid.UUID) error
	RemoveFile(ctx context.Context, collectionID, fileID uuid.UUID) error
}

type collectionService struct {
	db             *gorm.DB
	log            *logger.Logger
	collectionRepo repos.CollectionRepo
	workspaceRepo  repos.WorkspaceRepo
	fileRepo       repos.FileRepo
}

func NewCollectionService(db *gorm.DB, log *logger.Logger, collectionRepo repos.CollectionRepo, workspaceRepo repos.WorkspaceRepo, fileRepo repos.FileRepo) CollectionService {
	serviceLog := log.With("service", "CollectionService")
	return &collectionService{
		db:             db,
		log:            serviceLog,
		collectionRepo: collectionRepo,
		workspaceRepo:  workspaceRepo,
		fileRepo:       fileRepo,
	}
}

func (cs *collectionService) Create(ctx context.Context, workspaceID uuid.UUID, in CollectionInput) (*types.Collection, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if in.Name == nil {
		return nil, invalid("Collection name is required")
	}
	collection := &types.Collection{UserID: userID, Sharing: types.SharingPrivate}
	if err := applyCollectionInput(collection, in); err != nil {
		return nil, err
	}
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedWorkspace(ctx, tx, cs.workspaceRepo, userID, workspaceID); err != nil {
			return err
		}
		if _, err := cs.collectionRepo.Create(ctx, tx, []*types.Collection{collection}); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return cs.collectionRepo.AttachWorkspaces(ctx, tx, userID, collection.ID, []uuid.UUID{workspaceID})
	})
	if err != nil {
		return nil, err
	}
	return collection, nil
}

func (cs *collectionService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.Collection, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if _, err := ownedWorkspace(ctx, nil, cs.workspaceRepo, userID, workspaceID); err != nil {
		return nil, err
	}
	return cs.collectionRepo.GetByWorkspaceID(ctx, nil, userID, workspaceID)
}

func (cs *collectionService) Get(ctx context.Context, collectionID uuid.UUID) (*types.Collection, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return ownedCollection(ctx, nil, cs.collectionRepo, userID, collectionID)
}

func (cs *collectionService) Update(ctx context.Context, collectionID uuid.UUID, in CollectionInput) (*types.Collection, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	var updated *types.Collection
	err := cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		collection, err := ownedCollection(ctx, tx, cs.collectionRepo, userID, collectionID)
		if err != nil {
			return err
		}
		if err := applyCollectionInput(collection, in); err != nil {
			return err
		}
		saved, err := cs.collectionRepo.Update(ctx, tx, []*types.Collection{collection})
		if err != nil {
			return fmt.Errorf("failed to update collection: %w", err)
		}
		updated = saved[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the collection, its links and the chats scoped to it.
// The member files stay.
func (cs *collectionService) Delete(ctx context.Context, collectionID uuid.UUID) error {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCollection(ctx, tx, cs.collectionRepo, userID, collectionID); err != nil {
			return err
		}
		return cs.collectionRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{collectionID})
	})
}

func (cs *collectionService) Files(ctx context.Context, collectionID uuid.UUID) ([]*types.File, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if _, err := ownedCollection(ctx, nil, cs.collectionRepo, userID, collectionID); err != nil {
		return nil, err
	}
	return cs.collectionRepo.GetFiles(ctx, nil, collectionID)
}

func (cs *collectionService) AddFile(ctx context.Context, collectionID, fileID uuid.UUID) error {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCollection(ctx, tx, cs.collectionRepo, userID, collectionID); err != nil {
			return err
		}
		files, err := cs.fileRepo.GetByIDs(ctx, tx, []uuid.UUID{fileID})
		if err != nil {
			return fmt.Errorf("failed to fetch file: %w", err)
		}
		if len(files) == 0 || files[0].UserID != userID {
			return ErrNotFound
		}
		if err := cs.collectionRepo.AddFiles(ctx, tx, userID, collectionID, []uuid.UUID{fileID}); err != nil {
			if isUniqueViolation(err) {
				return invalid("File is already in this collection")
			}
			return fmt.Errorf("failed to add file to collection: %w", err)
		}
		return nil
	})
}

func (cs *collectionService) RemoveFile(ctx context.Context, collectionID, fileID uuid.UUID) error {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	return cs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ownedCollection(ctx, tx, cs.collectionRepo, userID, collectionID); err != nil {
			return err
		}
		return cs.collectionRepo.RemoveFile(ctx, tx, collectionID, fileID)
	})
}

func applyCollectionInput(c *types.Collection, in CollectionInput) error {
	if in.Name != nil {
		name := utils.ParseInputString(*in.Name)
		if name == "" {
			return invalid("Collection name is required")
		}
		if err := utils.CheckMaxLength("Collection name", name, types.MaxCollectionNameLength); err != nil {
			return invalid("%s", err.Error())
		}
		c.Name = name
	}
	if in.Description != nil {
		desc := utils.ParseInputString(*in.Description)
		if err := utils.CheckMaxLength("Collection description", desc, types.MaxCollectionDescriptionLength); err != nil {
			return invalid("%s", err.Error())
		}
		c.Description = desc
	}
	return nil
}

func ownedCollection(ctx context.Context, tx *gorm.DB, repo repos.CollectionRepo, userID, collectionID uuid.UUID) (*types.Collection, error) {
	found, err := repo.GetByIDs(ctx, tx, []uuid.UUID{collectionID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch collection: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, ErrNotFound
	}
	return found[0], nil
}
