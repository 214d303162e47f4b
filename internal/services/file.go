package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/types"
	"github.com/MForte-AI/character-dev-1225/internal/utils"
)

// FileUpload is one multipart document upload.
type FileUpload struct {
	WorkspaceID  uuid.UUID
	CollectionID *uuid.UUID
	Name         string
	Description  string
	Type         string
	Size         int64
	Tokens       int
	DocumentType string
	Logline      string
	Genre        string
	PageCount    int
	Body         io.Reader
}

type FileMetadata struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DocumentType *string `json:"documentType"`
	Logline      *string `json:"logline"`
	Genre        *string `json:"genre"`
	PageCount    *int    `json:"pageCount"`
}

type FileService interface {
	Upload(ctx context.Context, up FileUpload) (*types.File, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.File, error)
	Get(ctx context.Context, fileID uuid.UUID) (*types.File, error)
	UpdateMetadata(ctx context.Context, fileID uuid.UUID, md FileMetadata) (*types.File, error)
	Delete(ctx context.Context, fileID uuid.UUID) error
	DownloadURL(ctx context.Context, fileID uuid.UUID) (string, error)
}

type fileService struct {
	db             *gorm.DB
	log            *logger.Logger
	fileRepo       repos.FileRepo
	workspaceRepo  repos.WorkspaceRepo
	collectionRepo repos.CollectionRepo
	bucketService  BucketService
}

func NewFileService(
	db *gorm.DB,
	log *logger.Logger,
	fileRepo repos.FileRepo,
	workspaceRepo repos.WorkspaceRepo,
	collectionRepo repos.CollectionRepo,
	bucketService BucketService,
) FileService {
	serviceLog := log.With("service", "FileService")
	return &fileService{
		db:             db,
		log:            serviceLog,
		fileRepo:       fileRepo,
		workspaceRepo:  workspaceRepo,
		collectionRepo: collectionRepo,
		bucketService:  bucketService,
	}
}

// DocumentKey is the bucket key for an uploaded document.
func DocumentKey(userID uuid.UUID, at time.Time, name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return fmt.Sprintf("documents/%s/%d-%s", userID, at.UnixMilli(), base)
}

// Upload validates the metadata, stores the bytes and then writes the row.
// A failed row insert leaves the object in the bucket; the key is logged.
func (fs *fileService) Upload(ctx context.Context, up FileUpload) (*types.File, error) {
	ctx = context.WithoutCancel(ctx)
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	//1) Validate
	file := &types.File{
		UserID:  userID,
		Type:    up.Type,
		Size:    up.Size,
		Tokens:  up.Tokens,
		Sharing: types.SharingPrivate,
	}
	if err := applyFileMetadata(file, FileMetadata{
		Name:         &up.Name,
		Description:  &up.Description,
		DocumentType: &up.DocumentType,
		Logline:      &up.Logline,
		Genre:        &up.Genre,
		PageCount:    &up.PageCount,
	}); err != nil {
		return nil, err
	}
	if _, err := ownedWorkspace(ctx, nil, fs.workspaceRepo, userID, up.WorkspaceID); err != nil {
		return nil, err
	}
	if up.CollectionID != nil {
		if _, err := ownedCollection(ctx, nil, fs.collectionRepo, userID, *up.CollectionID); err != nil {
			return nil, err
		}
	}
	if fs.bucketService == nil {
		return nil, ErrStorageDenied
	}

	//2) Upload
	key := DocumentKey(userID, time.Now(), file.Name)
	if err := fs.bucketService.UploadFile(ctx, key, up.Type, up.Body); err != nil {
		return nil, fmt.Errorf("failed to upload document: %w", err)
	}
	file.FilePath = key

	//3) Rows
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := fs.fileRepo.Create(ctx, tx, []*types.File{file}); err != nil {
			return fmt.Errorf("failed to create file row: %w", err)
		}
		if err := fs.fileRepo.AttachWorkspaces(ctx, tx, userID, file.ID, []uuid.UUID{up.WorkspaceID}); err != nil {
			return fmt.Errorf("failed to link file to workspace: %w", err)
		}
		if up.CollectionID != nil {
			if err := fs.collectionRepo.AddFiles(ctx, tx, userID, *up.CollectionID, []uuid.UUID{file.ID}); err != nil {
				return fmt.Errorf("failed to add file to collection: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		fs.log.Error("Document uploaded but database write failed", "path", key, "error", err)
		return nil, err
	}
	fs.log.Info("Uploaded document", "fileID", file.ID, "path", key)
	return file, nil
}

func (fs *fileService) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*types.File, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if _, err := ownedWorkspace(ctx, nil, fs.workspaceRepo, userID, workspaceID); err != nil {
		return nil, err
	}
	return fs.fileRepo.GetByWorkspaceID(ctx, nil, userID, workspaceID)
}

func (fs *fileService) Get(ctx context.Context, fileID uuid.UUID) (*types.File, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return fs.ownedFile(ctx, nil, userID, fileID)
}

func (fs *fileService) UpdateMetadata(ctx context.Context, fileID uuid.UUID, md FileMetadata) (*types.File, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	var updated *types.File
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := fs.ownedFile(ctx, tx, userID, fileID)
		if err != nil {
			return err
		}
		if err := applyFileMetadata(file, md); err != nil {
			return err
		}
		saved, err := fs.fileRepo.Update(ctx, tx, []*types.File{file})
		if err != nil {
			return fmt.Errorf("failed to update file: %w", err)
		}
		updated = saved[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the rows first, then the object. A failed object delete
// is logged and not reported.
func (fs *fileService) Delete(ctx context.Context, fileID uuid.UUID) error {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return ErrUnauthorized
	}
	var filePath string
	err := fs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		file, err := fs.ownedFile(ctx, tx, userID, fileID)
		if err != nil {
			return err
		}
		filePath = file.FilePath
		return fs.fileRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{file.ID})
	})
	if err != nil {
		return err
	}
	if filePath != "" && fs.bucketService != nil {
		if dErr := fs.bucketService.DeleteFile(ctx, filePath); dErr != nil {
			fs.log.Error("File row deleted but object delete failed", "path", filePath, "error", dErr)
		}
	}
	return nil
}

func (fs *fileService) DownloadURL(ctx context.Context, fileID uuid.UUID) (string, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return "", ErrUnauthorized
	}
	file, err := fs.ownedFile(ctx, nil, userID, fileID)
	if err != nil {
		return "", err
	}
	if fs.bucketService == nil {
		return "", ErrStorageDenied
	}
	return fs.bucketService.SignedURL(ctx, file.FilePath, SignedURLTTL)
}

func (fs *fileService) ownedFile(ctx context.Context, tx *gorm.DB, userID, fileID uuid.UUID) (*types.File, error) {
	found, err := fs.fileRepo.GetByIDs(ctx, tx, []uuid.UUID{fileID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch file: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, ErrNotFound
	}
	return found[0], nil
}

func applyFileMetadata(f *types.File, md FileMetadata) error {
	if md.Name != nil {
		name := utils.ParseInputString(*md.Name)
		if name == "" {
			return invalid("File name is required")
		}
		if err := utils.CheckMaxLength("File name", name, types.MaxFileNameLength); err != nil {
			return invalid("%s", err.Error())
		}
		f.Name = name
	}
	if md.Description != nil {
		desc := utils.ParseInputString(*md.Description)
		if err := utils.CheckMaxLength("File description", desc, types.MaxFileDescriptionLength); err != nil {
			return invalid("%s", err.Error())
		}
		f.Description = desc
	}
	if md.DocumentType != nil {
		f.DocumentType = utils.ParseInputString(*md.DocumentType)
	}
	if md.Logline != nil {
		logline := utils.ParseInputString(*md.Logline)
		if err := utils.CheckMaxLength("Logline", logline, types.MaxLoglineLength); err != nil {
			return invalid("%s", err.Error())
		}
		f.Logline = logline
	}
	if md.Genre != nil {
		genre := utils.ParseInputString(*md.Genre)
		if err := utils.CheckMaxLength("Genre", genre, types.MaxGenreLength); err != nil {
			return invalid("%s", err.Error())
		}
		f.Genre = genre
	}
	if md.PageCount != nil {
		if *md.PageCount <= 0 {
			return invalid("Page count must be greater than 0")
		}
		f.PageCount = *md.PageCount
	}
	return nil
}
