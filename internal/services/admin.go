package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

// AssistantUpdateFields are the columns the admin route may write.
var AssistantUpdateFields = []string{
	"name",
	"description",
	"prompt",
	"temperature",
	"context_length",
	"include_profile_context",
	"include_workspace_instructions",
	"model",
	"image_path",
	"sharing",
	"folder_id",
	"embeddings_provider",
}

// PickUpdateFields keeps the allow-listed keys of updates. Values are
// passed through untouched.
func PickUpdateFields(updates map[string]interface{}) map[string]interface{} {
	picked := make(map[string]interface{})
	for _, key := range AssistantUpdateFields {
		if v, ok := updates[key]; ok {
			picked[key] = v
		}
	}
	return picked
}

type DeletionCheck struct {
	CollectionID string `json:"collectionId"`
	FileID       string `json:"fileId"`
	FilePath     string `json:"filePath"`
}

type StorageStatus struct {
	Path   string `json:"path"`
	Status string `json:"status"`
}

// DeletionReport has a map per checked entity keyed by table name, plus
// "id".
type DeletionReport struct {
	Timestamp  string                 `json:"timestamp"`
	Collection map[string]interface{} `json:"collection,omitempty"`
	File       map[string]interface{} `json:"file,omitempty"`
	Storage    *StorageStatus         `json:"storage,omitempty"`
}

type tableCount struct {
	table  string
	column string
}

var collectionCounts = []tableCount{
	{"collections", "id"},
	{"collection_files", "collection_id"},
	{"collection_workspaces", "collection_id"},
	{"assistant_collections", "collection_id"},
	{"chats", "collection_id"},
}

var fileCounts = []tableCount{
	{"files", "id"},
	{"file_items", "file_id"},
	{"chat_files", "file_id"},
	{"collection_files", "file_id"},
	{"assistant_files", "file_id"},
	{"file_workspaces", "file_id"},
}

type AdminService interface {
	IsAdmin(ctx context.Context) (bool, error)
	UpdateAssistant(ctx context.Context, assistantID uuid.UUID, updates map[string]interface{}) (*types.Assistant, error)
	VerifyDeletion(ctx context.Context, check DeletionCheck) (*DeletionReport, error)
}

type adminService struct {
	db            *gorm.DB
	log           *logger.Logger
	adminRepo     repos.AdminRepo
	assistantRepo repos.AssistantRepo
	profileRepo   repos.ProfileRepo
	bucketService BucketService
}

func NewAdminService(
	db *gorm.DB,
	log *logger.Logger,
	adminRepo repos.AdminRepo,
	assistantRepo repos.AssistantRepo,
	profileRepo repos.ProfileRepo,
	bucketService BucketService,
) AdminService {
	serviceLog := log.With("service", "AdminService")
	return &adminService{
		db:            db,
		log:           serviceLog,
		adminRepo:     adminRepo,
		assistantRepo: assistantRepo,
		profileRepo:   profileRepo,
		bucketService: bucketService,
	}
}

// IsAdmin reads the caller's role from the profile row, not the token, so
// a demotion applies immediately.
func (as *adminService) IsAdmin(ctx context.Context) (bool, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return false, ErrUnauthorized
	}
	profiles, err := as.profileRepo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return false, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if len(profiles) == 0 {
		return false, nil
	}
	return profiles[0].IsAdmin(), nil
}

func (as *adminService) UpdateAssistant(ctx context.Context, assistantID uuid.UUID, updates map[string]interface{}) (*types.Assistant, error) {
	fields := PickUpdateFields(updates)
	if len(fields) == 0 {
		return nil, invalid("No valid fields provided.")
	}
	assistant, err := as.assistantRepo.UpdateFields(ctx, nil, assistantID, fields)
	if err != nil {
		return nil, fmt.Errorf("failed to update assistant: %w", err)
	}
	if assistant == nil {
		return nil, ErrNotFound
	}
	as.log.Info("Admin updated assistant", "assistantID", assistantID, "fields", len(fields))
	return assistant, nil
}

// VerifyDeletion counts the rows still referencing the given collection
// and file, and checks the object path. Counts run concurrently.
func (as *adminService) VerifyDeletion(ctx context.Context, check DeletionCheck) (*DeletionReport, error) {
	collectionID := strings.TrimSpace(check.CollectionID)
	fileID := strings.TrimSpace(check.FileID)
	filePath := strings.TrimSpace(check.FilePath)
	if collectionID == "" && fileID == "" && filePath == "" {
		return nil, invalid("Provide a collectionId, fileId, or filePath.")
	}
	if collectionID != "" {
		if _, err := uuid.Parse(collectionID); err != nil {
			return nil, invalid("collectionId must be a UUID.")
		}
	}
	if fileID != "" {
		if _, err := uuid.Parse(fileID); err != nil {
			return nil, invalid("fileId must be a UUID.")
		}
	}

	report := &DeletionReport{Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
	g, gctx := errgroup.WithContext(ctx)

	var collectionResults, fileResults []int64
	if collectionID != "" {
		collectionResults = make([]int64, len(collectionCounts))
		as.countAll(gctx, g, collectionCounts, collectionID, collectionResults)
	}
	if fileID != "" {
		fileResults = make([]int64, len(fileCounts))
		as.countAll(gctx, g, fileCounts, fileID, fileResults)
	}
	if filePath != "" {
		g.Go(func() error {
			status, err := as.storageStatus(gctx, filePath)
			if err != nil {
				return fmt.Errorf("storage: %w", err)
			}
			report.Storage = &StorageStatus{Path: filePath, Status: status}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		as.log.Error("Deletion verification failed", "error", err)
		return nil, err
	}

	if collectionID != "" {
		report.Collection = countsMap(collectionID, collectionCounts, collectionResults)
	}
	if fileID != "" {
		report.File = countsMap(fileID, fileCounts, fileResults)
	}
	return report, nil
}

func (as *adminService) countAll(ctx context.Context, g *errgroup.Group, counts []tableCount, id string, out []int64) {
	for i, tc := range counts {
		i, tc := i, tc
		g.Go(func() error {
			n, err := as.adminRepo.CountWhere(ctx, nil, tc.table, tc.column, id)
			if err != nil {
				return fmt.Errorf("%s: %w", tc.table, err)
			}
			out[i] = n
			return nil
		})
	}
}

func (as *adminService) storageStatus(ctx context.Context, path string) (string, error) {
	if !ValidObjectPath(path) {
		return ObjectInvalidPath, nil
	}
	if as.bucketService == nil {
		return "", ErrStorageDenied
	}
	return as.bucketService.Stat(ctx, path)
}

func countsMap(id string, counts []tableCount, results []int64) map[string]interface{} {
	m := map[string]interface{}{"id": id}
	for i, tc := range counts {
		m[tc.table] = results[i]
	}
	return m
}
