package services

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/types"
	"github.com/MForte-AI/character-dev-1225/internal/utils"
)

// ProfileUpdate holds the settings-form fields. Nil means unchanged.
type ProfileUpdate struct {
	DisplayName    *string `json:"displayName"`
	Username       *string `json:"username"`
	ProfileContext *string `json:"profileContext"`
	HasOnboarded   *bool   `json:"hasOnboarded"`
	UseAzureOpenai *bool   `json:"useAzureOpenai"`

	AnthropicAPIKey      *string `json:"anthropicApiKey"`
	OpenaiAPIKey         *string `json:"openaiApiKey"`
	OpenaiOrganizationID *string `json:"openaiOrganizationId"`
	MistralAPIKey        *string `json:"mistralApiKey"`
	GoogleGeminiAPIKey   *string `json:"googleGeminiApiKey"`
	GroqAPIKey           *string `json:"groqApiKey"`
	PerplexityAPIKey     *string `json:"perplexityApiKey"`
	OpenrouterAPIKey     *string `json:"openrouterApiKey"`

	AzureOpenaiAPIKey       *string `json:"azureOpenaiApiKey"`
	AzureOpenaiEndpoint     *string `json:"azureOpenaiEndpoint"`
	AzureOpenai35TurboID    *string `json:"azureOpenai35TurboId"`
	AzureOpenai45TurboID    *string `json:"azureOpenai45TurboId"`
	AzureOpenai45VisionID   *string `json:"azureOpenai45VisionId"`
	AzureOpenaiEmbeddingsID *string `json:"azureOpenaiEmbeddingsId"`
}

type ProfileService interface {
	Get(ctx context.Context) (*types.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	Update(ctx context.Context, upd ProfileUpdate) (*types.Profile, error)
	UploadImage(ctx context.Context, r io.Reader) (*types.Profile, error)
}

type profileService struct {
	db            *gorm.DB
	log           *logger.Logger
	profileRepo   repos.ProfileRepo
	avatarService AvatarService
	bucketService BucketService
}

func NewProfileService(db *gorm.DB, log *logger.Logger, profileRepo repos.ProfileRepo, avatarService AvatarService, bucketService BucketService) ProfileService {
	serviceLog := log.With("service", "ProfileService")
	return &profileService{
		db:            db,
		log:           serviceLog,
		profileRepo:   profileRepo,
		avatarService: avatarService,
		bucketService: bucketService,
	}
}

func (ps *profileService) Get(ctx context.Context) (*types.Profile, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	return ps.GetByUserID(ctx, userID)
}

func (ps *profileService) GetByUserID(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	profiles, err := ps.profileRepo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return profiles[0], nil
}

func (ps *profileService) Update(ctx context.Context, upd ProfileUpdate) (*types.Profile, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}

	var updated *types.Profile
	err := ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//1) Current Profile
		profiles, err := ps.profileRepo.GetByUserIDs(ctx, tx, []uuid.UUID{userID})
		if err != nil {
			return fmt.Errorf("failed to fetch profile: %w", err)
		}
		if len(profiles) == 0 {
			return ErrNotFound
		}
		profile := profiles[0]

		//2) Validate + Apply
		if upd.DisplayName != nil {
			name := utils.ParseInputString(*upd.DisplayName)
			if err := utils.CheckMaxLength("Display name", name, types.MaxDisplayNameLength); err != nil {
				return invalid("%s", err.Error())
			}
			profile.DisplayName = name
		}
		if upd.Username != nil {
			username := utils.ParseInputString(*upd.Username)
			n := utf8.RuneCountInString(username)
			if n < types.MinUsernameLength || n > types.MaxUsernameLength {
				return invalid("Username must be between %d and %d characters", types.MinUsernameLength, types.MaxUsernameLength)
			}
			if username != profile.Username {
				taken, tErr := ps.profileRepo.UsernameTaken(ctx, tx, username, userID)
				if tErr != nil {
					return fmt.Errorf("failed to check username: %w", tErr)
				}
				if taken {
					return invalid("Username is already taken")
				}
			}
			profile.Username = username
		}
		if upd.ProfileContext != nil {
			if err := utils.CheckMaxLength("Profile context", *upd.ProfileContext, types.MaxProfileContextLength); err != nil {
				return invalid("%s", err.Error())
			}
			profile.ProfileContext = *upd.ProfileContext
		}
		if upd.HasOnboarded != nil {
			profile.HasOnboarded = *upd.HasOnboarded
		}
		if upd.UseAzureOpenai != nil {
			profile.UseAzureOpenai = *upd.UseAzureOpenai
		}
		applyKey(&profile.AnthropicAPIKey, upd.AnthropicAPIKey)
		applyKey(&profile.OpenaiAPIKey, upd.OpenaiAPIKey)
		applyKey(&profile.OpenaiOrganizationID, upd.OpenaiOrganizationID)
		applyKey(&profile.MistralAPIKey, upd.MistralAPIKey)
		applyKey(&profile.GoogleGeminiAPIKey, upd.GoogleGeminiAPIKey)
		applyKey(&profile.GroqAPIKey, upd.GroqAPIKey)
		applyKey(&profile.PerplexityAPIKey, upd.PerplexityAPIKey)
		applyKey(&profile.OpenrouterAPIKey, upd.OpenrouterAPIKey)
		applyKey(&profile.AzureOpenaiAPIKey, upd.AzureOpenaiAPIKey)
		applyKey(&profile.AzureOpenaiEndpoint, upd.AzureOpenaiEndpoint)
		applyKey(&profile.AzureOpenai35TurboID, upd.AzureOpenai35TurboID)
		applyKey(&profile.AzureOpenai45TurboID, upd.AzureOpenai45TurboID)
		applyKey(&profile.AzureOpenai45VisionID, upd.AzureOpenai45VisionID)
		applyKey(&profile.AzureOpenaiEmbeddingsID, upd.AzureOpenaiEmbeddingsID)

		//3) Save
		saved, err := ps.profileRepo.Update(ctx, tx, []*types.Profile{profile})
		if err != nil {
			if isUniqueViolation(err) {
				return invalid("Username is already taken")
			}
			return fmt.Errorf("failed to update profile: %w", err)
		}
		updated = saved[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func applyKey(dst *string, src *string) {
	if src != nil {
		*dst = utils.ParseInputString(*src)
	}
}

// UploadImage stores the picture and points the profile at it. The object
// is not removed again when the profile update fails.
func (ps *profileService) UploadImage(ctx context.Context, r io.Reader) (*types.Profile, error) {
	userID := requestdata.UserID(ctx)
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	profile, err := ps.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	//1) Upload
	key, err := ps.avatarService.UploadProfileImage(ctx, userID, r)
	if err != nil {
		return nil, err
	}

	//2) Signed URL
	url, err := ps.bucketService.SignedURL(ctx, key, SignedURLTTL)
	if err != nil {
		ps.log.Warn("Could not sign profile image URL", "path", key, "error", err)
	}

	//3) Point Profile
	oldPath := profile.ImagePath
	profile.ImagePath = key
	profile.ImageURL = url
	saved, err := ps.profileRepo.Update(ctx, nil, []*types.Profile{profile})
	if err != nil {
		ps.log.Error("Profile image uploaded but profile update failed", "path", key, "error", err)
		return nil, fmt.Errorf("failed to update profile image: %w", err)
	}
	if oldPath != "" && oldPath != key {
		if dErr := ps.bucketService.DeleteFile(ctx, oldPath); dErr != nil {
			ps.log.Warn("Failed to delete previous profile image", "path", oldPath, "error", dErr)
		}
	}
	return saved[0], nil
}
