package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/MForte-AI/character-dev-1225/internal/logger"
)

const (
	ProfileImageSize = 512
	SignedURLTTL     = 24 * time.Hour
)

// AvatarService normalizes uploaded profile pictures and stores them in the
// bucket.
type AvatarService interface {
	UploadProfileImage(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error)
}

type avatarService struct {
	log           *logger.Logger
	bucketService BucketService
}

func NewAvatarService(log *logger.Logger, bucketService BucketService) AvatarService {
	serviceLog := log.With("service", "AvatarService")
	return &avatarService{log: serviceLog, bucketService: bucketService}
}

// UploadProfileImage returns the bucket key of the stored JPEG.
func (as *avatarService) UploadProfileImage(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error) {
	if as.bucketService == nil {
		return "", ErrStorageDenied
	}
	buf, err := NormalizeProfileImage(r)
	if err != nil {
		return "", err
	}
	bucketKey := fmt.Sprintf("profile-images/%s-%d.jpg", userID.String(), time.Now().UnixMilli())
	if err := as.bucketService.UploadFile(ctx, bucketKey, "image/jpeg", bytes.NewReader(buf.Bytes())); err != nil {
		return "", fmt.Errorf("failed to upload profile image: %w", err)
	}
	as.log.Info("Uploaded profile image", "userID", userID, "key", bucketKey)
	return bucketKey, nil
}

// NormalizeProfileImage decodes any supported image, fits it inside a
// ProfileImageSize square and re-encodes it as JPEG.
func NormalizeProfileImage(r io.Reader) (bytes.Buffer, error) {
	var buf bytes.Buffer
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return buf, invalid("Unsupported image: %v", err)
	}
	img = imaging.Fit(img, ProfileImageSize, ProfileImageSize, imaging.Lanczos)
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return buf, fmt.Errorf("failed to encode profile image JPEG: %w", err)
	}
	return buf, nil
}
