package services_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MForte-AI/character-dev-1225/internal/services"
)

// memBucket is an in-memory BucketService.
type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemBucket() *memBucket {
	return &memBucket{objects: make(map[string][]byte)}
}

func (m *memBucket) UploadFile(ctx context.Context, key, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memBucket) DeleteFile(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memBucket) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func (m *memBucket) Stat(ctx context.Context, key string) (string, error) {
	if !services.ValidObjectPath(key) {
		return services.ObjectInvalidPath, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; ok {
		return services.ObjectPresent, nil
	}
	return services.ObjectMissing, nil
}

func (m *memBucket) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeProfileImageFitsInside512(t *testing.T) {
	buf, err := services.NormalizeProfileImage(bytes.NewReader(pngBytes(t, 1600, 800)))
	require.NoError(t, err)

	img, err := imaging.Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 512, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestNormalizeProfileImageRejectsGarbage(t *testing.T) {
	_, err := services.NormalizeProfileImage(strings.NewReader("not an image"))
	assert.ErrorIs(t, err, services.ErrValidation)
}

func TestUploadProfileImageKey(t *testing.T) {
	bucket := newMemBucket()
	userID := uuid.New()
	avatar := services.NewAvatarService(newFixture(t).log, bucket)

	key, err := avatar.UploadProfileImage(context.Background(), userID, bytes.NewReader(pngBytes(t, 64, 64)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "profile-images/"+userID.String()+"-"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.True(t, bucket.has(key))
}

func TestUploadProfileImageWithoutBucket(t *testing.T) {
	avatar := services.NewAvatarService(newFixture(t).log, nil)
	_, err := avatar.UploadProfileImage(context.Background(), uuid.New(), bytes.NewReader(pngBytes(t, 8, 8)))
	assert.ErrorIs(t, err, services.ErrStorageDenied)
}

func TestDocumentKey(t *testing.T) {
	userID := uuid.MustParse("6f1c1a52-9a57-4b0e-bb1c-1f1f3f2f0b11")
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "documents/6f1c1a52-9a57-4b0e-bb1c-1f1f3f2f0b11/1700000000123-pilot.pdf", services.DocumentKey(userID, at, "pilot.pdf"))
	assert.Equal(t, "documents/6f1c1a52-9a57-4b0e-bb1c-1f1f3f2f0b11/1700000000123-pilot.pdf", services.DocumentKey(userID, at, `C:\drafts\pilot.pdf`))
	assert.Equal(t, "documents/6f1c1a52-9a57-4b0e-bb1c-1f1f3f2f0b11/1700000000123-pilot.pdf", services.DocumentKey(userID, at, "../../pilot.pdf"))
}

func TestValidObjectPath(t *testing.T) {
	assert.True(t, services.ValidObjectPath("documents/u/1-a.pdf"))
	assert.False(t, services.ValidObjectPath(""))
	assert.False(t, services.ValidObjectPath("documents/"))
	assert.False(t, services.ValidObjectPath("documents/../secrets"))
	assert.False(t, services.ValidObjectPath("   "))
}
