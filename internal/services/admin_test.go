package services_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

func newAdmin(f *fixture, bucket services.BucketService) services.AdminService {
	return services.NewAdminService(f.db, f.log, f.admin, f.assistants, f.profiles, bucket)
}

func TestPickUpdateFieldsKeepsOnlyAllowList(t *testing.T) {
	picked := services.PickUpdateFields(map[string]interface{}{
		"name":        "Script Doctor",
		"temperature": 0.2,
		"sharing":     "public",
		"user_id":     "someone-else",
		"is_system":   true,
		"id":          "x",
	})
	assert.Equal(t, map[string]interface{}{
		"name":        "Script Doctor",
		"temperature": 0.2,
		"sharing":     "public",
	}, picked)
	assert.Empty(t, services.PickUpdateFields(map[string]interface{}{"created_at": "now"}))
}

func TestIsAdminReadsProfileRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	adminID, userID := uuid.New(), uuid.New()
	_, err := f.profiles.Create(ctx, nil, []*types.Profile{
		{UserID: adminID, Username: "boss", UserRole: "admin"},
		{UserID: userID, Username: "writer"},
	})
	require.NoError(t, err)

	svc := newAdmin(f, nil)
	ok, err := svc.IsAdmin(as(adminID))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(as(userID))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.IsAdmin(ctx)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestAdminUpdateAssistant(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	a := f.assistant(t, owner, "Reader")
	svc := newAdmin(f, nil)

	updated, err := svc.UpdateAssistant(context.Background(), a.ID, map[string]interface{}{
		"sharing":   types.SharingPublic,
		"is_system": true,
	})
	require.NoError(t, err)
	assert.Equal(t, types.SharingPublic, updated.Sharing)
	assert.False(t, updated.IsSystem)

	_, err = svc.UpdateAssistant(context.Background(), a.ID, map[string]interface{}{"bogus": 1})
	var verr *services.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "No valid fields provided.", verr.Message)

	_, err = svc.UpdateAssistant(context.Background(), uuid.New(), map[string]interface{}{"name": "Ghost"})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestVerifyDeletionFileOnly(t *testing.T) {
	f := newFixture(t)
	report, err := newAdmin(f, nil).VerifyDeletion(context.Background(), services.DeletionCheck{FileID: uuid.NewString()})
	require.NoError(t, err)

	assert.Nil(t, report.Collection)
	assert.Nil(t, report.Storage)
	require.NotNil(t, report.File)
	for _, table := range []string{"files", "file_items", "chat_files", "collection_files", "assistant_files", "file_workspaces"} {
		assert.EqualValues(t, 0, report.File[table], table)
	}

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), `"collection"`))
	assert.False(t, strings.Contains(string(raw), `"storage"`))
}

func TestVerifyDeletionCountsLeftovers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	file := f.file(t, userID, "left.pdf")
	coll := f.collection(t, userID, "Leftovers", file)

	bucket := newMemBucket()
	require.NoError(t, bucket.UploadFile(ctx, file.FilePath, "application/pdf", strings.NewReader("x")))

	report, err := newAdmin(f, bucket).VerifyDeletion(ctx, services.DeletionCheck{
		CollectionID: coll.ID.String(),
		FileID:       file.ID.String(),
		FilePath:     file.FilePath,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, report.Collection["collections"])
	assert.EqualValues(t, 1, report.Collection["collection_files"])
	assert.EqualValues(t, 1, report.File["files"])
	assert.EqualValues(t, 1, report.File["collection_files"])
	assert.Equal(t, coll.ID.String(), report.Collection["id"])
	require.NotNil(t, report.Storage)
	assert.Equal(t, services.ObjectPresent, report.Storage.Status)
}

func TestVerifyDeletionInputs(t *testing.T) {
	f := newFixture(t)
	svc := newAdmin(f, nil)

	_, err := svc.VerifyDeletion(context.Background(), services.DeletionCheck{})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.VerifyDeletion(context.Background(), services.DeletionCheck{FileID: "nope"})
	assert.ErrorIs(t, err, services.ErrValidation)

	report, err := svc.VerifyDeletion(context.Background(), services.DeletionCheck{FilePath: "documents/"})
	require.NoError(t, err)
	assert.Equal(t, services.ObjectInvalidPath, report.Storage.Status)

	_, err = svc.VerifyDeletion(context.Background(), services.DeletionCheck{FilePath: "documents/a.pdf"})
	assert.ErrorIs(t, err, services.ErrStorageDenied)
}
