package services_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MForte-AI/character-dev-1225/internal/services"
)

func TestUploadThenDeleteLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ctx := as(userID)
	ws := f.workspace(t, userID, true)
	coll := f.collection(t, userID, "Drafts")
	bucket := newMemBucket()
	svc := services.NewFileService(f.db, f.log, f.files, f.workspaces, f.collections, bucket)

	file, err := svc.Upload(ctx, services.FileUpload{
		WorkspaceID:  ws.ID,
		CollectionID: &coll.ID,
		Name:         "  pilot.pdf ",
		Type:         "application/pdf",
		Size:         5,
		PageCount:    42,
		Genre:        "Drama",
		Body:         strings.NewReader("%PDF-"),
	})
	require.NoError(t, err)
	assert.Equal(t, "pilot.pdf", file.Name)
	assert.Equal(t, 42, file.PageCount)
	assert.True(t, bucket.has(file.FilePath))
	assert.True(t, strings.HasPrefix(file.FilePath, "documents/"+userID.String()+"/"))

	listed, err := svc.ListByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, file.ID, listed[0].ID)

	require.NoError(t, svc.Delete(ctx, file.ID))
	assert.False(t, bucket.has(file.FilePath))

	report, err := newAdmin(f, bucket).VerifyDeletion(ctx, services.DeletionCheck{
		FileID:   file.ID.String(),
		FilePath: file.FilePath,
	})
	require.NoError(t, err)
	for table, n := range report.File {
		if table == "id" {
			continue
		}
		assert.EqualValues(t, 0, n, table)
	}
	assert.Equal(t, services.ObjectMissing, report.Storage.Status)
}

func TestUploadRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ctx := as(userID)
	ws := f.workspace(t, userID, true)
	bucket := newMemBucket()
	svc := services.NewFileService(f.db, f.log, f.files, f.workspaces, f.collections, bucket)

	_, err := svc.Upload(ctx, services.FileUpload{WorkspaceID: ws.ID, Name: "a.pdf", PageCount: 0, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = svc.Upload(ctx, services.FileUpload{WorkspaceID: uuid.New(), Name: "a.pdf", PageCount: 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, services.ErrNotFound)

	other := f.workspace(t, uuid.New(), true)
	_, err = svc.Upload(ctx, services.FileUpload{WorkspaceID: other.ID, Name: "a.pdf", PageCount: 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Empty(t, bucket.objects)

	noBucket := services.NewFileService(f.db, f.log, f.files, f.workspaces, f.collections, nil)
	_, err = noBucket.Upload(ctx, services.FileUpload{WorkspaceID: ws.ID, Name: "a.pdf", PageCount: 1, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, services.ErrStorageDenied)
}

func TestHomeWorkspaceCannotBeDeleted(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ctx := as(userID)
	home := f.workspace(t, userID, true)
	extra := f.workspace(t, userID, false)
	svc := services.NewWorkspaceService(f.db, f.log, f.registry, f.workspaces)

	assert.ErrorIs(t, svc.Delete(ctx, home.ID), services.ErrValidation)
	require.NoError(t, svc.Delete(ctx, extra.ID))

	_, err := svc.Get(ctx, extra.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = svc.Get(ctx, home.ID)
	assert.NoError(t, err)
}

func TestAssistantOwnership(t *testing.T) {
	f := newFixture(t)
	ownerID, otherID := uuid.New(), uuid.New()
	a := f.assistant(t, ownerID, "Mine")
	svc := services.NewAssistantService(f.db, f.log, f.registry, f.assistants, f.workspaces, f.files, f.collections, f.tools)

	_, err := svc.Get(as(otherID), a.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = newAdmin(f, nil).UpdateAssistant(as(ownerID), a.ID, map[string]interface{}{"sharing": "public"})
	require.NoError(t, err)

	got, err := svc.Get(as(otherID), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Name)
	assert.ErrorIs(t, svc.Delete(as(otherID), a.ID), services.ErrForbidden)

	sys := f.assistant(t, ownerID, "House Reader")
	require.NoError(t, f.db.Model(sys).Update("is_system", true).Error)
	assert.ErrorIs(t, svc.Delete(as(ownerID), sys.ID), services.ErrReadOnly)

	require.NoError(t, svc.Delete(as(ownerID), a.ID))
}
