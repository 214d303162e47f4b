package repos_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MForte-AI/character-dev-1225/internal/db/dbtest"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

func TestHomeWorkspaceIsUniquePerUser(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	wr := repos.NewWorkspaceRepo(gdb, logger.NewNop())
	userID := uuid.New()

	_, err := wr.Create(ctx, nil, []*types.Workspace{{UserID: userID, Name: "Home", IsHome: true}})
	require.NoError(t, err)

	_, err = wr.Create(ctx, nil, []*types.Workspace{{UserID: userID, Name: "Second home", IsHome: true}})
	require.Error(t, err)

	_, err = wr.Create(ctx, nil, []*types.Workspace{{UserID: userID, Name: "Scripts"}})
	require.NoError(t, err)

	homes, err := wr.GetHomeByUserID(ctx, nil, userID)
	require.NoError(t, err)
	require.Len(t, homes, 1)
	assert.Equal(t, "Home", homes[0].Name)
}

func TestJoinLookupsKeepAttachOrder(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	log := logger.NewNop()
	ar := repos.NewAssistantRepo(gdb, log)
	fr := repos.NewFileRepo(gdb, log)
	userID := uuid.New()

	files, err := fr.Create(ctx, nil, []*types.File{
		{UserID: userID, Name: "c.pdf"},
		{UserID: userID, Name: "a.pdf"},
		{UserID: userID, Name: "b.pdf"},
	})
	require.NoError(t, err)
	assistants, err := ar.Create(ctx, nil, []*types.Assistant{{UserID: &userID, Name: "Reader"}})
	require.NoError(t, err)

	want := []uuid.UUID{files[1].ID, files[2].ID, files[0].ID}
	require.NoError(t, ar.AttachFiles(ctx, nil, userID, assistants[0].ID, want))

	got, err := ar.GetFiles(ctx, nil, assistants[0].ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range want {
		assert.Equal(t, want[i], got[i].ID)
	}
}

func TestFileDeleteRemovesLinks(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.Open(t)
	log := logger.NewNop()
	fr := repos.NewFileRepo(gdb, log)
	cr := repos.NewCollectionRepo(gdb, log)
	admin := repos.NewAdminRepo(gdb, log)
	userID := uuid.New()

	files, err := fr.Create(ctx, nil, []*types.File{{UserID: userID, Name: "draft.pdf"}})
	require.NoError(t, err)
	cols, err := cr.Create(ctx, nil, []*types.Collection{{UserID: userID, Name: "Drafts"}})
	require.NoError(t, err)
	require.NoError(t, cr.AddFiles(ctx, nil, userID, cols[0].ID, []uuid.UUID{files[0].ID}))

	n, err := admin.CountWhere(ctx, nil, "collection_files", "file_id", files[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, fr.FullDeleteByIDs(ctx, nil, []uuid.UUID{files[0].ID}))

	for _, table := range []string{"files", "collection_files"} {
		column := "file_id"
		if table == "files" {
			column = "id"
		}
		n, err := admin.CountWhere(ctx, nil, table, column, files[0].ID)
		require.NoError(t, err)
		assert.Zero(t, n, table)
	}
}

func TestCountWhereRejectsUnknownTables(t *testing.T) {
	gdb := dbtest.Open(t)
	admin := repos.NewAdminRepo(gdb, logger.NewNop())
	_, err := admin.CountWhere(context.Background(), nil, "users", "id", uuid.New())
	require.Error(t, err)
}
