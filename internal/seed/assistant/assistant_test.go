package assistant

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MForte-AI/character-dev-1225/internal/db/dbtest"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

func TestSyncCreatesUpdatesAndKeeps(t *testing.T) {
	gdb := dbtest.Open(t)
	log := logger.NewNop()
	repo := repos.NewAssistantRepo(gdb, log)
	ctx := context.Background()

	seeds := []Seed{
		{Name: "Coverage Reader", Prompt: "Write coverage.", Model: "claude-sonnet-4-20250514", Temperature: 0.5, ContextLength: 4096},
		{Name: "Dialogue Doctor", Prompt: "Punch up dialogue.", Model: "claude-sonnet-4-20250514", Temperature: 0.8, ContextLength: 4096},
	}
	require.NoError(t, Sync(ctx, gdb, log, repo, seeds))

	found, err := repo.GetSystemByNames(ctx, nil, []string{"Coverage Reader", "Dialogue Doctor"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, a := range found {
		assert.True(t, a.IsSystem)
		assert.Nil(t, a.UserID)
		assert.Equal(t, types.SharingPublic, a.Sharing)
		assert.Equal(t, "openai", a.EmbeddingsProvider)
	}

	require.NoError(t, Sync(ctx, gdb, log, repo, []Seed{
		{Name: "Coverage Reader", Prompt: "Write tighter coverage.", Model: "claude-sonnet-4-20250514", Temperature: 0.5, ContextLength: 4096},
	}))
	found, err = repo.GetSystemByNames(ctx, nil, []string{"Coverage Reader", "Dialogue Doctor"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, a := range found {
		if a.Name == "Coverage Reader" {
			assert.Equal(t, "Write tighter coverage.", a.Prompt)
		}
	}

	var count int64
	require.NoError(t, gdb.Model(&types.Assistant{}).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSyncRejectsNamelessSeed(t *testing.T) {
	gdb := dbtest.Open(t)
	log := logger.NewNop()
	err := Sync(context.Background(), gdb, log, repos.NewAssistantRepo(gdb, log), []Seed{{Prompt: "x"}})
	assert.Error(t, err)
}

func TestLoadSeeds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "system_assistants.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Coverage Reader","contextLength":4096,"includeProfileContext":true}]`), 0o600))
	seeds, err := LoadSeeds(path)
	require.NoError(t, err)
	require.Len(t, seeds, 1)
	assert.Equal(t, 4096, seeds[0].ContextLength)
	assert.True(t, seeds[0].IncludeProfileContext)

	_, err = LoadSeeds(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
