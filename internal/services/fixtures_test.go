package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/db/dbtest"
	"github.com/MForte-AI/character-dev-1225/internal/eventdata"
	"github.com/MForte-AI/character-dev-1225/internal/llm"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

type fixture struct {
	db       *gorm.DB
	log      *logger.Logger
	registry *llm.Registry

	users       repos.UserRepo
	accounts    repos.AccountRepo
	sessions    repos.SessionRepo
	profiles    repos.ProfileRepo
	workspaces  repos.WorkspaceRepo
	assistants  repos.AssistantRepo
	tools       repos.ToolRepo
	chats       repos.ChatRepo
	files       repos.FileRepo
	collections repos.CollectionRepo
	admin       repos.AdminRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gdb := dbtest.Open(t)
	log := logger.NewNop()
	return &fixture{
		db:          gdb,
		log:         log,
		registry:    llm.NewRegistry(""),
		users:       repos.NewUserRepo(gdb, log),
		accounts:    repos.NewAccountRepo(gdb, log),
		sessions:    repos.NewSessionRepo(gdb, log),
		profiles:    repos.NewProfileRepo(gdb, log),
		workspaces:  repos.NewWorkspaceRepo(gdb, log),
		assistants:  repos.NewAssistantRepo(gdb, log),
		tools:       repos.NewToolRepo(gdb, log),
		chats:       repos.NewChatRepo(gdb, log),
		files:       repos.NewFileRepo(gdb, log),
		collections: repos.NewCollectionRepo(gdb, log),
		admin:       repos.NewAdminRepo(gdb, log),
	}
}

// as returns a request context for userID with an event buffer attached.
func as(userID uuid.UUID) context.Context {
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
	return eventdata.WithEventData(ctx)
}

func (f *fixture) workspace(t *testing.T, userID uuid.UUID, home bool) *types.Workspace {
	t.Helper()
	ws := &types.Workspace{
		UserID:                       userID,
		Name:                         "Scripts",
		IsHome:                       home,
		DefaultModel:                 "claude-sonnet-4-20250514",
		DefaultPrompt:                "Workspace prompt",
		DefaultTemperature:           0.3,
		DefaultContextLength:         2048,
		IncludeProfileContext:        true,
		IncludeWorkspaceInstructions: false,
		EmbeddingsProvider:           "openai",
	}
	_, err := f.workspaces.Create(context.Background(), nil, []*types.Workspace{ws})
	require.NoError(t, err)
	return ws
}

func (f *fixture) assistant(t *testing.T, userID uuid.UUID, name string) *types.Assistant {
	t.Helper()
	a := &types.Assistant{
		UserID:                       &userID,
		Name:                         name,
		Prompt:                       "You read scripts.",
		Model:                        "claude-3-5-sonnet-20240620",
		Temperature:                  0.7,
		ContextLength:                4096,
		IncludeProfileContext:        false,
		IncludeWorkspaceInstructions: true,
		EmbeddingsProvider:           "openai",
		Sharing:                      types.SharingPrivate,
	}
	_, err := f.assistants.Create(context.Background(), nil, []*types.Assistant{a})
	require.NoError(t, err)
	return a
}

func (f *fixture) file(t *testing.T, userID uuid.UUID, name string) *types.File {
	t.Helper()
	file := &types.File{UserID: userID, Name: name, Type: "application/pdf", FilePath: "documents/" + name, PageCount: 1}
	_, err := f.files.Create(context.Background(), nil, []*types.File{file})
	require.NoError(t, err)
	return file
}

func (f *fixture) collection(t *testing.T, userID uuid.UUID, name string, files ...*types.File) *types.Collection {
	t.Helper()
	ctx := context.Background()
	c := &types.Collection{UserID: userID, Name: name}
	_, err := f.collections.Create(ctx, nil, []*types.Collection{c})
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(files))
	for _, file := range files {
		ids = append(ids, file.ID)
	}
	if len(ids) > 0 {
		require.NoError(t, f.collections.AddFiles(ctx, nil, userID, c.ID, ids))
	}
	return c
}
