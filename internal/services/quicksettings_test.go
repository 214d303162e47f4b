package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MForte-AI/character-dev-1225/internal/eventdata"
	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/socket"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

func newQuickSettings(f *fixture) services.QuickSettingsService {
	return services.NewQuickSettingsService(f.db, f.log, f.registry, f.assistants, f.collections, f.workspaces, f.profiles, f.chats)
}

func TestSelectAssistantBuildsChatFilesInOrder(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ctx := as(userID)
	bg := context.Background()

	ws := f.workspace(t, userID, true)
	a := f.file(t, userID, "a.pdf")
	b := f.file(t, userID, "b.pdf")
	c := f.file(t, userID, "c.pdf")
	first := f.collection(t, userID, "First", b)
	second := f.collection(t, userID, "Second", b, c)

	reader := f.assistant(t, userID, "Reader")
	require.NoError(t, f.assistants.AttachFiles(bg, nil, userID, reader.ID, []uuid.UUID{a.ID}))
	require.NoError(t, f.assistants.AttachCollections(bg, nil, userID, reader.ID, []uuid.UUID{first.ID, second.ID}))
	tool := &types.Tool{UserID: userID, Name: "Lookup", URL: "https://example.com"}
	_, err := f.tools.Create(bg, nil, []*types.Tool{tool})
	require.NoError(t, err)
	require.NoError(t, f.assistants.AttachTools(bg, nil, userID, reader.ID, []uuid.UUID{tool.ID}))

	qs := newQuickSettings(f)
	state, err := qs.SelectAssistant(ctx, types.ChatState{SelectedWorkspace: ws}, reader.ID)
	require.NoError(t, err)

	got := make([]uuid.UUID, 0, len(state.ChatFiles))
	for _, cf := range state.ChatFiles {
		got = append(got, cf.ID)
	}
	assert.Equal(t, []uuid.UUID{a.ID, b.ID, b.ID, c.ID}, got)
	assert.True(t, state.ShowFilesDisplay)
	require.Len(t, state.SelectedTools, 1)
	assert.Equal(t, tool.ID, state.SelectedTools[0].ID)
	require.NotNil(t, state.SelectedAssistant)
	assert.Equal(t, reader.ID, state.SelectedAssistant.ID)
	require.NotNil(t, state.ChatSettings)
	assert.Equal(t, "You read scripts.", state.ChatSettings.Prompt)
	assert.Equal(t, 0.7, state.ChatSettings.Temperature)
	assert.Equal(t, "openai", state.ChatSettings.EmbeddingsProvider)
}

func TestSelectAssistantResolvesUnknownModel(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ws := f.workspace(t, userID, true)
	reader := f.assistant(t, userID, "Reader")
	_, err := f.assistants.UpdateFields(context.Background(), nil, reader.ID, map[string]interface{}{"model": "gpt-4-turbo-preview"})
	require.NoError(t, err)

	state, err := newQuickSettings(f).SelectAssistant(as(userID), types.ChatState{SelectedWorkspace: ws}, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, f.registry.DefaultClaudeModelID(), state.ChatSettings.Model)
	assert.False(t, state.ShowFilesDisplay)
	assert.Empty(t, state.ChatFiles)
}

func TestSelectAssistantLeavesStateOnFailure(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	caller := uuid.New()
	ws := f.workspace(t, caller, true)
	private := f.assistant(t, owner, "Private")

	settings := types.ChatSettings{Model: "claude-sonnet-4-20250514", Prompt: "keep me"}
	in := types.ChatState{SelectedWorkspace: ws, ChatSettings: &settings}

	out, err := newQuickSettings(f).SelectAssistant(as(caller), in, private.ID)
	require.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, in, out)
}

func TestRemoveAssistantRestoresWorkspaceDefaults(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ws := f.workspace(t, userID, true)
	reader := f.assistant(t, userID, "Reader")
	require.NoError(t, f.assistants.AttachFiles(context.Background(), nil, userID, reader.ID, []uuid.UUID{f.file(t, userID, "a.pdf").ID}))

	qs := newQuickSettings(f)
	selected, err := qs.SelectAssistant(as(userID), types.ChatState{SelectedWorkspace: ws}, reader.ID)
	require.NoError(t, err)
	require.Len(t, selected.ChatFiles, 1)

	cleared := qs.RemoveAssistant(selected)
	assert.Nil(t, cleared.SelectedAssistant)
	assert.Empty(t, cleared.ChatFiles)
	assert.Empty(t, cleared.SelectedTools)
	require.NotNil(t, cleared.ChatSettings)
	assert.Equal(t, "Workspace prompt", cleared.ChatSettings.Prompt)
	assert.Equal(t, 0.3, cleared.ChatSettings.Temperature)
	assert.Equal(t, 2048, cleared.ChatSettings.ContextLength)
	assert.Equal(t, "claude-sonnet-4-20250514", cleared.ChatSettings.Model)
}

func TestIsModified(t *testing.T) {
	a := &types.Assistant{
		Model:                        "claude-3-5-sonnet-20240620",
		Prompt:                       "p",
		Temperature:                  0.5,
		ContextLength:                4096,
		IncludeProfileContext:        true,
		IncludeWorkspaceInstructions: true,
	}
	same := types.ChatSettings{
		Model:                        a.Model,
		Prompt:                       a.Prompt,
		Temperature:                  a.Temperature,
		ContextLength:                a.ContextLength,
		IncludeProfileContext:        true,
		IncludeWorkspaceInstructions: true,
		EmbeddingsProvider:           "local",
	}
	assert.False(t, services.IsModified(a, same))

	changed := same
	changed.Temperature = 0.6
	assert.True(t, services.IsModified(a, changed))

	changed = same
	changed.IncludeWorkspaceInstructions = false
	assert.True(t, services.IsModified(a, changed))

	assert.False(t, services.IsModified(nil, same))
}

func TestStartChatWithAssistantSnapshotsSettings(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	ctx := as(userID)
	bg := context.Background()

	_, err := f.profiles.Create(bg, nil, []*types.Profile{{UserID: userID, Username: "reader1"}})
	require.NoError(t, err)
	ws := f.workspace(t, userID, true)
	reader := f.assistant(t, userID, "Reader")

	chat, redirect, err := newQuickSettings(f).StartChatWithAssistant(ctx, ws.ID, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, "/"+ws.ID.String()+"/chat/"+chat.ID.String(), redirect)
	assert.Equal(t, "Chat with Reader", chat.Name)
	assert.Equal(t, userID, chat.UserID)

	events := eventdata.GetEventData(ctx).Drain()
	require.Len(t, events, 1)
	assert.Equal(t, services.EventChatCreated, events[0].Event)
	assert.Equal(t, socket.UserChannel(userID), events[0].Channel)

	_, err = f.assistants.UpdateFields(bg, nil, reader.ID, map[string]interface{}{"prompt": "Changed later", "temperature": 1.0})
	require.NoError(t, err)

	stored, err := f.chats.GetByIDs(bg, nil, []uuid.UUID{chat.ID})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "You read scripts.", stored[0].Prompt)
	assert.Equal(t, 0.7, stored[0].Temperature)
	require.NotNil(t, stored[0].AssistantID)
	assert.Equal(t, reader.ID, *stored[0].AssistantID)
}

func TestStartChatWithoutProfileUsesAssistantOwner(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	caller := uuid.New()
	ws := f.workspace(t, caller, true)
	shared := f.assistant(t, owner, "Shared")
	_, err := f.assistants.UpdateFields(context.Background(), nil, shared.ID, map[string]interface{}{"sharing": types.SharingPublic})
	require.NoError(t, err)

	chat, _, err := newQuickSettings(f).StartChatWithAssistant(as(caller), ws.ID, shared.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, chat.UserID)
}

func TestStartChatRequiresOwnedWorkspace(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	other := f.workspace(t, uuid.New(), true)
	reader := f.assistant(t, userID, "Reader")

	ctx := as(userID)
	_, _, err := newQuickSettings(f).StartChatWithAssistant(ctx, other.ID, reader.ID)
	require.ErrorIs(t, err, services.ErrNotFound)
	assert.Empty(t, eventdata.GetEventData(ctx).Drain())
}
