package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/MForte-AI/character-dev-1225/internal/repos"
	"github.com/MForte-AI/character-dev-1225/internal/requestdata"
	"github.com/MForte-AI/character-dev-1225/internal/services"
	"github.com/MForte-AI/character-dev-1225/internal/types"
)

func newAuth(f *fixture, users repos.UserRepo) services.AuthService {
	if users == nil {
		users = f.users
	}
	return services.NewAuthService(f.db, f.log, f.registry, users, f.accounts, f.sessions, f.profiles, f.workspaces, "test-secret", time.Hour, 24*time.Hour)
}

// racingUserRepo hides existing users from the first lookup, as if another
// sign-in committed between the check and the insert.
type racingUserRepo struct {
	repos.UserRepo
	mu     sync.Mutex
	hidden bool
}

func (r *racingUserRepo) GetByEmails(ctx context.Context, tx *gorm.DB, emails []string) ([]*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.hidden {
		r.hidden = true
		return []*types.User{}, nil
	}
	return r.UserRepo.GetByEmails(ctx, tx, emails)
}

func TestProvisionUserCreatesProfileAndHome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := newAuth(f, nil)

	user, err := auth.ProvisionUser(ctx, services.GoogleIdentity{Subject: "g-1", Email: "Writer@Example.com", Name: "Writer"})
	require.NoError(t, err)
	assert.Equal(t, "writer@example.com", user.Email)

	profiles, err := f.profiles.GetByUserIDs(ctx, nil, []uuid.UUID{user.ID})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.False(t, profiles[0].HasOnboarded)
	assert.Len(t, profiles[0].Username, len("user")+8)
	assert.Empty(t, profiles[0].AnthropicAPIKey)

	homes, err := f.workspaces.GetHomeByUserID(ctx, nil, user.ID)
	require.NoError(t, err)
	require.Len(t, homes, 1)
	home := homes[0]
	assert.Equal(t, services.HomeWorkspaceName, home.Name)
	assert.Equal(t, 4096, home.DefaultContextLength)
	assert.Equal(t, 0.5, home.DefaultTemperature)
	assert.True(t, home.IncludeProfileContext)
	assert.True(t, home.IncludeWorkspaceInstructions)
	assert.Equal(t, f.registry.DefaultClaudeModelID(), home.DefaultModel)

	again, err := auth.ProvisionUser(ctx, services.GoogleIdentity{Email: "writer@example.com"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "Writer", again.Name)

	renamed, err := auth.ProvisionUser(ctx, services.GoogleIdentity{Email: "writer@example.com", Name: "Pen Name", Picture: "https://img.example/p.png"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, renamed.ID)
	var stored types.User
	require.NoError(t, f.db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, "Pen Name", stored.Name)
	assert.Equal(t, "https://img.example/p.png", stored.Image)

	homes, err = f.workspaces.GetHomeByUserID(ctx, nil, user.ID)
	require.NoError(t, err)
	assert.Len(t, homes, 1)
}

func TestProvisionUserLosingRaceReturnsExistingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	winner := &types.User{Email: "race@example.com", Name: "Winner"}
	_, err := f.users.Create(ctx, nil, []*types.User{winner})
	require.NoError(t, err)

	auth := newAuth(f, &racingUserRepo{UserRepo: f.users})
	got, err := auth.ProvisionUser(ctx, services.GoogleIdentity{Email: "race@example.com", Name: "Loser"})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)

	var users int64
	require.NoError(t, f.db.Model(&types.User{}).Where("email = ?", "race@example.com").Count(&users).Error)
	assert.EqualValues(t, 1, users)

	var workspaces int64
	require.NoError(t, f.db.Model(&types.Workspace{}).Count(&workspaces).Error)
	assert.EqualValues(t, 0, workspaces, "the losing transaction must roll back")
}

func TestSignInRefreshAndLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := newAuth(f, nil)

	account := &types.Account{Type: "oauth", Provider: "google", ProviderAccountID: "g-42"}
	res, err := auth.SignInWithGoogle(ctx, services.GoogleIdentity{Subject: "g-42", Email: "a@example.com"}, account)
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)

	linked, err := f.accounts.GetByProviderAccount(ctx, nil, "google", "g-42")
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, res.User.ID, linked[0].UserID)

	authed, err := auth.SetContextFromToken(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, requestdata.UserID(authed))

	access, refresh, err := auth.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, refresh)

	_, err = auth.SetContextFromToken(ctx, res.AccessToken)
	assert.Error(t, err, "the rotated-out access token must stop working")
	_, _, err = auth.Refresh(ctx, res.RefreshToken)
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	authed, err = auth.SetContextFromToken(ctx, access)
	require.NoError(t, err)
	require.NoError(t, auth.Logout(authed))
	_, err = auth.SetContextFromToken(ctx, access)
	assert.Error(t, err)
}

func TestSetContextFromTokenRejectsForeignSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, err := newAuth(f, nil).SignInWithGoogle(ctx, services.GoogleIdentity{Email: "b@example.com"}, nil)
	require.NoError(t, err)

	other := services.NewAuthService(f.db, f.log, f.registry, f.users, f.accounts, f.sessions, f.profiles, f.workspaces, "another-secret", time.Hour, time.Hour)
	_, err = other.SetContextFromToken(ctx, res.AccessToken)
	assert.Error(t, err)
}

func TestHomeWorkspaceRedirect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	auth := newAuth(f, nil)
	userID := uuid.New()

	target, err := auth.HomeWorkspaceRedirect(ctx, userID, "")
	require.NoError(t, err)
	assert.Equal(t, "/setup", target)

	home := f.workspace(t, userID, true)
	target, err = auth.HomeWorkspaceRedirect(ctx, userID, "")
	require.NoError(t, err)
	assert.Equal(t, "/"+home.ID.String()+"/chat", target)

	target, err = auth.HomeWorkspaceRedirect(ctx, userID, "/settings")
	require.NoError(t, err)
	assert.Equal(t, "/settings", target)

	target, err = auth.HomeWorkspaceRedirect(ctx, userID, "//evil.example.com")
	require.NoError(t, err)
	assert.Equal(t, "/"+home.ID.String()+"/chat", target)
}
